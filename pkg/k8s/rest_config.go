package k8s

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// BuildRESTConfig builds a REST config from the current context of a kubeconfig file.
//
// Returns ErrKubeconfigPathEmpty if kubeconfig is empty.
func BuildRESTConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		return nil, ErrKubeconfigPathEmpty
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig},
		&clientcmd.ConfigOverrides{},
	)

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	return restConfig, nil
}

// NewClientset creates a Kubernetes clientset from a kubeconfig file.
func NewClientset(kubeconfig string) (*kubernetes.Clientset, error) {
	restConfig, err := BuildRESTConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build rest config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return clientset, nil
}

// APIServerURL returns the API server address of the kubeconfig's current context.
func APIServerURL(kubeconfig string) (string, error) {
	restConfig, err := BuildRESTConfig(kubeconfig)
	if err != nil {
		return "", err
	}

	return restConfig.Host, nil
}
