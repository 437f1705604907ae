package readiness

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// NodePollInterval is the interval between node list requests.
const NodePollInterval = 5 * time.Second

// WaitForNodeReady polls until at least one node has condition Ready=True.
func WaitForNodeReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	timeout time.Duration,
	opts ...Option,
) (time.Duration, error) {
	return WaitFor(ctx, "node ready", NodePollInterval, timeout, func(ctx context.Context) (bool, error) {
		nodes, err := clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
		if err != nil {
			return false, NotReady(err)
		}

		for i := range nodes.Items {
			if IsNodeReady(&nodes.Items[i]) {
				return true, nil
			}
		}

		return false, nil
	}, opts...)
}

// IsNodeReady returns true if the node has condition Ready=True.
func IsNodeReady(node *corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}

	return false
}
