package readiness

import (
	"context"
	"time"

	"k8s.io/client-go/kubernetes"
)

// APIServerPollInterval is the interval between API server health checks.
const APIServerPollInterval = 5 * time.Second

// WaitForAPIServerReady waits until the API server answers a ServerVersion request.
//
// Every failed request is treated as "not ready yet"; a freshly exported
// kubeconfig commonly points at a DNS name that takes minutes to resolve.
func WaitForAPIServerReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	timeout time.Duration,
	opts ...Option,
) (time.Duration, error) {
	return WaitFor(ctx, "api server", APIServerPollInterval, timeout, func(_ context.Context) (bool, error) {
		_, err := clientset.Discovery().ServerVersion()
		if err != nil {
			return false, NotReady(err)
		}

		return true, nil
	}, opts...)
}
