package readiness_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devantler-tech/kci/pkg/k8s/readiness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func readyNode(name string, status corev1.ConditionStatus) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: status},
			},
		},
	}
}

func TestWaitForNodeReady_NodeAlreadyReady(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset(readyNode("node-1", corev1.ConditionTrue))

	_, err := readiness.WaitForNodeReady(context.Background(), clientset, 5*time.Second)
	require.NoError(t, err)
}

func TestWaitForNodeReady_NodeNotReady(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset(readyNode("node-1", corev1.ConditionFalse))

	_, err := readiness.WaitForNodeReady(context.Background(), clientset, 300*time.Millisecond)
	require.ErrorIs(t, err, readiness.ErrTimeoutExceeded)
}

func TestWaitForNodeReady_NoNodes(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()

	_, err := readiness.WaitForNodeReady(context.Background(), clientset, 300*time.Millisecond)
	assert.Error(t, err)
}

func TestWaitForNodeReady_ListErrorsAreRetried(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()
	clientset.PrependReactor("list", "nodes", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("connection refused")
	})

	_, err := readiness.WaitForNodeReady(context.Background(), clientset, 300*time.Millisecond)

	var timeoutErr *readiness.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.ErrorContains(t, timeoutErr.LastErr, "connection refused")
}

func TestWaitForNodeReady_ContextCancelled(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := readiness.WaitForNodeReady(ctx, clientset, 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestIsNodeReady(t *testing.T) {
	t.Parallel()

	assert.True(t, readiness.IsNodeReady(readyNode("a", corev1.ConditionTrue)))
	assert.False(t, readiness.IsNodeReady(readyNode("b", corev1.ConditionUnknown)))
	assert.False(t, readiness.IsNodeReady(&corev1.Node{}))
}

func TestWaitForAPIServerReady(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()

	_, err := readiness.WaitForAPIServerReady(context.Background(), clientset, 2*time.Second)
	require.NoError(t, err)
}
