package kopsprovisioner_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devantler-tech/kci/pkg/cmd/runner"
	"github.com/devantler-tech/kci/pkg/svc/lifecycle"
	"github.com/devantler-tech/kci/pkg/svc/provider"
	clustererrors "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/errors"
	kopsprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/kops"
	"github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/types"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const kubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://api.ci-42.k8s.local
  name: ci-42.k8s.local
contexts:
- context:
    cluster: ci-42.k8s.local
    user: ci-42.k8s.local
  name: ci-42.k8s.local
current-context: ci-42.k8s.local
users:
- name: ci-42.k8s.local
  user:
    token: fake-token
`

const stateURL = "s3://kci-state-42"

func descriptor(t *testing.T) types.Descriptor {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte(kubeconfig), 0o600))

	return types.Descriptor{
		Name:             "ci-42.k8s.local",
		StateBucket:      "kci-state-42",
		Region:           "us-east-1",
		NodeCount:        3,
		ZoneCount:        2,
		SSHPublicKey:     "/home/ci/.ssh/kci_rsa.pub",
		Kubeconfig:       path,
		ValidateTimeout:  5 * time.Second,
		ValidateInterval: 10 * time.Millisecond,
		Env:              []string{"KOPS_FEATURE_FLAGS=Foo"},
	}
}

func verb(words ...string) any {
	return mock.MatchedBy(func(inv runner.Invocation) bool {
		if len(inv.Args) < len(words)+1 {
			return false
		}

		for i, word := range words {
			if inv.Args[i+1] != word {
				return false
			}
		}

		return true
	})
}

func newProvider(created bool) *provider.MockProvider {
	infra := provider.NewMockProvider()
	infra.On("Region").Return("us-east-1").Maybe()
	infra.On("CreateStateStore", mock.Anything, "kci-state-42").
		Return(provider.StateStore{Bucket: "kci-state-42", Region: "us-east-1", Created: created}, nil)
	infra.On("ListZones", mock.Anything).Return([]string{"us-east-1a", "us-east-1b", "us-east-1c"}, nil)

	return infra
}

func newProvisioner(cmdRunner runner.Runner, infra provider.Provider) *kopsprovisioner.Provisioner {
	return kopsprovisioner.NewProvisioner(cmdRunner, infra, kopsprovisioner.WithNotifier(notify.New(io.Discard, nil)))
}

func TestProvision_ThreeNodesTwoZones(t *testing.T) {
	t.Parallel()

	desc := descriptor(t)
	infra := newProvider(true)

	validateFailure := &runner.ExecutionError{
		Args:     []string{"kops", "validate", "cluster"},
		ExitCode: 2,
		Stderr:   []byte("Validation failed: node not ready"),
	}

	cmdRunner := runner.NewMockRunner()
	cmdRunner.On("Run", mock.Anything, verb("create", "cluster")).Return(runner.CommandResult{}, nil)
	cmdRunner.On("Run", mock.Anything, verb("export", "kubecfg")).Return(runner.CommandResult{}, nil)
	cmdRunner.On("Run", mock.Anything, verb("validate", "cluster")).Return(runner.CommandResult{}, validateFailure).Once()
	cmdRunner.On("Run", mock.Anything, verb("validate", "cluster")).Return(runner.CommandResult{}, nil)

	lc := lifecycle.New()

	cluster, err := newProvisioner(cmdRunner, infra).Provision(context.Background(), desc, lc)

	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1a", "us-east-1b"}, cluster.Zones)
	assert.Equal(t, map[string]int{"us-east-1a": 2, "us-east-1b": 1}, cluster.Placement)
	assert.Equal(t, stateURL, cluster.StateStore)
	assert.Equal(t, "https://api.ci-42.k8s.local", cluster.APIServer)
	assert.Equal(t, 2, lc.Len())

	commands := cmdRunner.Commands()
	require.Len(t, commands, 4)
	assert.Equal(t, []string{
		"kops", "create", "cluster",
		"--name", "ci-42.k8s.local",
		"--state", stateURL,
		"--cloud", "aws",
		"--zones", "us-east-1a,us-east-1b",
		"--control-plane-zones", "us-east-1a",
		"--node-count", "3",
		"--node-size", "t3.medium",
		"--control-plane-size", "t3.medium",
		"--ssh-public-key", "/home/ci/.ssh/kci_rsa.pub",
		"--yes",
	}, commands[0])
	assert.Equal(t, []string{
		"kops", "export", "kubecfg", "--name", "ci-42.k8s.local", "--state", stateURL,
		"--admin", "--kubeconfig", desc.Kubeconfig,
	}, commands[1])

	for _, call := range cmdRunner.Calls {
		inv, ok := call.Arguments.Get(1).(runner.Invocation)
		require.True(t, ok)
		assert.Equal(t, desc.Env, inv.Env)
	}
}

func TestProvision_CleanupDeletesClusterThenBucket(t *testing.T) {
	t.Parallel()

	desc := descriptor(t)
	infra := newProvider(true)

	var order []string

	infra.On("DeleteStateStore", mock.Anything, "kci-state-42").
		Run(func(mock.Arguments) { order = append(order, "bucket") }).
		Return(nil)

	cmdRunner := runner.NewMockRunner()
	cmdRunner.On("Run", mock.Anything, verb("delete", "cluster")).
		Run(func(mock.Arguments) { order = append(order, "cluster") }).
		Return(runner.CommandResult{}, nil)
	cmdRunner.On("Run", mock.Anything, mock.Anything).Return(runner.CommandResult{}, nil)

	lc := lifecycle.New()

	_, err := newProvisioner(cmdRunner, infra).Provision(context.Background(), desc, lc)
	require.NoError(t, err)

	require.NoError(t, lc.RunAll(context.Background()))
	assert.Equal(t, []string{"cluster", "bucket"}, order)
	assert.Zero(t, lc.Len())
}

func TestProvision_CreateFailureStillTracksClusterDelete(t *testing.T) {
	t.Parallel()

	desc := descriptor(t)
	infra := newProvider(true)

	createErr := &runner.ExecutionError{Args: []string{"kops", "create"}, ExitCode: 1, Stderr: []byte("quota exceeded")}

	cmdRunner := runner.NewMockRunner()
	cmdRunner.On("Run", mock.Anything, verb("create", "cluster")).Return(runner.CommandResult{}, createErr)

	lc := lifecycle.New()

	cluster, err := newProvisioner(cmdRunner, infra).Provision(context.Background(), desc, lc)

	require.ErrorAs(t, err, new(*runner.ExecutionError))
	assert.Nil(t, cluster)
	assert.Equal(t, 2, lc.Len())
}

func TestProvision_ExistingBucketIsNotTracked(t *testing.T) {
	t.Parallel()

	desc := descriptor(t)
	infra := newProvider(false)

	cmdRunner := runner.NewMockRunner()
	cmdRunner.On("Run", mock.Anything, mock.Anything).Return(runner.CommandResult{}, nil)

	lc := lifecycle.New()

	_, err := newProvisioner(cmdRunner, infra).Provision(context.Background(), desc, lc)

	require.NoError(t, err)
	assert.Equal(t, 1, lc.Len())
	infra.AssertNotCalled(t, "DeleteStateStore", mock.Anything, mock.Anything)
}

func TestProvision_KeepResourcesSkipsTeardown(t *testing.T) {
	t.Parallel()

	desc := descriptor(t)
	infra := newProvider(true)

	cmdRunner := runner.NewMockRunner()
	cmdRunner.On("Run", mock.Anything, mock.Anything).Return(runner.CommandResult{}, nil)

	lc := lifecycle.New(lifecycle.WithKeepResources(true))

	_, err := newProvisioner(cmdRunner, infra).Provision(context.Background(), desc, lc)

	require.NoError(t, err)
	assert.Zero(t, lc.Len())

	skipped := lc.Skipped()
	require.Len(t, skipped, 2)
	assert.Contains(t, skipped[1].ManualCleanup, "kops delete cluster --name ci-42.k8s.local")
}

func TestProvision_ValidationTimeout(t *testing.T) {
	t.Parallel()

	desc := descriptor(t)
	desc.ValidateTimeout = 50 * time.Millisecond
	infra := newProvider(true)

	cmdRunner := runner.NewMockRunner()
	cmdRunner.On("Run", mock.Anything, verb("validate", "cluster")).
		Return(runner.CommandResult{}, &runner.ExecutionError{Args: []string{"kops"}, ExitCode: 2})
	cmdRunner.On("Run", mock.Anything, mock.Anything).Return(runner.CommandResult{}, nil)

	_, err := newProvisioner(cmdRunner, infra).Provision(context.Background(), desc, lifecycle.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate cluster")
	assert.Contains(t, err.Error(), "timeout exceeded")
}

func TestProvision_InvalidDescriptor(t *testing.T) {
	t.Parallel()

	cmdRunner := runner.NewMockRunner()

	_, err := newProvisioner(cmdRunner, provider.NewMockProvider()).
		Provision(context.Background(), types.Descriptor{}, lifecycle.New())

	require.ErrorIs(t, err, clustererrors.ErrInvalidDescriptor)
	assert.Empty(t, cmdRunner.Calls)
}

func TestProvision_NoZones(t *testing.T) {
	t.Parallel()

	desc := descriptor(t)

	infra := provider.NewMockProvider()
	infra.On("Region").Return("us-east-1")
	infra.On("CreateStateStore", mock.Anything, mock.Anything).
		Return(provider.StateStore{Bucket: "kci-state-42", Created: true}, nil)
	infra.On("ListZones", mock.Anything).Return([]string{}, nil)

	lc := lifecycle.New()

	_, err := newProvisioner(runner.NewMockRunner(), infra).Provision(context.Background(), desc, lc)

	require.ErrorIs(t, err, kopsprovisioner.ErrNoZones)
	assert.Equal(t, 1, lc.Len())
}

func TestDelete_NotFound(t *testing.T) {
	t.Parallel()

	cmdRunner := runner.NewMockRunner()
	cmdRunner.On("Run", mock.Anything, verb("delete", "cluster")).Return(runner.CommandResult{},
		&runner.ExecutionError{Args: []string{"kops"}, ExitCode: 1, Stderr: []byte(`cluster "x" not found`)})

	err := newProvisioner(cmdRunner, provider.NewMockProvider()).
		Delete(context.Background(), types.Descriptor{Name: "x", StateBucket: "b"})

	require.ErrorIs(t, err, clustererrors.ErrClusterNotFound)
}

func TestDelete_OtherFailure(t *testing.T) {
	t.Parallel()

	cmdRunner := runner.NewMockRunner()
	cmdRunner.On("Run", mock.Anything, verb("delete", "cluster")).Return(runner.CommandResult{}, errors.New("boom"))

	err := newProvisioner(cmdRunner, provider.NewMockProvider()).
		Delete(context.Background(), types.Descriptor{Name: "x", StateBucket: "b"})

	require.Error(t, err)
	require.NotErrorIs(t, err, clustererrors.ErrClusterNotFound)
}

func TestCreateClusterArgs_OptionalFlags(t *testing.T) {
	t.Parallel()

	desc := types.Descriptor{
		Name:              "ci.example.com",
		NodeCount:         1,
		NodeSize:          "m5.large",
		ControlPlaneSize:  "m5.large",
		SSHPublicKey:      "key.pub",
		KubernetesVersion: "1.31.2",
		DNSZone:           "example.com",
	}

	args := kopsprovisioner.CreateClusterArgs(desc, "s3://b", []string{"z1"})

	assert.Contains(t, args, "--kubernetes-version")
	assert.Contains(t, args, "1.31.2")
	assert.Contains(t, args, "--dns-zone")
	assert.Equal(t, "--yes", args[len(args)-1])
}
