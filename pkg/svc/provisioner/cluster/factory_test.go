package clusterprovisioner_test

import (
	"context"
	"io"
	"testing"

	"github.com/devantler-tech/kci/pkg/cmd/runner"
	"github.com/devantler-tech/kci/pkg/svc/provider"
	clusterprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster"
	kopsprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/kops"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFactory_Create(t *testing.T) {
	t.Parallel()

	deps := clusterprovisioner.Dependencies{
		Runner:   runner.NewMockRunner(),
		Notifier: notify.New(io.Discard, nil),
		Provider: provider.NewMockProvider(),
	}

	tests := []struct {
		name         string
		backend      clusterprovisioner.Backend
		expectedType any
		errorIs      error
	}{
		{
			name:         "kops-aws",
			backend:      clusterprovisioner.BackendKopsAWS,
			expectedType: &kopsprovisioner.Provisioner{},
		},
		{
			name:    "unknown backend",
			backend: clusterprovisioner.Backend("gke"),
			errorIs: clusterprovisioner.ErrUnsupportedBackend,
		},
		{
			name:    "empty backend",
			backend: clusterprovisioner.Backend(""),
			errorIs: clusterprovisioner.ErrUnsupportedBackend,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			prov, err := clusterprovisioner.DefaultFactory{}.Create(context.Background(), testCase.backend, deps)

			if testCase.errorIs != nil {
				require.ErrorIs(t, err, testCase.errorIs)
				assert.Nil(t, prov)

				return
			}

			require.NoError(t, err)
			assert.IsType(t, testCase.expectedType, prov)
		})
	}
}
