package clusterprovisioner_test

import (
	"testing"

	clusterprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    clusterprovisioner.Backend
		wantErr bool
	}{
		{input: "kops-aws", want: clusterprovisioner.BackendKopsAWS},
		{input: "KOPS-AWS", want: clusterprovisioner.BackendKopsAWS},
		{input: "eks", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.input, func(t *testing.T) {
			t.Parallel()

			got, err := clusterprovisioner.ParseBackend(testCase.input)
			if testCase.wantErr {
				require.ErrorIs(t, err, clusterprovisioner.ErrUnsupportedBackend)
				assert.Contains(t, err.Error(), "valid options: kops-aws")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestBackend_PflagValue(t *testing.T) {
	t.Parallel()

	var backend clusterprovisioner.Backend

	assert.Equal(t, "Backend", backend.Type())
	assert.False(t, backend.IsValid())
	assert.Equal(t, clusterprovisioner.BackendKopsAWS, backend.Default())
	assert.Equal(t, []string{"kops-aws"}, backend.ValidValues())

	require.NoError(t, backend.Set("Kops-Aws"))
	assert.Equal(t, "kops-aws", backend.String())
}
