package installer_test

import (
	"testing"
	"time"

	"github.com/devantler-tech/kci/pkg/svc/installer"
	"github.com/stretchr/testify/assert"
)

func TestInstallTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		retries int
		want    time.Duration
	}{
		{name: "default", retries: 0, want: 5 * time.Minute},
		{name: "negative", retries: -3, want: 5 * time.Minute},
		{name: "one", retries: 1, want: time.Minute},
		{name: "ten", retries: 10, want: 10 * time.Minute},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, installer.InstallTimeout(testCase.retries))
		})
	}
}
