package pipeline

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/devantler-tech/kci/pkg/svc/credentials"
	"github.com/devantler-tech/kci/pkg/svc/installer/prepull"
	"github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/types"
)

// DefaultAPIServerTimeout bounds the wait for the API server after validation.
const DefaultAPIServerTimeout = 5 * time.Minute

// ErrHomeRequired is returned when Config.Home is empty.
var ErrHomeRequired = errors.New("home directory is required")

// Config is one pipeline run's input.
type Config struct {
	// Home holds generated credentials and the .kci state directory.
	Home string
	// SourceDir is the working copy to build.
	SourceDir string
	// Dockerfile is relative to SourceDir.
	Dockerfile string
	// Registry hosts the published image.
	Registry string
	// ImageRepository defaults to "<username>/<source dir name>".
	ImageRepository string
	// ImageTag defaults to the working copy's short commit.
	ImageTag string
	// TargetImage is the name the test suite runs the image under. Defaults to the published reference.
	TargetImage string
	// Login authenticates the registry.
	Login credentials.RegistryLogin
	// AWS authenticates the cloud provider and the cluster tool.
	AWS credentials.AWSCredentials
	// Cluster describes the cluster to provision.
	Cluster types.Descriptor
	// Runtime is the worker nodes' container runtime.
	Runtime prepull.ContainerRuntime
	// InstallRetries sets the image install timeout in minutes.
	InstallRetries int
	// APIServerTimeout defaults to DefaultAPIServerTimeout.
	APIServerTimeout time.Duration
	// TestCommand is run through the shell with KUBECONFIG set when non-empty.
	TestCommand string
}

// StateDir returns the directory kci writes its per-run files to.
func (c Config) StateDir() string {
	return filepath.Join(c.Home, ".kci")
}

// TestConfigPath returns the test-runner configuration file location.
func (c Config) TestConfigPath() string {
	return filepath.Join(c.StateDir(), "e2e.yaml")
}

// DefaultKubeconfigPath returns where the cluster kubeconfig is exported.
func (c Config) DefaultKubeconfigPath() string {
	return filepath.Join(c.StateDir(), "kubeconfig")
}
