package configmanager

import (
	"time"

	"github.com/devantler-tech/kci/pkg/svc/installer/prepull"
	clusterprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster"
)

// Config is a fully resolved kci run configuration.
type Config struct {
	Backend    clusterprovisioner.Backend `mapstructure:"backend"    validate:"required"`
	NoCleanup  bool                       `mapstructure:"no-cleanup"`
	Home       string                     `mapstructure:"home"       validate:"required"`
	LogFile    string                     `mapstructure:"log-file"`
	SourceDir  string                     `mapstructure:"source-dir" validate:"required"`
	Dockerfile string                     `mapstructure:"dockerfile"`

	Registry         string `mapstructure:"registry"          validate:"required"`
	RegistryUsername string `mapstructure:"registry-username" validate:"required"`
	RegistryPassword string `mapstructure:"registry-password" validate:"required"`
	ImageRepository  string `mapstructure:"image-repository"`
	ImageTag         string `mapstructure:"image-tag"`
	TargetImage      string `mapstructure:"target-image"`

	Region             string `mapstructure:"region"                validate:"required"`
	AWSAccessKeyID     string `mapstructure:"aws-access-key-id"     validate:"required"`
	AWSSecretAccessKey string `mapstructure:"aws-secret-access-key" validate:"required"`

	ClusterName       string        `mapstructure:"cluster-name"       validate:"required,hostname_rfc1123"`
	StateBucket       string        `mapstructure:"state-bucket"       validate:"required,s3_bucket"`
	NodeCount         int           `mapstructure:"node-count"         validate:"min=1"`
	ZoneCount         int           `mapstructure:"zone-count"         validate:"min=1"`
	NodeSize          string        `mapstructure:"node-size"`
	ControlPlaneSize  string        `mapstructure:"control-plane-size"`
	KubernetesVersion string        `mapstructure:"kubernetes-version"`
	DNSZone           string        `mapstructure:"dns-zone"`
	ProvisionTimeout  time.Duration `mapstructure:"provision-timeout"  validate:"min=1m"`

	ContainerRuntime prepull.ContainerRuntime `mapstructure:"container-runtime" validate:"required"`
	InstallRetries   int                      `mapstructure:"install-retries"   validate:"min=1"`
	TestCommand      string                   `mapstructure:"test-command"`
}
