package configmanager

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/devantler-tech/kci/pkg/fsutil"
	"github.com/devantler-tech/kci/pkg/k8s"
	"github.com/devantler-tech/kci/pkg/svc/installer"
	"github.com/devantler-tech/kci/pkg/svc/installer/prepull"
	clusterprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/types"
	"k8s.io/apimachinery/pkg/util/rand"
)

// Static defaults.
const (
	DefaultRegistry  = "docker.io"
	DefaultRegion    = "us-east-1"
	DefaultSourceDir = "."
	DefaultBackend   = clusterprovisioner.BackendKopsAWS
	DefaultRuntime   = prepull.RuntimeContainerd

	// suffixLength is the random part of generated resource names.
	suffixLength = 6
)

// generatedNames returns a cluster name and state bucket sharing one random suffix,
// so the two are easy to match up in the cloud console.
func generatedNames() (string, string) {
	suffix := rand.String(suffixLength)

	return k8s.GossipClusterName("kci", suffix), "kci-state-" + suffix
}

// userHome returns the current user's home directory, or "." when unknown.
func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}

	return home
}

// applyDefaults fills settings whose defaults depend on other settings.
func applyDefaults(cfg *Config) {
	if cfg.Home == "" {
		cfg.Home = userHome()
	}

	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.Home, ".kci", "debug.log")
	}

	if cfg.ClusterName == "" || cfg.StateBucket == "" {
		cluster, bucket := generatedNames()

		if cfg.ClusterName == "" {
			cfg.ClusterName = cluster
		}

		if cfg.StateBucket == "" {
			cfg.StateBucket = bucket
		}
	}

	if cfg.NodeSize == "" {
		cfg.NodeSize = types.DefaultNodeSize
	}

	if cfg.ControlPlaneSize == "" {
		cfg.ControlPlaneSize = types.DefaultControlPlaneSize
	}

	if cfg.InstallRetries == 0 {
		cfg.InstallRetries = installer.DefaultRetries
	}
}

// resolvePaths expands "~" and makes the path settings absolute.
func resolvePaths(cfg *Config) error {
	home, err := fsutil.ExpandPath(cfg.Home, userHome())
	if err != nil {
		return fmt.Errorf("home: %w", err)
	}

	cfg.Home = home

	for name, path := range map[string]*string{"log-file": &cfg.LogFile, "source-dir": &cfg.SourceDir} {
		resolved, err := fsutil.ExpandPath(*path, home)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		*path = resolved
	}

	return nil
}
