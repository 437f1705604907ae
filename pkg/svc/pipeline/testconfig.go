package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// TestConfig is the file the external test runner reads.
type TestConfig struct {
	SourceDir   string      `json:"sourceDir"`
	Kubeconfig  string      `json:"kubeconfig"`
	Image       string      `json:"image"`
	Digest      string      `json:"digest,omitempty"`
	TargetImage string      `json:"targetImage"`
	Revision    string      `json:"revision,omitempty"`
	Cluster     ClusterInfo `json:"cluster"`
}

// ClusterInfo describes the provisioned cluster in TestConfig.
type ClusterInfo struct {
	Name       string   `json:"name"`
	APIServer  string   `json:"apiServer"`
	StateStore string   `json:"stateStore"`
	Zones      []string `json:"zones,omitempty"`
}

// WriteTestConfig writes cfg as YAML, replacing any previous file.
func WriteTestConfig(path string, cfg TestConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal test config: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("write test config: %w", err)
	}

	return nil
}

// ReadTestConfig loads a file written by WriteTestConfig.
func ReadTestConfig(path string) (TestConfig, error) {
	var cfg TestConfig

	data, err := os.ReadFile(path) //nolint:gosec // path is kci's own state file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("test config %s does not exist: %w", path, err)
		}

		return cfg, fmt.Errorf("read test config: %w", err)
	}

	err = yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse test config: %w", err)
	}

	return cfg, nil
}
