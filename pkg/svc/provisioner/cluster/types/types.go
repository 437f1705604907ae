// Package types provides shared types for cluster provisioner operations.
// These are separated to avoid import cycles between provisioner implementations
// and the main provisioner interface package.
//
//nolint:revive // package name "types" is intentionally generic for shared types
package types

import "time"

// Default cluster shape.
const (
	DefaultNodeCount        = 3
	DefaultZoneCount        = 3
	DefaultNodeSize         = "t3.medium"
	DefaultControlPlaneSize = "t3.medium"
	DefaultValidateTimeout  = 20 * time.Minute
	DefaultValidateInterval = 30 * time.Second
)

// Descriptor is everything a backend needs to create one cluster.
// Backends treat it as read-only.
type Descriptor struct {
	// Name is the cluster name. kops gossip clusters end in ".k8s.local".
	Name string
	// StateBucket holds the cluster tool's state.
	StateBucket string
	// Region is the cloud region.
	Region string
	// NodeCount is the number of worker nodes.
	NodeCount int
	// ZoneCount is how many availability zones the workers are spread over.
	ZoneCount int
	// NodeSize is the worker instance type.
	NodeSize string
	// ControlPlaneSize is the control-plane instance type.
	ControlPlaneSize string
	// KubernetesVersion pins the cluster version. Empty lets the tool choose.
	KubernetesVersion string
	// DNSZone switches from gossip to a hosted DNS zone when set.
	DNSZone string
	// SSHPublicKey is the public key path installed on the nodes.
	SSHPublicKey string
	// Kubeconfig is where the admin kubeconfig is exported.
	Kubeconfig string
	// ValidateTimeout bounds the wait for the cluster to validate.
	ValidateTimeout time.Duration
	// ValidateInterval is the delay between validation attempts.
	ValidateInterval time.Duration
	// Env is passed to every cluster tool invocation (KEY=VALUE).
	Env []string
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (d Descriptor) WithDefaults() Descriptor {
	if d.NodeCount <= 0 {
		d.NodeCount = DefaultNodeCount
	}

	if d.ZoneCount <= 0 {
		d.ZoneCount = DefaultZoneCount
	}

	if d.NodeSize == "" {
		d.NodeSize = DefaultNodeSize
	}

	if d.ControlPlaneSize == "" {
		d.ControlPlaneSize = DefaultControlPlaneSize
	}

	if d.ValidateTimeout <= 0 {
		d.ValidateTimeout = DefaultValidateTimeout
	}

	if d.ValidateInterval <= 0 {
		d.ValidateInterval = DefaultValidateInterval
	}

	if d.Env != nil {
		d.Env = append([]string(nil), d.Env...)
	}

	return d
}

// Cluster is a provisioned, validated cluster.
type Cluster struct {
	// Name is the cluster name.
	Name string
	// StateStore is the state location, e.g. "s3://kci-state-x".
	StateStore string
	// APIServer is the API server URL from the exported kubeconfig.
	APIServer string
	// Kubeconfig is the admin kubeconfig path.
	Kubeconfig string
	// Zones are the availability zones the cluster spans.
	Zones []string
	// Placement is the number of worker nodes per zone.
	Placement map[string]int
	// ValidatedIn is how long validation took.
	ValidatedIn time.Duration
}
