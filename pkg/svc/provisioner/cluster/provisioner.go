package clusterprovisioner

import (
	"context"

	"github.com/devantler-tech/kci/pkg/svc/lifecycle"
	"github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/types"
)

// ClusterProvisioner creates and deletes disposable test clusters.
// Provisioners drive a cluster tool while delegating cloud resources to a provider.Provider.
type ClusterProvisioner interface {
	// Provision creates a cluster matching desc and blocks until it validates.
	// Every resource created along the way is tracked on lc, including on failure.
	Provision(ctx context.Context, desc types.Descriptor, lc *lifecycle.Lifecycle) (*types.Cluster, error)

	// Delete deletes the cluster described by desc.
	Delete(ctx context.Context, desc types.Descriptor) error
}
