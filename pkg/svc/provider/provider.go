package provider

import "context"

// StateStore describes the object storage bucket that holds cluster state.
type StateStore struct {
	// Bucket is the bucket name.
	Bucket string
	// Region is where the bucket lives.
	Region string
	// Created is false when the bucket already existed and belongs to the caller.
	// Only a bucket created by this run gets a cleanup action.
	Created bool
}

// URL returns the state store location in the form kops expects.
func (s StateStore) URL() string {
	return "s3://" + s.Bucket
}

// Provider defines the cloud APIs the cluster provisioner needs directly.
// Everything else about the cluster is done by the cluster tool itself.
type Provider interface {
	// Region returns the region all resources are created in.
	Region() string

	// CreateStateStore creates the state bucket, or adopts it when the caller already owns it.
	CreateStateStore(ctx context.Context, bucket string) (StateStore, error)

	// DeleteStateStore empties and deletes the state bucket. A missing bucket is not an error.
	DeleteStateStore(ctx context.Context, bucket string) error

	// ListZones returns the available zones of the region in provider order.
	ListZones(ctx context.Context) ([]string, error)
}
