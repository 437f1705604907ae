// Package clustererrors provides common error types for cluster provisioners.
//
// This package defines sentinel errors shared across backends so the pipeline
// can handle them without importing a specific backend.
package clustererrors

import "errors"

var (
	// ErrClusterNotFound is returned when deleting a cluster that does not exist.
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrProviderNotSet is returned when a backend needs a cloud provider and has none.
	ErrProviderNotSet = errors.New("cloud provider is not set")

	// ErrInvalidDescriptor is returned when a cluster descriptor is missing required fields.
	ErrInvalidDescriptor = errors.New("invalid cluster descriptor")
)
