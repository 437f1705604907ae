package oci

import "errors"

// Registry verification errors.
var (
	// ErrRegistryUnreachable is returned when the registry cannot be reached.
	ErrRegistryUnreachable = errors.New("registry is unreachable")
	// ErrRegistryAuthRequired is returned when authentication is required but not provided.
	ErrRegistryAuthRequired = errors.New(
		"registry requires authentication\n" +
			"  - pass --registry-username and --registry-password",
	)
	// ErrRegistryPermissionDenied is returned when credentials are invalid or lack write access.
	ErrRegistryPermissionDenied = errors.New(
		"registry access denied\n" +
			"  - check credentials have write permission to the repository",
	)
	// ErrRepositoryRequired indicates that the image repository is missing.
	ErrRepositoryRequired = errors.New("image repository is required")
	// ErrImageNotFound is returned when a pushed tag cannot be resolved in the registry.
	ErrImageNotFound = errors.New("image not found in registry")
)
