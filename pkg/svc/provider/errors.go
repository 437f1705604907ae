package provider

import "errors"

// Common errors for provider operations.
var (
	// ErrProviderUnavailable is returned when the provider has no API client.
	ErrProviderUnavailable = errors.New("provider is not available")

	// ErrBucketNameRequired is returned when no state bucket name is given.
	ErrBucketNameRequired = errors.New("state bucket name is required")

	// ErrBucketTaken is returned when the bucket name is owned by another account.
	ErrBucketTaken = errors.New("state bucket name is already taken")
)
