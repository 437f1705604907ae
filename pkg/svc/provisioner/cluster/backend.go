package clusterprovisioner

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnsupportedBackend is returned for an unknown provisioning backend.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// Backend selects how the test cluster is provisioned.
type Backend string

// BackendKopsAWS provisions a kops cluster on AWS with an S3 state store.
const BackendKopsAWS Backend = "kops-aws"

// ValidBackends returns every supported backend.
func ValidBackends() []Backend {
	return []Backend{BackendKopsAWS}
}

// ParseBackend parses a backend name case-insensitively.
func ParseBackend(value string) (Backend, error) {
	var backend Backend

	err := backend.Set(value)

	return backend, err
}

// Set implements pflag.Value.
func (b *Backend) Set(value string) error {
	for _, backend := range ValidBackends() {
		if strings.EqualFold(value, string(backend)) {
			*b = backend

			return nil
		}
	}

	return fmt.Errorf(
		"%w: %s (valid options: %s)",
		ErrUnsupportedBackend,
		value,
		strings.Join(b.ValidValues(), ", "),
	)
}

// IsValid checks if the backend is supported.
func (b *Backend) IsValid() bool {
	return slices.Contains(ValidBackends(), *b)
}

// String returns the string representation of the Backend.
func (b *Backend) String() string {
	return string(*b)
}

// Type returns the type of the Backend.
func (b *Backend) Type() string {
	return "Backend"
}

// Default returns the default value for Backend (kops-aws).
func (b *Backend) Default() any {
	return BackendKopsAWS
}

// ValidValues returns all valid Backend values as strings.
func (b *Backend) ValidValues() []string {
	values := make([]string, 0, len(ValidBackends()))

	for _, backend := range ValidBackends() {
		values = append(values, string(backend))
	}

	return values
}
