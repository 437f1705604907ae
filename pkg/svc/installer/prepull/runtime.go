package prepull

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidContainerRuntime is returned for an unknown container runtime.
var ErrInvalidContainerRuntime = errors.New("invalid container runtime")

// ContainerRuntime is the container runtime on the worker nodes.
type ContainerRuntime string

const (
	// RuntimeContainerd pulls with ctr in the host mount namespace.
	RuntimeContainerd ContainerRuntime = "containerd"
	// RuntimeDocker pulls through the mounted docker socket.
	RuntimeDocker ContainerRuntime = "docker"
)

// ValidContainerRuntimes returns every supported runtime.
func ValidContainerRuntimes() []ContainerRuntime {
	return []ContainerRuntime{RuntimeContainerd, RuntimeDocker}
}

// Set implements pflag.Value.
func (r *ContainerRuntime) Set(value string) error {
	for _, runtime := range ValidContainerRuntimes() {
		if strings.EqualFold(value, string(runtime)) {
			*r = runtime

			return nil
		}
	}

	return fmt.Errorf(
		"%w: %s (valid options: %s, %s)",
		ErrInvalidContainerRuntime,
		value,
		RuntimeContainerd,
		RuntimeDocker,
	)
}

// IsValid checks if the runtime is supported.
func (r *ContainerRuntime) IsValid() bool {
	return slices.Contains(ValidContainerRuntimes(), *r)
}

// String returns the string representation of the ContainerRuntime.
func (r *ContainerRuntime) String() string {
	return string(*r)
}

// Type returns the type of the ContainerRuntime.
func (r *ContainerRuntime) Type() string {
	return "ContainerRuntime"
}

// Default returns the default value for ContainerRuntime (containerd).
func (r *ContainerRuntime) Default() any {
	return RuntimeContainerd
}

// ValidValues returns all valid ContainerRuntime values as strings.
func (r *ContainerRuntime) ValidValues() []string {
	return []string{string(RuntimeContainerd), string(RuntimeDocker)}
}
