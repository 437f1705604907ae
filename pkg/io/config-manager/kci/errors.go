package configmanager

import (
	"errors"
	"strings"
)

// ErrInvalidConfiguration is matched by every *ConfigurationError.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigurationError lists every missing or invalid setting at once.
type ConfigurationError struct {
	// Missing holds the flag names of required settings that were not given.
	Missing []string
	// Invalid holds one message per setting that failed validation.
	Invalid []string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	var parts []string

	if len(e.Missing) > 0 {
		flags := make([]string, 0, len(e.Missing))
		for _, name := range e.Missing {
			flags = append(flags, "--"+name)
		}

		parts = append(parts, "missing required configuration: "+strings.Join(flags, ", "))
	}

	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid configuration: "+strings.Join(e.Invalid, "; "))
	}

	if len(parts) == 0 {
		return ErrInvalidConfiguration.Error()
	}

	return strings.Join(parts, "; ")
}

// Is reports whether target is ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}
