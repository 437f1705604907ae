// Package envvar expands environment variable placeholders in configuration values.
package envvar

import (
	"os"
	"regexp"
)

// pattern matches ${NAME} and ${NAME:-default}.
var pattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)(:-([^}]*))?\}`)

// Expand replaces ${NAME} with the value of NAME, and ${NAME:-default} with
// default when NAME is unset or empty. Unset variables without a default expand
// to the empty string. Anything else, including a bare $NAME, is left as is.
func Expand(value string) string {
	if value == "" {
		return value
	}

	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		groups := pattern.FindStringSubmatch(match)

		resolved := os.Getenv(groups[1])
		if resolved == "" && groups[2] != "" {
			return groups[3]
		}

		return resolved
	})
}
