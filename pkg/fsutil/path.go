package fsutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrHomeUnknown is returned when a path starts with ~ and no home directory is known.
var ErrHomeUnknown = errors.New("cannot expand ~ without a home directory")

// ExpandPath expands a leading "~" or "~/" to home and makes the result absolute.
// An empty path stays empty.
func ExpandPath(path, home string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home == "" {
			return "", fmt.Errorf("%w: %s", ErrHomeUnknown, path)
		}

		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	return abs, nil
}
