package parser

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrImageNotDeclared is returned when no FROM line matches the pattern.
var ErrImageNotDeclared = errors.New("image not declared in dockerfile")

// minMatchCount is the full match plus one capture group.
const minMatchCount = 2

// ImageFromDockerfile returns the first capture group of pattern in dockerfile.
func ImageFromDockerfile(dockerfile, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("compile pattern %q: %w", pattern, err)
	}

	matches := re.FindStringSubmatch(dockerfile)
	if len(matches) < minMatchCount || matches[1] == "" {
		return "", fmt.Errorf("%w: %s", ErrImageNotDeclared, pattern)
	}

	return matches[1], nil
}

// MustImageFromDockerfile is ImageFromDockerfile for embedded Dockerfiles.
// It panics so a broken embed fails at first use instead of deploying an empty image.
func MustImageFromDockerfile(dockerfile, pattern, imageName string) string {
	image, err := ImageFromDockerfile(dockerfile, pattern)
	if err != nil {
		panic(fmt.Sprintf("failed to read %s image from embedded Dockerfile: %v", imageName, err))
	}

	return image
}
