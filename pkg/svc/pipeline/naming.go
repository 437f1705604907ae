package pipeline

import (
	"fmt"
	"strings"

	"github.com/devantler-tech/kci/pkg/k8s"
	"github.com/devantler-tech/kci/pkg/svc/source"
	"github.com/google/go-containerregistry/pkg/name"
)

// DefaultRegistry is used when Config.Registry is empty.
const DefaultRegistry = "docker.io"

// ImageReference composes the image to publish. An empty repository becomes
// "<username>/<working copy name>" and an empty tag becomes the revision tag.
func ImageReference(cfg Config, rev source.Revision) (string, error) {
	registry := cfg.Registry
	if registry == "" {
		registry = DefaultRegistry
	}

	repository := cfg.ImageRepository
	if repository == "" {
		repository = k8s.SanitizeToDNSLabel(rev.Name())
		if cfg.Login.Username != "" {
			repository = strings.ToLower(cfg.Login.Username) + "/" + repository
		}
	}

	tag := cfg.ImageTag
	if tag == "" {
		tag = rev.Tag()
	}

	if tag == "" {
		return "", fmt.Errorf("%w: no tag given and no commit to derive one from", ErrInvalidImage)
	}

	ref := registry + "/" + repository + ":" + tag

	_, err := name.NewTag(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidImage, ref, err)
	}

	return ref, nil
}
