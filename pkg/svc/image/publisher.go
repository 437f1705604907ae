package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/devantler-tech/kci/pkg/client/oci"
	"github.com/devantler-tech/kci/pkg/cmd/runner"
	"github.com/devantler-tech/kci/pkg/svc/credentials"
	dockerimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/sirupsen/logrus"
)

// DefaultVerifyTimeout bounds each registry access check.
const DefaultVerifyTimeout = 30 * time.Second

// revisionLabel is the OCI annotation for the source commit.
const revisionLabel = "org.opencontainers.image.revision"

var (
	// ErrImageRequired is returned when no image reference is given.
	ErrImageRequired = errors.New("image reference is required")
	// ErrContextDirRequired is returned when no build context is given.
	ErrContextDirRequired = errors.New("build context directory is required")
)

// DockerAPI is the subset of the Docker engine client the publisher uses.
type DockerAPI interface {
	RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)
	ImagePush(ctx context.Context, ref string, options dockerimage.PushOptions) (io.ReadCloser, error)
}

// Request describes one build-and-push.
type Request struct {
	// ContextDir is the docker build context.
	ContextDir string
	// Dockerfile is relative to ContextDir. Empty means "Dockerfile".
	Dockerfile string
	// Image is the full reference to build and push, e.g. "docker.io/acme/app:abc1234".
	Image string
	// Revision is recorded as an image label when set.
	Revision string
	// Login authenticates the push.
	Login credentials.RegistryLogin
}

// Result is a published image.
type Result struct {
	// Reference is the normalized image reference.
	Reference string
	// Digest is the manifest digest the registry reported, when known.
	Digest string
}

// Publisher builds images with the docker CLI and pushes them through the engine API.
type Publisher struct {
	runner   runner.Runner
	docker   DockerAPI
	verifier oci.RegistryVerifier
	logger   logrus.FieldLogger
}

// NewPublisher creates a Publisher. A nil verifier skips the registry checks.
func NewPublisher(
	cmdRunner runner.Runner,
	docker DockerAPI,
	verifier oci.RegistryVerifier,
	logger logrus.FieldLogger,
) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Publisher{runner: cmdRunner, docker: docker, verifier: verifier, logger: logger}
}

// Publish verifies registry access, builds the image and pushes it.
func (p *Publisher) Publish(ctx context.Context, req Request) (Result, error) {
	if req.Image == "" {
		return Result{}, ErrImageRequired
	}

	if req.ContextDir == "" {
		return Result{}, ErrContextDirRequired
	}

	ref, err := name.ParseReference(req.Image, name.WeakValidation)
	if err != nil {
		return Result{}, fmt.Errorf("parse image reference %q: %w", req.Image, err)
	}

	verifyOpts := oci.VerifyOptions{
		Repository: ref.Context().Name(),
		Username:   req.Login.Username,
		Password:   req.Login.Password,
	}

	if p.verifier != nil {
		err = oci.VerifyWithRetry(ctx, p.verifier, verifyOpts, DefaultVerifyTimeout)
		if err != nil {
			return Result{}, err
		}
	}

	err = p.build(ctx, req)
	if err != nil {
		return Result{}, err
	}

	digest, err := p.push(ctx, req)
	if err != nil {
		return Result{}, err
	}

	if digest == "" && p.verifier != nil {
		digest, err = p.verifier.ImageDigest(ctx, ref.Name(), verifyOpts)
		if err != nil {
			return Result{}, fmt.Errorf("resolve pushed image: %w", err)
		}
	}

	p.logger.WithFields(logrus.Fields{"image": ref.Name(), "digest": digest}).Debug("image published")

	return Result{Reference: ref.Name(), Digest: digest}, nil
}

func (p *Publisher) build(ctx context.Context, req Request) error {
	dockerfile := req.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	args := []string{"docker", "build", "--tag", req.Image, "--file", filepath.Join(req.ContextDir, dockerfile)}
	if req.Revision != "" {
		args = append(args, "--label", revisionLabel+"="+req.Revision)
	}

	args = append(args, req.ContextDir)

	_, err := p.runner.Run(ctx, runner.Invocation{Args: args})
	if err != nil {
		return fmt.Errorf("build image %s: %w", req.Image, err)
	}

	return nil
}

func (p *Publisher) push(ctx context.Context, req Request) (string, error) {
	auth := registry.AuthConfig{
		Username:      req.Login.Username,
		Password:      req.Login.Password,
		ServerAddress: req.Login.AuthKey(),
	}

	_, err := p.docker.RegistryLogin(ctx, auth)
	if err != nil {
		return "", fmt.Errorf("registry login %s: %w", auth.ServerAddress, err)
	}

	encoded, err := registry.EncodeAuthConfig(auth)
	if err != nil {
		return "", fmt.Errorf("encode registry auth: %w", err)
	}

	stream, err := p.docker.ImagePush(ctx, req.Image, dockerimage.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return "", fmt.Errorf("push image %s: %w", req.Image, err)
	}

	defer func() { _ = stream.Close() }()

	var digest string

	logWriter := debugWriter(p.logger)
	defer func() { _ = logWriter.Close() }()

	err = jsonmessage.DisplayJSONMessagesStream(stream, logWriter, 0, false, func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}

		var aux struct {
			Digest string `json:"Digest"`
		}

		if json.Unmarshal(*msg.Aux, &aux) == nil && aux.Digest != "" {
			digest = aux.Digest
		}
	})
	if err != nil {
		return "", fmt.Errorf("push image %s: %w", req.Image, err)
	}

	return digest, nil
}

// debugWriter returns a writer that logs each line at debug level.
func debugWriter(logger logrus.FieldLogger) *io.PipeWriter {
	if l, ok := logger.(interface {
		WriterLevel(level logrus.Level) *io.PipeWriter
	}); ok {
		return l.WriterLevel(logrus.DebugLevel)
	}

	return logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
}
