package oci

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/devantler-tech/kci/pkg/client/netretry"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
)

// RegistryVerifier checks access to the registry kci pushes the application image to.
type RegistryVerifier interface {
	// VerifyAccess checks that the repository is reachable with the given credentials.
	// Returns nil if access is verified, or an actionable error if not.
	VerifyAccess(ctx context.Context, opts VerifyOptions) error

	// ImageDigest resolves a tag to its manifest digest.
	// Returns ErrImageNotFound when the tag does not exist.
	ImageDigest(ctx context.Context, image string, opts VerifyOptions) (string, error)
}

// VerifyOptions contains options for talking to the registry.
type VerifyOptions struct {
	// Repository is the image repository without tag, e.g. "docker.io/acme/app".
	Repository string
	// Username is the optional username for authentication.
	Username string
	// Password is the optional password/token for authentication.
	Password string
	// Insecure allows plain HTTP connections.
	Insecure bool
}

type verifier struct{}

// NewRegistryVerifier creates a new registry verifier backed by go-containerregistry.
func NewRegistryVerifier() RegistryVerifier {
	return &verifier{}
}

// VerifyAccess lists the repository's tags. A missing repository is fine since
// the first push creates it; authentication and permission failures are not.
func (v *verifier) VerifyAccess(ctx context.Context, opts VerifyOptions) error {
	if opts.Repository == "" {
		return ErrRepositoryRequired
	}

	repo, err := name.NewRepository(opts.Repository, nameOptions(opts.Insecure)...)
	if err != nil {
		return fmt.Errorf("parse repository reference: %w", err)
	}

	_, err = remote.List(repo, remoteOptions(ctx, opts)...)
	if err != nil {
		return classifyRegistryError(err)
	}

	return nil
}

// ImageDigest resolves image with a HEAD request.
func (v *verifier) ImageDigest(ctx context.Context, image string, opts VerifyOptions) (string, error) {
	ref, err := name.ParseReference(image, nameOptions(opts.Insecure)...)
	if err != nil {
		return "", fmt.Errorf("parse reference: %w", err)
	}

	desc, err := remote.Head(ref, remoteOptions(ctx, opts)...)
	if err != nil {
		if isNotFoundError(err) {
			return "", fmt.Errorf("%w: %s", ErrImageNotFound, image)
		}

		return "", classifyRegistryError(err)
	}

	return desc.Digest.String(), nil
}

func nameOptions(insecure bool) []name.Option {
	opts := []name.Option{name.WeakValidation}
	if insecure {
		opts = append(opts, name.Insecure)
	}

	return opts
}

// remoteOptions creates remote options with optional basic auth. Without
// explicit credentials the local docker keychain is used.
func remoteOptions(ctx context.Context, opts VerifyOptions) []remote.Option {
	remoteOpts := []remote.Option{
		remote.WithContext(ctx),
	}

	if opts.Username != "" || opts.Password != "" {
		return append(remoteOpts, remote.WithAuth(&authn.Basic{
			Username: opts.Username,
			Password: opts.Password,
		}))
	}

	return append(remoteOpts, remote.WithAuthFromKeychain(authn.DefaultKeychain))
}

// isNotFoundError checks if the error indicates the tag doesn't exist.
func isNotFoundError(err error) bool {
	var transportErr *transport.Error
	if errors.As(err, &transportErr) && transportErr.StatusCode == http.StatusNotFound {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "manifest unknown") ||
		strings.Contains(errStr, "name_unknown") ||
		strings.Contains(errStr, "name unknown")
}

// classifyRegistryError converts low-level registry errors to actionable errors.
// A nil return means the error is acceptable for a push (the repository does not exist yet).
func classifyRegistryError(err error) error {
	if err == nil {
		return nil
	}

	var transportErr *transport.Error
	if errors.As(err, &transportErr) {
		switch transportErr.StatusCode {
		case http.StatusUnauthorized:
			return ErrRegistryAuthRequired
		case http.StatusForbidden:
			return ErrRegistryPermissionDenied
		case http.StatusNotFound:
			return nil
		}
	}

	lowerErr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lowerErr, "unauthorized"),
		strings.Contains(lowerErr, "authentication required"):
		return ErrRegistryAuthRequired
	case strings.Contains(lowerErr, "denied"),
		strings.Contains(lowerErr, "forbidden"):
		return ErrRegistryPermissionDenied
	case strings.Contains(lowerErr, "no such host"),
		strings.Contains(lowerErr, "connection refused"),
		strings.Contains(lowerErr, "dial tcp"):
		return fmt.Errorf("%w: %w", ErrRegistryUnreachable, err)
	case strings.Contains(lowerErr, "name_unknown"),
		strings.Contains(lowerErr, "name unknown"):
		return nil
	default:
		return fmt.Errorf("registry access check failed: %w", err)
	}
}

// Registry verification retry constants.
const (
	verifyMaxRetries    = 3
	verifyRetryBaseWait = 500 * time.Millisecond
	verifyRetryMaxWait  = 5 * time.Second
)

// VerifyWithRetry runs verifier.VerifyAccess with a per-attempt timeout,
// retrying transient network errors with exponential backoff.
func VerifyWithRetry(
	ctx context.Context,
	verifier RegistryVerifier,
	opts VerifyOptions,
	timeout time.Duration,
) error {
	var lastErr error

	for attempt := 1; attempt <= verifyMaxRetries; attempt++ {
		verifyCtx, cancel := context.WithTimeout(ctx, timeout)

		err := verifier.VerifyAccess(verifyCtx, opts)
		cancel()

		if err == nil {
			return nil
		}

		lastErr = err

		if !netretry.IsRetryable(lastErr) || attempt == verifyMaxRetries {
			break
		}

		timer := time.NewTimer(netretry.ExponentialDelay(attempt, verifyRetryBaseWait, verifyRetryMaxWait))
		select {
		case <-ctx.Done():
			timer.Stop()

			return fmt.Errorf("registry access verification cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("registry access verification failed: %w", lastErr)
}
