package credentials

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
	pubMode  = 0o644
)

var (
	// ErrHomeRequired is returned when no home directory is configured.
	ErrHomeRequired = errors.New("home directory is required")
	// ErrOrphanPublicKey is returned when the public key exists without its private key.
	ErrOrphanPublicKey = errors.New("ssh public key exists without a private key")
	// ErrMissingAWSCredentials is returned when the access key pair is incomplete.
	ErrMissingAWSCredentials = errors.New("aws access key id and secret access key are required")
	// ErrMissingRegistryCredentials is returned when the registry login is incomplete.
	ErrMissingRegistryCredentials = errors.New("registry username and password are required")
)

// Paths lists the files a Materializer manages.
type Paths struct {
	SSHPrivateKey  string
	SSHPublicKey   string
	DockerConfig   string
	AWSCredentials string
	AWSConfig      string
}

// PathsFor returns the credential file locations under home.
func PathsFor(home string) Paths {
	return Paths{
		SSHPrivateKey:  filepath.Join(home, ".ssh", "kci_rsa"),
		SSHPublicKey:   filepath.Join(home, ".ssh", "kci_rsa.pub"),
		DockerConfig:   filepath.Join(home, ".docker", "config.json"),
		AWSCredentials: filepath.Join(home, ".aws", "credentials"),
		AWSConfig:      filepath.Join(home, ".aws", "config"),
	}
}

// Materializer creates credential files under a home directory.
type Materializer struct {
	paths   Paths
	keyBits int
	logger  logrus.FieldLogger
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithKeyBits overrides the RSA key size.
func WithKeyBits(bits int) Option {
	return func(m *Materializer) {
		m.keyBits = bits
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Materializer) {
		m.logger = logger
	}
}

// New creates a Materializer rooted at home.
func New(home string, opts ...Option) (*Materializer, error) {
	if home == "" {
		return nil, ErrHomeRequired
	}

	m := &Materializer{
		paths:   PathsFor(home),
		keyBits: DefaultKeyBits,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Paths returns the managed file locations.
func (m *Materializer) Paths() Paths {
	return m.paths
}

func (m *Materializer) debug(path string, created bool) {
	if m.logger == nil {
		return
	}

	m.logger.WithFields(logrus.Fields{"path": path, "created": created}).Debug("credential file")
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("stat %s: %w", path, err)
}

// createExclusive writes a new file and fails with fs.ErrExist if it is already present.
func createExclusive(path string, mode os.FileMode, write func(io.Writer) error) error {
	err := os.MkdirAll(filepath.Dir(path), dirMode)
	if err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	//nolint:gosec // path is derived from the configured home directory
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	writeErr := write(file)
	closeErr := file.Close()

	if writeErr != nil {
		_ = os.Remove(path)

		return fmt.Errorf("write %s: %w", path, writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	return nil
}
