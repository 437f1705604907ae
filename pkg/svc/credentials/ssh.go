package credentials

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/ssh"
)

// DefaultKeyBits is the RSA key size used for the node SSH key.
const DefaultKeyBits = 4096

const keyComment = "kci"

// EnsureSSHKeyPair makes sure the SSH key pair exists and returns the public key path.
//
// A missing public key is derived from an existing private key. The boolean
// reports whether any file was written.
func (m *Materializer) EnsureSSHKeyPair() (string, bool, error) {
	privExists, err := exists(m.paths.SSHPrivateKey)
	if err != nil {
		return "", false, err
	}

	pubExists, err := exists(m.paths.SSHPublicKey)
	if err != nil {
		return "", false, err
	}

	switch {
	case privExists && pubExists:
		m.debug(m.paths.SSHPrivateKey, false)

		return m.paths.SSHPublicKey, false, nil
	case pubExists:
		return "", false, fmt.Errorf("%w: %s", ErrOrphanPublicKey, m.paths.SSHPublicKey)
	case privExists:
		err = m.derivePublicKey()
		if err != nil {
			return "", false, err
		}

		m.debug(m.paths.SSHPublicKey, true)

		return m.paths.SSHPublicKey, true, nil
	}

	key, err := rsa.GenerateKey(rand.Reader, m.keyBits)
	if err != nil {
		return "", false, fmt.Errorf("generate rsa key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(key, keyComment)
	if err != nil {
		return "", false, fmt.Errorf("marshal private key: %w", err)
	}

	pub, err := ssh.NewPublicKey(&key.PublicKey)
	if err != nil {
		return "", false, fmt.Errorf("marshal public key: %w", err)
	}

	err = createExclusive(m.paths.SSHPrivateKey, fileMode, func(w io.Writer) error {
		return pem.Encode(w, block)
	})
	if err != nil {
		return "", false, err
	}

	err = writePublicKey(m.paths.SSHPublicKey, pub)
	if err != nil {
		return "", false, err
	}

	m.debug(m.paths.SSHPrivateKey, true)

	return m.paths.SSHPublicKey, true, nil
}

func (m *Materializer) derivePublicKey() error {
	data, err := os.ReadFile(m.paths.SSHPrivateKey)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return fmt.Errorf("parse private key %s: %w", m.paths.SSHPrivateKey, err)
	}

	return writePublicKey(m.paths.SSHPublicKey, signer.PublicKey())
}

func writePublicKey(path string, pub ssh.PublicKey) error {
	return createExclusive(path, pubMode, func(w io.Writer) error {
		_, err := w.Write(ssh.MarshalAuthorizedKey(pub))

		return err
	})
}
