package credentials

import (
	"fmt"

	"github.com/docker/cli/cli/config/configfile"
	"github.com/docker/cli/cli/config/types"
)

// dockerHubAuthKey is the key docker uses for Docker Hub in config.json.
const dockerHubAuthKey = "https://index.docker.io/v1/"

// RegistryLogin is a username/password pair for one registry.
type RegistryLogin struct {
	Registry string
	Username string
	Password string
}

// AuthKey returns the config.json key docker uses for the registry.
func (l RegistryLogin) AuthKey() string {
	switch l.Registry {
	case "", "docker.io", "index.docker.io", "registry-1.docker.io":
		return dockerHubAuthKey
	default:
		return l.Registry
	}
}

// EnsureDockerConfig writes a docker config.json holding login if none exists.
// It reports whether the file was written.
func (m *Materializer) EnsureDockerConfig(login RegistryLogin) (bool, error) {
	if login.Username == "" || login.Password == "" {
		return false, ErrMissingRegistryCredentials
	}

	found, err := exists(m.paths.DockerConfig)
	if err != nil {
		return false, err
	}

	if found {
		m.debug(m.paths.DockerConfig, false)

		return false, nil
	}

	cfg := configfile.New(m.paths.DockerConfig)
	cfg.AuthConfigs[login.AuthKey()] = types.AuthConfig{
		Username:      login.Username,
		Password:      login.Password,
		ServerAddress: login.AuthKey(),
	}

	err = createExclusive(m.paths.DockerConfig, fileMode, cfg.SaveToWriter)
	if err != nil {
		return false, fmt.Errorf("write docker config: %w", err)
	}

	m.debug(m.paths.DockerConfig, true)

	return true, nil
}
