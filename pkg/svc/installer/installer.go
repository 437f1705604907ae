package installer

import "context"

// Installer defines methods for installing and uninstalling cluster components.
type Installer interface {
	// Install installs the component and blocks until it is in effect.
	Install(ctx context.Context) error

	// Uninstall removes everything Install created. Missing objects are not an error.
	Uninstall(ctx context.Context) error

	// Images returns the container images the component runs.
	Images(ctx context.Context) ([]string, error)
}
