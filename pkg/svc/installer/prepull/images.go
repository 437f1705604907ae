package prepull

import (
	_ "embed"

	"github.com/devantler-tech/kci/pkg/svc/image/parser"
)

// Embedded Dockerfile containing image references (updated by Dependabot).
//
//go:embed Dockerfile
var dockerfile string

// ContainerdHelperImage provides nsenter to reach the host's ctr.
func ContainerdHelperImage() string {
	return parser.MustImageFromDockerfile(dockerfile, `FROM\s+(busybox:[^\s]+)`, "busybox")
}

// DockerHelperImage runs the docker CLI against the node socket.
func DockerHelperImage() string {
	return parser.MustImageFromDockerfile(dockerfile, `FROM\s+(docker:[^\s]+)`, "docker cli")
}
