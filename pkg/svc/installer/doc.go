// Package installer defines the Installer interface for components that kci puts
// on a freshly provisioned cluster, and the shared install timeout rules.
//
// The prepull subpackage places the image under test on every worker node.
package installer
