// Package provisioner groups the services that create infrastructure for a CI run.
//
// The cluster sub-package defines the ClusterProvisioner interface and the
// backend factory; each backend lives in its own sub-package.
package provisioner
