// Package clusterprovisioner defines the cluster provisioning interface and the
// factory that maps a Backend to its implementation.
package clusterprovisioner
