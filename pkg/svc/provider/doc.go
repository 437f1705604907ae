// Package provider defines the cloud API surface the cluster provisioner uses
// directly: the object storage bucket that holds cluster state and the list of
// availability zones.
//
// The aws sub-package implements it on the AWS SDK.
package provider
