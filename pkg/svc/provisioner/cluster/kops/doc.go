// Package kopsprovisioner creates and deletes Kubernetes clusters on AWS with the kops CLI.
//
// The provisioner creates the S3 state bucket through the AWS SDK, drives kops
// through the command runner, and waits for "kops validate cluster" to pass.
// Every resource it creates is handed to a lifecycle.Lifecycle for teardown.
package kopsprovisioner
