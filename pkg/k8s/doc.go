// Package k8s builds Kubernetes clients from the kubeconfig kops exports and
// holds small helpers shared by the installer and the pipeline.
//
// For bounded waits on cluster state, see the [readiness] sub-package.
package k8s
