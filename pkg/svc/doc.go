// Package svc holds kci's service layer: the steps of a CI run and the
// pipeline that sequences them.
//
// Subpackages:
//   - credentials: SSH, docker and AWS credential files under the home directory
//   - image: docker build and push of the application image
//   - installer: putting the image onto every worker node
//   - lifecycle: ordered cleanup of everything a run creates
//   - pipeline: the end-to-end CI pass
//   - provider: cloud APIs for state storage and zones
//   - provisioner: cluster creation and deletion per backend
//   - source: git working copy inspection
package svc
