// Package pipeline runs one end-to-end CI pass: credentials, image build and
// publish, cluster provisioning, image pre-pull, test-runner configuration and
// the optional test hand-off.
//
// Every resource the pass creates is tracked on the lifecycle.Lifecycle the
// caller passes in. The caller runs the cleanups, whether Run succeeded or not.
package pipeline
