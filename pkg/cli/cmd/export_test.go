//nolint:gochecknoglobals // export_test.go pattern requires global variables to expose internal functions
package cmd

// RunCleanup exports runCleanup for testing.
var RunCleanup = runCleanup
