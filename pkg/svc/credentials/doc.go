// Package credentials writes the ephemeral credential files the external tools
// expect under the CI home directory: an SSH key pair for the cluster nodes,
// a docker login file and the AWS shared credentials and config files.
//
// Every file is created only when it is absent. Existing files are never
// rewritten, so a developer running kci on their workstation keeps their own setup.
package credentials
