// Package configmanager loads kci's run configuration from flags, environment
// variables, an optional kci.yaml file and defaults, in decreasing precedence.
//
// Conventional variables are honored alongside the KCI_ prefixed ones:
// DOCKER_USERNAME, DOCKER_PASSWORD, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
// AWS_DEFAULT_REGION, AWS_REGION and HOME.
package configmanager
