// Package client holds thin wrappers around third-party API clients that kci
// talks to directly instead of through an external binary.
//
//   - docker: Docker Engine API client construction
//   - netretry: classification of transient network and API errors
//   - oci: registry access checks and digest lookups
package client
