// Package oci talks to OCI registries directly: it checks push access before an
// image is built and resolves pushed tags to digests afterwards.
package oci
