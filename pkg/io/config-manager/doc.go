// Package configmanager defines the configuration loading contract.
// The kci subpackage implements it for the kci command line.
package configmanager
