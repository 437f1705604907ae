// Package io holds kci's input handling.
//
// Subpackages:
//   - config-manager: the ConfigManager contract
//   - config-manager/kci: flag, environment and kci.yaml loading for the kci command
package io
