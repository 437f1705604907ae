// Package cmd holds the kci root command.
//
// The root command loads configuration, opens the debug log and runs the
// pipeline with a cleanup lifecycle whose actions always run before it returns.
package cmd
