// Package runner executes external commands (kops, docker, test runners) and
// captures their output.
//
// Every invocation is recorded in the debug log with its full stdout and stderr
// regardless of outcome. A non-zero exit status is reported as an *ExecutionError
// carrying the exact captured bytes. Cancelling the context terminates the child
// process (SIGTERM, then SIGKILL after a grace period) so no external work keeps
// running after a caller has given up on it.
package runner
