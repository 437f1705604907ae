// Package readiness bounds every wait kci performs on external state.
//
// WaitFor polls a predicate at a fixed interval under a hard deadline and
// returns the elapsed time on success. A predicate that hangs is still cut off
// at the deadline. Predicate errors wrapped with NotReady are retried; any other
// error aborts the wait.
//
// WaitForAPIServerReady and WaitForNodeReady build on WaitFor for client-go.
package readiness
