// Package checkauth answers "who is the current user?" by calling a
// configurable session endpoint, holding the result, and broadcasting it to
// any number of consumers.
//
// Checking:
//   - Checker owns the check lifecycle. Every trigger (Start, Refresh, an
//     interval tick, or a request swap) starts a new cycle: the state enters
//     loading, the endpoint is called, and the cycle settles into either user
//     info or a structured error. Overlapping cycles are safe; the last cycle
//     started wins and stale completions are discarded.
//   - Request describes where and how the check is performed. Swapping the
//     request via SetRequest re-runs the check only when the request identity
//     actually changed, so re-applying the same configuration is free.
//
// Distribution:
//   - Distributor fans the checker state out to consumers. Each consumer
//     receives the current state plus a refresh trigger, late subscribers are
//     caught up immediately, and no delivery order is guaranteed between
//     consumers. Consumers may refresh or cancel from inside their callback.
//
// Verification:
//   - TokenVerifier is an optional hook for endpoints that answer with a
//     signed token instead of plain JSON. The provider/jwks package supplies a
//     JWKS-backed implementation with background key refresh.
package checkauth
