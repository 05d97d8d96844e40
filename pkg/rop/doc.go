// Package rop holds the Result type shared by the stream and fallback
// packages. A Result is what a blocking consumer ends up with once a
// single-value stream terminates.
//
// Key constructs:
// - Success/Empty/Fail/Cancel: construct Result[T]
// - IsSuccess/IsEmpty/IsFailure/IsCancel: inspect the terminal outcome
// - ResultFromErr: map an error to Fail or, for context errors, Cancel
package rop
