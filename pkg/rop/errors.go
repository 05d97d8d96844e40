package rop

import (
	"context"
	"errors"
)

// IsCancellationError reports whether err stems from a done context.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// ResultFromErr classifies err the way a consumer of a cancelled or failed
// stream would: context errors become cancellations, anything else a failure.
func ResultFromErr[T any](err error) Result[T] {
	if IsCancellationError(err) {
		return Cancel[T](err)
	}
	return Fail[T](err)
}
