package fallback

import "errors"

var (
	// ErrNoElement is the terminal error a subscriber receives when there
	// was no source to try, or every source failed.
	ErrNoElement = errors.New("fallback: no source produced an element")

	// ErrEngineGone marks signals that reached a trial after it had already
	// terminated or moved past the signalling source. Such signals are
	// dropped and logged with this error; they never reach the subscriber.
	ErrEngineGone = errors.New("fallback: signal arrived after trial teardown")

	errNilSource = errors.New("fallback: nil source")
)
