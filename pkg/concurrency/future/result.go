package future

// Result pairs a produced value with the cancellation signal active at the
// stage that receives it. Continuations can watch or fire the signal to
// coordinate their own in-flight work; the envelope itself is read-only.
type Result[T any] struct {
	// Value is the value produced by the prior stage.
	Value T

	// Signal is the receiving stage's cancellation signal.
	Signal *Signal
}
