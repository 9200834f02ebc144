package future

import (
	"sync"

	"github.com/vnykmshr/asyncflow/pkg/metrics"
)

// Signal is a broadcastable abort token. Any number of signals can be
// registered against a Future; firing any of them cancels the computation.
//
// Once fired a Signal never reverts. Listeners registered after the signal
// has fired are invoked synchronously, so a late registration can never miss
// the cancellation.
type Signal struct {
	mu        sync.Mutex
	fired     bool
	listeners []func()
	done      chan struct{}
}

// NewSignal creates an unfired Signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Fire aborts every computation attached to the signal. Firing an
// already-fired signal is a no-op.
func (s *Signal) Fire() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	listeners := s.listeners
	s.listeners = nil
	close(s.done)
	s.mu.Unlock()

	metrics.DefaultRegistry.SignalsFired.Inc()

	for _, fn := range listeners {
		fn()
	}
}

// Fired returns true once the signal has been fired.
func (s *Signal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// OnAbort registers a one-shot listener invoked when the signal fires.
// If the signal has already fired, fn runs synchronously before OnAbort
// returns.
func (s *Signal) OnAbort(fn func()) {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		fn()
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Done returns a channel closed when the signal fires, for select-based
// consumers.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}
