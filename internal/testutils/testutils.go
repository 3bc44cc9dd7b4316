// Package testutils provides testing utilities and helper functions
package testutils

import (
	"sync"
	"time"
)

// WaitTimeout waits for the WaitGroup with a timeout. It returns true if
// the group finished in time and false otherwise.
func WaitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// ErrorRecorder is a thread-safe collector for errors reported through a
// pool's ErrorHandler.
type ErrorRecorder struct {
	mu     sync.Mutex
	errors []error
}

// Record stores an error; usable directly as a types.ErrorHandler
func (r *ErrorRecorder) Record(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	return nil
}

// Errors returns a copy of the recorded errors
func (r *ErrorRecorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errors))
	copy(out, r.errors)
	return out
}

// Len returns the number of recorded errors
func (r *ErrorRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}
