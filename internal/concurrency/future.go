package concurrency

import (
	"context"
	"sync"
)

// Future is the handle to a submitted process.
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.RWMutex
	result *ProcessResult
}

func newFuture(cancel context.CancelFunc) *Future {
	return &Future{done: make(chan struct{}), cancel: cancel}
}

func (f *Future) complete(r *ProcessResult) {
	f.mu.Lock()
	f.result = r
	f.mu.Unlock()
	close(f.done)
}

// Done is closed once every launched task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the result if the process has completed.
func (f *Future) Result() (*ProcessResult, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.result, f.result != nil
}

// Wait blocks until the process completes or ctx ends. The error is the
// process error, or ctx's error if ctx ended first. Ending ctx does not
// cancel the process.
func (f *Future) Wait(ctx context.Context) (*ProcessResult, error) {
	select {
	case <-f.done:
		r, _ := f.Result()
		return r, r.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel stops further waves from launching and cancels the context of
// running tasks. The future still completes only after they return.
func (f *Future) Cancel() {
	f.cancel()
}
