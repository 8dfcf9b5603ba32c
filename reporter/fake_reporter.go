package reporter

import "sync"

// FakeReporter records captured errors in memory, for tests and local runs.
type FakeReporter struct {
	mu       sync.Mutex
	captured []error
}

func (r *FakeReporter) Capture(err error, tags ...string) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captured = append(r.captured, err)
}

func (r *FakeReporter) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]error, len(r.captured))
	copy(res, r.captured)
	return res
}
