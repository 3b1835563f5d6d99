package gpio

import "sync"

// FakeRelay is a test double that records every drive of the relay.
type FakeRelay struct {
	mu sync.Mutex

	// Writes records each value passed to Set, in order.
	Writes []bool

	// on is the last successfully driven state.
	on bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeRelay creates a released FakeRelay.
func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

// Set records the write and updates the state unless SetError is set.
func (f *FakeRelay) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = append(f.Writes, on)
	if f.SetError != nil {
		return f.SetError
	}
	f.on = on
	return nil
}

// On returns the last successfully driven state.
func (f *FakeRelay) On() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// Close releases the relay and marks it closed.
func (f *FakeRelay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = false
	f.Closed = true
	return nil
}
