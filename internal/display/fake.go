package display

import "sync"

// FakeDisplay records what was shown.
type FakeDisplay struct {
	mu    sync.Mutex
	Lines [][2]string

	// ShowError, if set, will be returned by Show()
	ShowError error
	Closed    bool
}

func NewFakeDisplay() *FakeDisplay {
	return &FakeDisplay{}
}

func (f *FakeDisplay) Show(line1, line2 string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ShowError != nil {
		return f.ShowError
	}
	f.Lines = append(f.Lines, [2]string{line1, line2})
	return nil
}

// Last returns the most recently shown lines.
func (f *FakeDisplay) Last() ([2]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Lines) == 0 {
		return [2]string{}, false
	}
	return f.Lines[len(f.Lines)-1], true
}

func (f *FakeDisplay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
