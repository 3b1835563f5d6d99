package telemetry

import (
	"context"
	"sync"
	"time"
)

// FakeUploader records uploads.
type FakeUploader struct {
	mu       sync.Mutex
	Samples  []Sample
	Runtimes []time.Duration

	// Err, if set, is returned by both methods after recording.
	Err error
}

func NewFakeUploader() *FakeUploader {
	return &FakeUploader{}
}

func (f *FakeUploader) Upload(ctx context.Context, s Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Samples = append(f.Samples, s)
	return f.Err
}

func (f *FakeUploader) UploadRuntime(ctx context.Context, runtime time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Runtimes = append(f.Runtimes, runtime)
	return f.Err
}

// Count returns the number of primary uploads.
func (f *FakeUploader) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Samples)
}
