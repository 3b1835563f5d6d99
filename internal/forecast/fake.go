package forecast

import (
	"context"
	"sync"
)

// FakeForecaster returns a fixed rain value.
type FakeForecaster struct {
	mu    sync.Mutex
	Rain  float64
	Calls int
}

func NewFakeForecaster(rain float64) *FakeForecaster {
	return &FakeForecaster{Rain: rain}
}

func (f *FakeForecaster) RainMM(ctx context.Context) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	return f.Rain
}
