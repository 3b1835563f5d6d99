package sensor

import "sync"

// FakeSoil returns scripted raw readings. When the script is exhausted the
// last sample repeats.
type FakeSoil struct {
	mu      sync.Mutex
	Samples []int
	index   int

	// ReadError, if set, will be returned by ReadRaw()
	ReadError error
}

// NewFakeSoil creates a FakeSoil with the given samples.
func NewFakeSoil(samples ...int) *FakeSoil {
	return &FakeSoil{Samples: samples}
}

func (f *FakeSoil) ReadRaw() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, ErrNoSamples
	}
	v := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return v, nil
}

// FakeClimate returns a fixed measurement.
type FakeClimate struct {
	mu      sync.Mutex
	Climate Climate

	// ReadError, if set, will be returned by Read()
	ReadError error
	Closed    bool
}

// NewFakeClimate creates a FakeClimate reporting tempC and humidity.
func NewFakeClimate(tempC, humidity float64) *FakeClimate {
	return &FakeClimate{Climate: Climate{TemperatureC: tempC, HumidityPct: humidity}}
}

func (f *FakeClimate) Read() (Climate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return Climate{}, f.ReadError
	}
	return f.Climate, nil
}

// Set changes the reported measurement.
func (f *FakeClimate) Set(c Climate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Climate = c
}

func (f *FakeClimate) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
