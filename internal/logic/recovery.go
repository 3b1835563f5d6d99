package logic

// DefaultFailureThreshold is the number of consecutive failed iterations
// that triggers a cold restart.
const DefaultFailureThreshold = 5

// FailureCounter tracks consecutive failed iterations.
type FailureCounter struct {
	threshold int
	count     int
}

// NewFailureCounter creates a counter that trips at threshold failures.
// A threshold below 1 falls back to DefaultFailureThreshold.
func NewFailureCounter(threshold int) *FailureCounter {
	if threshold < 1 {
		threshold = DefaultFailureThreshold
	}
	return &FailureCounter{threshold: threshold}
}

// Failure records a failed iteration. It returns the new count and whether
// the threshold has been reached.
func (f *FailureCounter) Failure() (int, bool) {
	f.count++
	return f.count, f.count >= f.threshold
}

// Success resets the count.
func (f *FailureCounter) Success() {
	f.count = 0
}

// Count returns the current number of consecutive failures.
func (f *FailureCounter) Count() int {
	return f.count
}

// Threshold returns the configured restart threshold.
func (f *FailureCounter) Threshold() int {
	return f.threshold
}
