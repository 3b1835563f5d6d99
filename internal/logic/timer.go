package logic

import "time"

// Timer is an instant-or-unset value. The zero value is Unset.
type Timer struct {
	at  time.Time
	set bool
}

// Unset returns a timer with no instant.
func Unset() Timer {
	return Timer{}
}

// At returns a timer set to t.
func At(t time.Time) Timer {
	return Timer{at: t, set: true}
}

// IsSet reports whether the timer holds an instant.
func (t Timer) IsSet() bool {
	return t.set
}

// Get returns the instant and whether it is set.
func (t Timer) Get() (time.Time, bool) {
	return t.at, t.set
}

// Since returns the time elapsed from the timer's instant to now.
// The second return value is false when the timer is unset.
func (t Timer) Since(now time.Time) (time.Duration, bool) {
	if !t.set {
		return 0, false
	}
	return now.Sub(t.at), true
}

// String formats the timer for logs.
func (t Timer) String() string {
	if !t.set {
		return "unset"
	}
	return t.at.UTC().Format(time.RFC3339)
}
