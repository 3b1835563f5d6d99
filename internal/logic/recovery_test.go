package logic

import "testing"

func TestFailureCounterTripsAtThreshold(t *testing.T) {
	f := NewFailureCounter(5)

	for i := 1; i < 5; i++ {
		n, fatal := f.Failure()
		if n != i {
			t.Errorf("count: got %d, want %d", n, i)
		}
		if fatal {
			t.Fatalf("should not trip after %d failures", i)
		}
	}
	if n, fatal := f.Failure(); !fatal || n != 5 {
		t.Errorf("5th failure: got (%d, %v), want (5, true)", n, fatal)
	}
}

func TestFailureCounterSuccessResets(t *testing.T) {
	f := NewFailureCounter(3)
	f.Failure()
	f.Failure()
	f.Success()

	if f.Count() != 0 {
		t.Errorf("count after success: got %d, want 0", f.Count())
	}
	if _, fatal := f.Failure(); fatal {
		t.Error("should not trip after reset")
	}
}

func TestFailureCounterDefaultThreshold(t *testing.T) {
	if got := NewFailureCounter(0).Threshold(); got != DefaultFailureThreshold {
		t.Errorf("threshold: got %d, want %d", got, DefaultFailureThreshold)
	}
}
