package autosave

import "testing"

func TestTransition(t *testing.T) {
	tests := []struct {
		from State
		on   Trigger
		want State
	}{
		{Idle, Changed, Pending},
		{Idle, TimerFired, Idle},
		{Idle, SaveSucceeded, Idle},
		{Pending, Changed, Pending},
		{Pending, Reverted, Idle},
		{Pending, TimerFired, Saving},
		{Saving, Changed, Saving},
		{Saving, TimerFired, Saving},
		{Saving, SaveSucceeded, Idle},
		{Saving, SaveSuperseded, Pending},
		{Saving, SaveFailed, Failed},
		{Failed, Changed, Pending},
		{Failed, Reverted, Idle},
		{Failed, TimerFired, Saving},
		{Idle, CloseRequested, Closed},
		{Saving, CloseRequested, Closed},
		{Closed, Changed, Closed},
		{Closed, SaveSucceeded, Closed},
	}
	for _, tt := range tests {
		if got := Transition(tt.from, tt.on); got != tt.want {
			t.Errorf("Transition(%v, %d) = %v, want %v", tt.from, tt.on, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if Saving.String() != "saving" {
		t.Errorf("Saving.String() = %q", Saving.String())
	}
	if State(42).String() != "unknown" {
		t.Errorf("out of range state = %q", State(42).String())
	}
	b, _ := Failed.MarshalText()
	if string(b) != "failed" {
		t.Errorf("MarshalText = %q", b)
	}
}
