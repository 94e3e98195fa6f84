package booking

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusDisputed, true},
		{StatusDisputed, StatusCompleted, true},
		{StatusDisputed, StatusCancelled, true},
		{StatusDisputed, StatusActive, false},
		{StatusCompleted, StatusActive, false},
		{StatusCompleted, StatusDisputed, false},
		{StatusCancelled, StatusCompleted, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusDisputed} {
		if Terminal(s) {
			t.Fatalf("%s must not be terminal", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !Terminal(s) {
			t.Fatalf("%s must be terminal", s)
		}
	}
}
