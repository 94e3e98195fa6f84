package application

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusWithdrawn, true},
		{StatusAccepted, StatusRejected, false},
		{StatusAccepted, StatusWithdrawn, false},
		{StatusRejected, StatusPending, false},
		{StatusWithdrawn, StatusAccepted, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if Terminal(StatusPending) {
		t.Fatalf("pending must not be terminal")
	}
	for _, s := range []Status{StatusAccepted, StatusRejected, StatusWithdrawn} {
		if !Terminal(s) {
			t.Fatalf("%s must be terminal", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("pending"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("open"); err == nil {
		t.Fatalf("expected error")
	}
}
