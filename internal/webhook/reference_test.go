package webhook

import "testing"

func TestParseKeyFromReference(t *testing.T) {
	ref := "engagement: milestone_id=abc-123 booking_id=def-456"
	if got := ParseKeyFromReference(ref, "milestone_id"); got != "abc-123" {
		t.Fatalf("expected abc-123, got %q", got)
	}
	if got := ParseKeyFromReference(ref, "booking_id"); got != "def-456" {
		t.Fatalf("expected def-456, got %q", got)
	}
}

func TestParseKeyFromReference_ToleratesPunctuation(t *testing.T) {
	ref := "hello,milestone_id=zzz;booking_id=yyy other=xxx"
	if got := ParseKeyFromReference(ref, "milestone_id"); got != "zzz" {
		t.Fatalf("expected zzz, got %q", got)
	}
	if got := ParseKeyFromReference(ref, "missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestNormalizeEventType(t *testing.T) {
	cases := map[string]string{
		"payment.succeeded":  "payment_succeeded",
		"Payment-Failed":     "payment_failed",
		" payment/succeeded": "payment_succeeded",
		"payment__succeeded": "payment_succeeded",
	}
	for in, want := range cases {
		if got := NormalizeEventType(in); got != want {
			t.Fatalf("NormalizeEventType(%q) = %q, want %q", in, got, want)
		}
	}
}
