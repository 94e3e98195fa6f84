package webhook

import (
	"regexp"
	"strings"
)

var referenceKVRe = regexp.MustCompile(`(?i)(?:^|[\s,;])([a-zA-Z0-9_]+)=([a-zA-Z0-9-]+)`)

// ParseKeyFromReference extracts a key=value token from a provider reference
// string. It is intentionally tolerant because references can carry prefixes,
// punctuation, and operator-entered text.
//
// Example reference:
//
//	"engagement: milestone_id=abc-123 booking_id=def-456"
func ParseKeyFromReference(reference string, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	matches := referenceKVRe.FindAllStringSubmatch(reference, -1)
	for _, m := range matches {
		if len(m) != 3 {
			continue
		}
		if strings.EqualFold(m[1], key) {
			return m[2]
		}
	}
	return ""
}

// NormalizeEventType converts provider event names ("payment.succeeded",
// "payment-failed") into a stable internal form.
func NormalizeEventType(t string) string {
	s := strings.TrimSpace(strings.ToLower(t))
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}
