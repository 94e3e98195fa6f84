package application

import "fmt"

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusAccepted, StatusRejected, StatusWithdrawn:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:   {StatusAccepted: true, StatusRejected: true, StatusWithdrawn: true},
	StatusAccepted:  {}, // accepted applications leave the machine via booking creation
	StatusRejected:  {},
	StatusWithdrawn: {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// Terminal reports whether the status admits no further transitions. Exactly
// one non-terminal application per (job, worker) may exist at a time.
func Terminal(s Status) bool {
	return len(allowedTransitions[s]) == 0
}
