package executor

import (
	"fmt"
	"strconv"
)

// Status is the state of one command execution. It is a closed set: anything
// outside the five constants fails to decode.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	if s < StatusPending || s > StatusCancelled {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(strconv.Quote(s.String())), nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("status must be a string: %s", data)
	}
	switch str {
	case "pending":
		*s = StatusPending
	case "running":
		*s = StatusRunning
	case "success":
		*s = StatusSuccess
	case "failed":
		*s = StatusFailed
	case "cancelled":
		*s = StatusCancelled
	default:
		return fmt.Errorf("unknown status %q", str)
	}
	return nil
}
