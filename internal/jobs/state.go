package jobs

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle position of a job.
type State string

const (
	// Discovered means an input exists and no status marker has been written.
	Discovered State = "discovered"
	Processing State = "processing"
	Completed  State = "completed"
	Failed     State = "failed"
)

// ParseState reads a status marker value.
func ParseState(s string) (State, error) {
	switch st := State(strings.ToLower(strings.TrimSpace(s))); st {
	case Processing, Completed, Failed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown job state %q", s)
	}
}

// CanTransition reports whether a job may move from s to next. Completed is
// final; Failed may only re-enter Processing for a retry.
func (s State) CanTransition(next State) bool {
	switch s {
	case Discovered:
		return next == Processing
	case Processing:
		return next == Completed || next == Failed || next == Processing
	case Failed:
		return next == Processing
	default:
		return false
	}
}

// Job is one upload and its processing lifecycle.
type Job struct {
	ID           string
	InputPath    string
	OutputDir    string
	State        State
	DiscoveredAt time.Time
	StartedAt    time.Time
	FinishedAt   time.Time
	// Attempts counts pipeline runs, including the current one.
	Attempts int
}
