package domain

import (
	"time"
)

// Outcome is the terminal state reached by one invocation before its envelope is returned.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
)

// InvocationRecord describes one completed dispatch.
type InvocationRecord struct {
	ID        string
	ToolName  string
	Outcome   Outcome
	IsError   bool
	Message   string
	Duration  time.Duration
	CreatedAt time.Time
}
