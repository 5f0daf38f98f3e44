package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventReset     EventType = "reset"
	EventStep      EventType = "step"
	EventRunStart  EventType = "run_start"
	EventRunFinish EventType = "run_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Session   string    `json:"session"`
	Episode   int       `json:"episode"`
	Iteration int       `json:"iteration"`
}

// RunEvent represents one external tool invocation.
type RunEvent struct {
	EventBase
	Sequence []string      `json:"sequence,omitempty"`
	Metrics  Metrics       `json:"metrics"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// StepEvent represents a completed reset or step.
type StepEvent struct {
	EventBase
	Transformation string  `json:"transformation"`
	Reward         float64 `json:"reward"`
	Done           bool    `json:"done"`
	Metrics        Metrics `json:"metrics"`
	Records        Records `json:"records"`
}

// LifecycleHooks defines callbacks for session observability.
type LifecycleHooks struct {
	OnRunStart  func(context.Context, *RunEvent)
	OnRunFinish func(context.Context, *RunEvent)
	OnReset     func(context.Context, *StepEvent)
	OnStep      func(context.Context, *StepEvent)
}
