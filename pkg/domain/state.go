package domain

// EpisodeStatus defines where a session is in its episode lifecycle.
type EpisodeStatus string

const (
	StatusIdle   EpisodeStatus = "idle"   // No successful reset yet
	StatusActive EpisodeStatus = "active" // Steps allowed
	StatusDone   EpisodeStatus = "done"   // Horizon reached
)

// SessionState is a read-only snapshot of a session, used by remote drivers.
type SessionState struct {
	ID        string        `json:"id"`
	Status    EpisodeStatus `json:"status"`
	Episode   int           `json:"episode"`
	Iteration int           `json:"iteration"`
	Horizon   int           `json:"horizon"`
	Sequence  []string      `json:"sequence"`
	Metrics   Metrics       `json:"metrics"`
	Records   Records       `json:"records"`
}

// StepResult is returned by a session step.
type StepResult struct {
	Observation    Observation `json:"observation"`
	Reward         float64     `json:"reward"`
	Done           bool        `json:"done"`
	Transformation string      `json:"transformation"`
	Metrics        Metrics     `json:"metrics"`
}
