package history

import "time"

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether the status marks a finished run.
func (s Status) Terminal() bool {
	return s != StatusRunning && s != ""
}

// Summary captures what a run touched on the host.
type Summary struct {
	Project   string `json:"project,omitempty"`
	MediaDir  string `json:"media_dir,omitempty"`
	Folder    string `json:"folder,omitempty"`
	Timeline  string `json:"timeline,omitempty"`
	ClipCount int    `json:"clip_count"`
	JobID     string `json:"job_id,omitempty"`
}

// Run is one ledger row.
type Run struct {
	ID           string    `json:"id"`
	Status       Status    `json:"status"`
	Summary      Summary   `json:"summary"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
}

// Duration returns the elapsed run time, or zero while the run is active.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
