package jobs

import (
	"time"

	"mashup/internal/acquire"
)

// Status represents the lifecycle of a job record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ParseStatus maps a user supplied string onto a known status.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return Status(value), true
	}
	return "", false
}

// Job is one persisted mashup request.
type Job struct {
	ID           int64              `json:"id"`
	RequestID    string             `json:"request_id"`
	Artist       string             `json:"artist"`
	ItemCount    int                `json:"item_count"`
	ClipSeconds  int                `json:"clip_seconds"`
	Email        string             `json:"email,omitempty"`
	OutputPath   string             `json:"output_path,omitempty"`
	Status       Status             `json:"status"`
	ItemsUsed    int                `json:"items_used"`
	Shortfall    *acquire.Shortfall `json:"shortfall,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// IsTerminal reports whether the job can no longer change state.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// NewJob describes a request about to be recorded.
type NewJob struct {
	RequestID   string
	Artist      string
	ItemCount   int
	ClipSeconds int
	Email       string
}

// Outcome is written when a job completes successfully.
type Outcome struct {
	OutputPath string
	ItemsUsed  int
	Shortfall  *acquire.Shortfall
}
