package server

import (
	"context"
	"strconv"
	"strings"
	"time"

	"mashup/internal/jobs"
	"mashup/internal/mashup"
)

// Runner executes one mashup job; *mashup.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, job mashup.Job) (mashup.Result, error)
}

// JobStore is the subset of *jobs.Store the server records history with.
type JobStore interface {
	Create(ctx context.Context, in jobs.NewJob) (*jobs.Job, error)
	MarkRunning(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64, out jobs.Outcome) error
	Fail(ctx context.Context, id int64, message string) error
	Get(ctx context.Context, id int64) (*jobs.Job, error)
	List(ctx context.Context, limit int, statuses ...jobs.Status) ([]*jobs.Job, error)
	FailInterrupted(ctx context.Context) (int64, error)
	Path() string
}

// mashupRequest is the body accepted by POST /mashup.
type mashupRequest struct {
	Singer   string      `json:"singer"`
	Count    flexibleInt `json:"count"`
	Duration flexibleInt `json:"duration"`
	Email    string      `json:"email"`
}

// flexibleInt accepts a JSON number or a numeric string.
type flexibleInt struct {
	Value int
	Set   bool
	Valid bool
}

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	f.Set = raw != "" && raw != "null"
	if !f.Set {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		f.Valid = false
		return nil
	}
	f.Value = n
	f.Valid = true
	return nil
}

type mashupResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// DependencyStatus mirrors deps.Status for JSON output.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors preflight.Result for JSON output.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	StartedAt     time.Time          `json:"started_at"`
	Bind          string             `json:"bind"`
	LockFilePath  string             `json:"lock_file_path"`
	JobsDBPath    string             `json:"jobs_db_path,omitempty"`
	ActiveRequest string             `json:"active_request,omitempty"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Checks        []CheckResult      `json:"checks"`
}

// JobListResponse is returned by GET /api/jobs.
type JobListResponse struct {
	Jobs []*jobs.Job `json:"jobs"`
}

// JobResponse is returned by GET /api/jobs/{id}.
type JobResponse struct {
	Job *jobs.Job `json:"job"`
}
