package server

import (
	"context"

	"mashup/internal/jobs"
	"mashup/internal/logging"
	"mashup/internal/mashup"
)

// History writes are best effort: a broken jobs database must not block
// delivery.

func (s *Server) recordCreate(ctx context.Context, requestID string, req mashupRequest) int64 {
	if s.store == nil {
		return 0
	}
	job, err := s.store.Create(ctx, jobs.NewJob{
		RequestID:   requestID,
		Artist:      req.Singer,
		ItemCount:   req.Count.Value,
		ClipSeconds: req.Duration.Value,
		Email:       req.Email,
	})
	if err != nil {
		s.historyWarning(err, "create")
		return 0
	}
	return job.ID
}

func (s *Server) recordRunning(ctx context.Context, id int64) {
	if s.store == nil || id == 0 {
		return
	}
	if err := s.store.MarkRunning(ctx, id); err != nil {
		s.historyWarning(err, "mark running")
	}
}

func (s *Server) recordCompletion(ctx context.Context, id int64, res mashup.Result) {
	if s.store == nil || id == 0 {
		return
	}
	if err := s.store.Complete(context.WithoutCancel(ctx), id, jobs.Outcome{
		OutputPath: res.OutputPath,
		ItemsUsed:  res.ItemsUsed,
		Shortfall:  res.Shortfall,
	}); err != nil {
		s.historyWarning(err, "complete")
	}
}

func (s *Server) recordFailure(ctx context.Context, id int64, message string) {
	if s.store == nil || id == 0 {
		return
	}
	if err := s.store.Fail(context.WithoutCancel(ctx), id, message); err != nil {
		s.historyWarning(err, "fail")
	}
}

func (s *Server) historyWarning(err error, op string) {
	logging.WarnWithContext(s.logger, "job history update failed", "jobs_history_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the jobs database"),
		logging.String(logging.FieldImpact, "job missing from history"),
	)
}
