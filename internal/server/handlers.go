package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"mashup/internal/delivery"
	"mashup/internal/deps"
	"mashup/internal/jobs"
	"mashup/internal/logging"
	"mashup/internal/mashup"
	"mashup/internal/notifications"
	"mashup/internal/preflight"
	"mashup/internal/services"
	"mashup/internal/textutil"
)

const (
	maxRequestBody  = 64 << 10
	successMessage  = "Mashup sent to your email!"
	invalidEmailMsg = "Invalid email format."
)

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+`)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleMashup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, mashupResponse{Error: "method not allowed"})
		return
	}

	req, msg := s.decodeMashupRequest(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, mashupResponse{Error: msg})
		return
	}

	requestID := uuid.NewString()
	ctx := services.WithRequestID(r.Context(), requestID)
	logger := logging.WithContext(ctx, s.logger).With(
		logging.String("artist", req.Singer),
		logging.Int("count", req.Count.Value),
		logging.Int("duration", req.Duration.Value),
	)

	jobID := s.recordCreate(ctx, requestID, req)
	if jobID != 0 {
		ctx = services.WithJobID(ctx, jobID)
		logger = logger.With(logging.Int64(logging.FieldJobID, jobID))
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.setActive(requestID)
	defer s.setActive("")

	logger.Info("mashup request accepted", logging.String("recipient", req.Email))
	s.recordRunning(ctx, jobID)

	res, err := s.process(ctx, requestID, req)
	if err != nil {
		message := services.Message(err)
		logging.ErrorWithContext(logger, "mashup request failed", "mashup_request_failed",
			logging.Error(err),
			logging.String("error_kind", string(services.KindOf(err))),
			logging.String(logging.FieldImpact, "requester receives no mashup"),
		)
		s.recordFailure(ctx, jobID, message)
		if notifyErr := s.notifier.NotifyMashupFailed(ctx, req.Singer, err); notifyErr != nil {
			logger.Debug("failure notification not sent", logging.Error(notifyErr))
		}
		writeJSON(w, http.StatusInternalServerError, mashupResponse{Error: message, RequestID: requestID})
		return
	}

	s.recordCompletion(ctx, jobID, res)
	if notifyErr := s.notifier.NotifyMashupCompleted(ctx, notifications.Completion{
		Artist:    req.Singer,
		ItemsUsed: res.ItemsUsed,
		Requested: res.Requested,
		Duration:  res.Duration,
		Recipient: req.Email,
	}); notifyErr != nil {
		logger.Debug("completion notification not sent", logging.Error(notifyErr))
	}
	logger.Info("mashup delivered",
		logging.Int("items_used", res.ItemsUsed),
		logging.Bool("shortfall", res.IsShortfall()),
	)
	writeJSON(w, http.StatusOK, mashupResponse{Success: true, Message: successMessage, RequestID: requestID})
}

// decodeMashupRequest returns the parsed request or a client-facing message.
func (s *Server) decodeMashupRequest(r *http.Request) (mashupRequest, string) {
	var req mashupRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := decoder.Decode(&req); err != nil {
		return req, "Invalid JSON body."
	}
	req.Singer = strings.TrimSpace(req.Singer)
	req.Email = strings.TrimSpace(req.Email)

	if req.Singer == "" {
		return req, "Singer name is required."
	}
	if !req.Count.Set || !req.Duration.Set || !req.Count.Valid || !req.Duration.Valid {
		return req, "N and Y must be integers."
	}
	if err := s.bounds.Validate(req.Count.Value, req.Duration.Value); err != nil {
		return req, fmt.Sprintf("N must be > %d and Y must be > %d.", s.bounds.MinItems, s.bounds.MinClipSeconds)
	}
	if !emailPattern.MatchString(req.Email) {
		return req, invalidEmailMsg
	}
	return req, ""
}

// process runs the pipeline into a per-request output directory, packages the
// result, and mails it. The directory is removed on every exit path.
func (s *Server) process(ctx context.Context, requestID string, req mashupRequest) (mashup.Result, error) {
	outDir := filepath.Join(s.cfg.Paths.OutputDir, requestID)
	defer func() {
		if err := os.RemoveAll(outDir); err != nil {
			logging.WarnWithContext(s.logger, "failed to remove request artifacts", "artifact_cleanup_failed",
				logging.String("path", outDir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}()

	stem := textutil.MashupFileStem(req.Singer)
	job := mashup.NewJob(req.Singer, req.Count.Value, req.Duration.Value, filepath.Join(outDir, stem))

	res, err := s.runner.Run(ctx, job)
	if err != nil {
		return mashup.Result{}, err
	}

	zipPath := delivery.ZipPathFor(res.OutputPath)
	if err := delivery.Package(res.OutputPath, zipPath); err != nil {
		return mashup.Result{}, err
	}
	if err := s.sender.Send(services.WithStage(ctx, "deliver"), delivery.Message{
		To:         req.Email,
		Artist:     req.Singer,
		Attachment: zipPath,
	}); err != nil {
		return mashup.Result{}, err
	}
	return res, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	s.stateMu.Lock()
	resp := StatusResponse{
		Running:       !s.startedAt.IsZero(),
		PID:           os.Getpid(),
		StartedAt:     s.startedAt,
		Bind:          s.Addr(),
		LockFilePath:  s.lockPath,
		ActiveRequest: s.activeRequest,
	}
	s.stateMu.Unlock()
	if s.store != nil {
		resp.JobsDBPath = s.store.Path()
	}

	for _, dep := range preflight.CheckSystemDeps(s.cfg) {
		resp.Dependencies = append(resp.Dependencies, dependencyStatus(dep))
	}
	for _, check := range preflight.RunAll(r.Context(), s.cfg) {
		resp.Checks = append(resp.Checks, CheckResult{Name: check.Name, Passed: check.Passed, Detail: check.Detail})
	}
	writeJSON(w, http.StatusOK, resp)
}

func dependencyStatus(dep deps.Status) DependencyStatus {
	return DependencyStatus{
		Name:        dep.Name,
		Command:     dep.Command,
		Description: dep.Description,
		Optional:    dep.Optional,
		Available:   dep.Available,
		Detail:      dep.Detail,
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, JobListResponse{Jobs: []*jobs.Job{}})
		return
	}

	query := r.URL.Query()
	var statuses []jobs.Status
	for _, value := range query["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := jobs.ParseStatus(trimmed)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown status %q", trimmed)})
			return
		}
		statuses = append(statuses, status)
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	list, err := s.store.List(r.Context(), limit, statuses...)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if list == nil {
		list = []*jobs.Job{}
	}
	writeJSON(w, http.StatusOK, JobListResponse{Jobs: list})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if s.store == nil || idStr == "" || strings.Contains(idStr, "/") {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}
	job, err := s.store.Get(r.Context(), id)
	if errors.Is(err, jobs.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, JobResponse{Job: job})
}
