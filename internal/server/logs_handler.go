package server

import (
	"net/http"
	"strconv"

	"mashup/internal/logs"
)

const maxLogLines = 1000

// LogsResponse carries the tail of the server log file.
type LogsResponse struct {
	Path  string   `json:"path"`
	Lines []string `json:"lines"`
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	path := s.cfg.LogFilePath()
	if path == "" {
		writeJSON(w, http.StatusOK, LogsResponse{Lines: []string{}})
		return
	}

	query := r.URL.Query()
	limit := 200
	if raw := query.Get("lines"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lines must be a non-negative integer"})
			return
		}
		limit = min(parsed, maxLogLines)
	}
	filter := logs.Filter{RequestID: query.Get("request"), Level: query.Get("level")}
	if raw := query.Get("job"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "job must be a positive integer"})
			return
		}
		filter.JobID = id
	}

	lines, err := logs.NewReader(path).Last(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	lines = filter.Apply(lines)
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, LogsResponse{Path: path, Lines: lines})
}
