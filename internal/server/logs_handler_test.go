package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestLogsEndpointFiltersTail(t *testing.T) {
	h := newHarness(t)
	path := h.srv.cfg.LogFilePath()
	if err := os.MkdirAll(h.srv.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	content := "INFO request accepted correlation_id=req-1\nINFO request accepted correlation_id=req-2\nERROR pipeline failed correlation_id=req-2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/logs?request=req-2", nil)
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp LogsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if resp.Path != path || len(resp.Lines) != 2 {
		t.Fatalf("unexpected response %#v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/logs?lines=1", nil)
	w = httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	resp = LogsResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(resp.Lines) != 1 || resp.Lines[0] != "ERROR pipeline failed correlation_id=req-2" {
		t.Fatalf("unexpected tail %#v", resp.Lines)
	}

	for _, target := range []string{"/api/logs?lines=x", "/api/logs?job=-1"} {
		req = httptest.NewRequest(http.MethodGet, target, nil)
		w = httptest.NewRecorder()
		h.handler.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}
}
