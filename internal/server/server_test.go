package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"mashup/internal/acquire"
	"mashup/internal/delivery"
	"mashup/internal/jobs"
	"mashup/internal/logging"
	"mashup/internal/mashup"
	"mashup/internal/notifications"
	"mashup/internal/services"
	"mashup/internal/testsupport"
)

type fakeRunner struct {
	mu   sync.Mutex
	jobs []mashup.Job
	err  error
	used int
}

func (f *fakeRunner) Run(_ context.Context, job mashup.Job) (mashup.Result, error) {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()
	if f.err != nil {
		return mashup.Result{}, f.err
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return mashup.Result{}, err
	}
	if err := os.WriteFile(job.OutputPath, []byte("ID3fake"), 0o644); err != nil {
		return mashup.Result{}, err
	}
	used := job.ItemCount
	res := mashup.Result{OutputPath: job.OutputPath, ItemsUsed: used, Requested: job.ItemCount}
	if f.used > 0 && f.used < job.ItemCount {
		res.ItemsUsed = f.used
		res.Shortfall = &acquire.Shortfall{Requested: job.ItemCount, Actual: f.used}
	}
	return res, nil
}

type sentMessage struct {
	msg     delivery.Message
	entries []string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg delivery.Message) error {
	if f.err != nil {
		return f.err
	}
	reader, err := zip.OpenReader(msg.Attachment)
	if err != nil {
		return err
	}
	defer reader.Close()
	var names []string
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	f.sent = append(f.sent, sentMessage{msg: msg, entries: names})
	return nil
}

type fakeNotifier struct {
	completed []notifications.Completion
	failed    []string
}

func (f *fakeNotifier) NotifyMashupCompleted(_ context.Context, c notifications.Completion) error {
	f.completed = append(f.completed, c)
	return nil
}

func (f *fakeNotifier) NotifyMashupFailed(_ context.Context, artist string, _ error) error {
	f.failed = append(f.failed, artist)
	return nil
}

func (f *fakeNotifier) NotifyServerStarted(context.Context, string) error { return nil }
func (f *fakeNotifier) TestNotification(context.Context) error            { return nil }

type harness struct {
	srv      *Server
	runner   *fakeRunner
	sender   *fakeSender
	notifier *fakeNotifier
	store    *jobs.Store
	handler  http.Handler
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	h := &harness{
		runner:   &fakeRunner{},
		sender:   &fakeSender{},
		notifier: &fakeNotifier{},
		store:    testsupport.MustOpenStore(t, cfg),
	}
	srv, err := New(cfg, Dependencies{
		Runner:   h.runner,
		Sender:   h.sender,
		Notifier: h.notifier,
		Store:    h.store,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.srv = srv
	h.handler = srv.Handler()
	return h
}

func (h *harness) post(t *testing.T, path, body string, header ...string) (*httptest.ResponseRecorder, mashupResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	var resp mashupResponse
	if w.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v (%s)", err, w.Body.String())
		}
	}
	return w, resp
}

func TestNewRequiresRunnerAndSender(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := New(cfg, Dependencies{}, nil); err == nil {
		t.Fatal("expected error without runner and sender")
	}
}

func TestMashupSuccessDeliversAndCleansUp(t *testing.T) {
	h := newHarness(t)

	w, resp := h.post(t, "/mashup", `{"singer":"Sharry Maan","count":12,"duration":25,"email":"fan@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !resp.Success || resp.Message != "Mashup sent to your email!" {
		t.Fatalf("unexpected response %#v", resp)
	}

	if len(h.runner.jobs) != 1 {
		t.Fatalf("expected one run, got %d", len(h.runner.jobs))
	}
	job := h.runner.jobs[0]
	if job.Artist != "Sharry Maan" || job.ItemCount != 12 || job.ClipSeconds != 25 {
		t.Fatalf("unexpected job %#v", job)
	}
	if filepath.Base(job.OutputPath) != "Sharry_Maan_mashup.mp3" {
		t.Fatalf("unexpected output name %q", job.OutputPath)
	}

	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(h.sender.sent))
	}
	sent := h.sender.sent[0]
	if sent.msg.To != "fan@example.com" || filepath.Base(sent.msg.Attachment) != "Sharry_Maan_mashup.zip" {
		t.Fatalf("unexpected message %#v", sent.msg)
	}
	if len(sent.entries) != 1 || sent.entries[0] != "Sharry_Maan_mashup.mp3" {
		t.Fatalf("unexpected archive entries %v", sent.entries)
	}

	if _, err := os.Stat(filepath.Dir(job.OutputPath)); !os.IsNotExist(err) {
		t.Fatalf("expected request artifacts removed, stat err=%v", err)
	}

	stored, err := h.store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 1 || stored[0].Status != jobs.StatusCompleted || stored[0].RequestID != resp.RequestID {
		t.Fatalf("unexpected history %#v", stored)
	}
	if len(h.notifier.completed) != 1 || h.notifier.completed[0].Recipient != "fan@example.com" {
		t.Fatalf("unexpected notifications %#v", h.notifier.completed)
	}
}

func TestMashupAcceptsNumericStrings(t *testing.T) {
	h := newHarness(t)
	w, resp := h.post(t, "/api/mashup", `{"singer":"Artist","count":"11","duration":"21","email":"a@b.co"}`)
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected success, got %d %#v", w.Code, resp)
	}
}

func TestMashupValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bounds", `{"singer":"A","count":10,"duration":25,"email":"a@b.co"}`, "N must be > 10 and Y must be > 20."},
		{"duration bound", `{"singer":"A","count":12,"duration":20,"email":"a@b.co"}`, "N must be > 10 and Y must be > 20."},
		{"email", `{"singer":"A","count":12,"duration":25,"email":"not-an-email"}`, "Invalid email format."},
		{"singer", `{"singer":"  ","count":12,"duration":25,"email":"a@b.co"}`, "Singer name is required."},
		{"integers", `{"singer":"A","count":"many","duration":25,"email":"a@b.co"}`, "N and Y must be integers."},
		{"missing count", `{"singer":"A","duration":25,"email":"a@b.co"}`, "N and Y must be integers."},
		{"json", `{"singer":`, "Invalid JSON body."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			w, resp := h.post(t, "/mashup", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if resp.Success || resp.Error != tc.want {
				t.Fatalf("unexpected response %#v", resp)
			}
			if len(h.runner.jobs) != 0 {
				t.Fatal("pipeline must not run for invalid input")
			}
		})
	}
}

func TestMashupPipelineFailureReturns500(t *testing.T) {
	h := newHarness(t)
	h.runner.err = services.Wrap(services.ErrAcquisition, "acquire", "", "no items acquired", nil)

	w, resp := h.post(t, "/mashup", `{"singer":"Nobody","count":12,"duration":25,"email":"a@b.co"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if resp.Success || resp.Error != "acquire: no items acquired" {
		t.Fatalf("unexpected response %#v", resp)
	}
	if len(h.sender.sent) != 0 {
		t.Fatal("nothing should be mailed on failure")
	}
	stored, err := h.store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 1 || stored[0].Status != jobs.StatusFailed || stored[0].ErrorMessage != "acquire: no items acquired" {
		t.Fatalf("unexpected history %#v", stored)
	}
	if len(h.notifier.failed) != 1 {
		t.Fatalf("expected failure notification, got %d", len(h.notifier.failed))
	}
}

func TestMashupDeliveryFailureRemovesArtifacts(t *testing.T) {
	h := newHarness(t)
	h.sender.err = services.Wrap(services.ErrDelivery, "deliver", "smtp", "send to a@b.co", errors.New("connection refused"))

	w, _ := h.post(t, "/mashup", `{"singer":"Artist","count":12,"duration":25,"email":"a@b.co"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	outDir := filepath.Dir(h.runner.jobs[0].OutputPath)
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Fatalf("expected artifacts removed, stat err=%v", err)
	}
}

func TestMashupShortfallStillDelivers(t *testing.T) {
	h := newHarness(t)
	h.runner.used = 17

	w, resp := h.post(t, "/mashup", `{"singer":"Artist","count":20,"duration":25,"email":"a@b.co"}`)
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected success, got %d %#v", w.Code, resp)
	}
	stored, err := h.store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if stored[0].Shortfall == nil || stored[0].Shortfall.Actual != 17 || stored[0].ItemsUsed != 17 {
		t.Fatalf("expected shortfall recorded, got %#v", stored[0])
	}
}

func TestMashupRejectsGet(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/mashup", nil)
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestAuthRequiresBearerToken(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))
	body := `{"singer":"Artist","count":12,"duration":25,"email":"a@b.co"}`

	w, _ := h.post(t, "/api/mashup", body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	w, _ = h.post(t, "/api/mashup", body, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	w, _ = h.post(t, "/api/mashup", body, "Authorization", "Bearer secret")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	// The form on the index page posts here without credentials.
	w, _ = h.post(t, "/mashup", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected form route to stay public, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected /api/jobs to require the token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected index to stay public, got %d", rec.Code)
	}
}

func TestIndexServesForm(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`id="mashup"`)) {
		t.Fatalf("unexpected index response %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	w = httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestJobsEndpoints(t *testing.T) {
	h := newHarness(t)
	if w, _ := h.post(t, "/mashup", `{"singer":"Artist","count":12,"duration":25,"email":"a@b.co"}`); w.Code != http.StatusOK {
		t.Fatalf("seed request failed: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?status=completed", nil)
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].Artist != "Artist" {
		t.Fatalf("unexpected jobs %#v", list.Jobs)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs/"+strconv.FormatInt(list.Jobs[0].ID, 10), nil)
	w = httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var one JobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &one); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if one.Job == nil || one.Job.Status != jobs.StatusCompleted {
		t.Fatalf("unexpected job %#v", one.Job)
	}

	for path, code := range map[string]int{
		"/api/jobs/999":         http.StatusNotFound,
		"/api/jobs/abc":         http.StatusBadRequest,
		"/api/jobs?status=nope": http.StatusBadRequest,
	} {
		req = httptest.NewRequest(http.MethodGet, path, nil)
		w = httptest.NewRecorder()
		h.handler.ServeHTTP(w, req)
		if w.Code != code {
			t.Fatalf("%s: expected %d, got %d", path, code, w.Code)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	h := newHarness(t, testsupport.WithStubbedBinaries())
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.PID == 0 || status.JobsDBPath == "" {
		t.Fatalf("unexpected status %#v", status)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency report")
	}
	for _, dep := range status.Dependencies {
		if !dep.Available {
			t.Fatalf("expected stubbed %s to be available: %s", dep.Name, dep.Detail)
		}
	}
	if len(status.Checks) != 3 {
		t.Fatalf("expected 3 directory checks, got %d", len(status.Checks))
	}
}

func TestStartHoldsLockAndRecovers(t *testing.T) {
	h := newHarness(t)
	orphan := testsupport.NewJob(t, h.store, "orphan")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.srv.Stop()

	if h.srv.Addr() == "" {
		t.Fatal("expected listener address")
	}
	got, err := h.store.Get(context.Background(), orphan.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != jobs.StatusFailed {
		t.Fatalf("expected orphaned job failed, got %s", got.Status)
	}

	second, err := New(h.srv.cfg, Dependencies{Runner: h.runner, Sender: h.sender}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail on the lock")
	}

	resp, err := http.Get("http://" + h.srv.Addr() + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from live server, got %d", resp.StatusCode)
	}
}
