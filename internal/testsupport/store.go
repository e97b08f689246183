package testsupport

import (
	"context"
		"testing"

	"github.com/google/uuid"

	"mashup/internal/config"
	"mashup/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob records a pending job for artist under a fresh request id.
func NewJob(t testing.TB, store *jobs.Store, artist string) *jobs.Job {
	t.Helper()

	job, err := store.Create(context.Background(), jobs.NewJob{
		RequestID:   uuid.NewString(),
		Artist:      artist,
		ItemCount:   12,
		ClipSeconds: 25,
		Email:       "fan@example.com",
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
