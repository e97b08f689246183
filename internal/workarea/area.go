package workarea

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefix starts every work area directory name.
const Prefix = "mashup-"

// Area is a scratch directory owned by one pipeline run.
type Area struct {
	path string

	mu       sync.Mutex
	released bool
}

// Create makes a fresh uuid-named directory under root. The directory must
// not already exist.
func Create(root string) (*Area, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("work area: root directory not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("work area: ensure root: %w", err)
	}
	path := filepath.Join(root, Prefix+uuid.NewString())
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("work area: create %s: %w", path, err)
	}
	return &Area{path: path}, nil
}

// Path returns the directory location.
func (a *Area) Path() string {
	if a == nil {
		return ""
	}
	return a.path
}

// Release removes the directory and everything in it. Calling Release more
// than once is a no-op.
func (a *Area) Release() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	if err := os.RemoveAll(a.path); err != nil {
		return fmt.Errorf("work area: release %s: %w", a.path, err)
	}
	a.released = true
	return nil
}

// Released reports whether Release has completed.
func (a *Area) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}
