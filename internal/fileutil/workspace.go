package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/idelchi/kirmah/internal/kerrors"
)

// Workspace is a private directory holding the temporary artifacts of one
// pipeline invocation. Remove deletes all of them.
type Workspace struct {
	dir string

	mu  sync.Mutex
	seq int
}

// NewWorkspace creates a workspace directory under parent.
func NewWorkspace(parent string) (*Workspace, error) {
	if parent == "" {
		parent = os.TempDir()
	}

	if err := ensureDir(parent); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(parent, ".kirmah-*")
	if err != nil {
		return nil, kerrors.IO("creating workspace", parent, err)
	}

	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns a fresh artifact path tagged with name. Safe for concurrent use.
func (w *Workspace) Path(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++

	return filepath.Join(w.dir, fmt.Sprintf("%03d-%s", w.seq, name))
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() error {
	return kerrors.IO("removing workspace", w.dir, os.RemoveAll(w.dir))
}
