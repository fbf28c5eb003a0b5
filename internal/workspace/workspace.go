package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitekicker/internal/logfields"
)

// ErrOutsideOutput is returned for a destination that resolves outside the
// output root.
var ErrOutsideOutput = errors.New("destination outside output directory")

const probeName = ".sitekicker-write-probe"

// Manager owns one output root.
type Manager struct {
	root string
}

// NewManager creates a manager for the output root dir.
func NewManager(dir string) *Manager {
	return &Manager{root: filepath.Clean(dir)}
}

// Prepare creates the output root when missing and verifies it is writable.
func (m *Manager) Prepare() error {
	info, err := os.Stat(m.root)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("output path %s is not a directory", m.root)
	case os.IsNotExist(err):
		if err := os.MkdirAll(m.root, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		slog.Info("Created output directory", logfields.Path(m.root))
	case err != nil:
		return fmt.Errorf("failed to stat output directory: %w", err)
	}

	probe := filepath.Join(m.root, probeName)
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", m.root, err)
	}
	return os.Remove(probe)
}

// Contains reports whether path lies inside the output root.
func (m *Manager) Contains(path string) bool {
	rel, err := filepath.Rel(m.root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// CopyFile copies src to dest, creating parent directories. dest must lie
// inside the output root.
func (m *Manager) CopyFile(src, dest string) error {
	if !m.Contains(dest) {
		return fmt.Errorf("%w: %s", ErrOutsideOutput, dest)
	}
	return CopyFile(src, dest)
}

// CopyTree copies the directory src to dest recursively, skipping hidden
// names. Existing files are overwritten.
func (m *Manager) CopyTree(src, dest string) (int, error) {
	if !m.Contains(dest) {
		return 0, fmt.Errorf("%w: %s", ErrOutsideOutput, dest)
	}
	copied := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != src && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := CopyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return copied, nil
}

// CopyFile copies the regular file src to dest, creating parent directories.
func CopyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	// #nosec G304 -- src is referenced by site content
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	// #nosec G304 -- dest is inside the output directory
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
