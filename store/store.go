// Package store manages the stage file areas of the capture pipeline.
//
// Every stage reads its input from one area and writes its output to the
// next; stage transitions are signalled purely by artifact presence in
// these directories. Output artifacts are created with O_EXCL so two
// racing invocations for the same unit of work cannot both win.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Areas holds the five directories the pipeline works across.
type Areas struct {
	Files   string // incoming multi-page PDFs
	Pages   string // single-page PDFs produced by the splitter
	Results string // extracted chunk tables, one per page
	Tables  string // generated invoice tables, one per page
	Source  string // archived originals, moved here after a split
}

// All returns every area directory in pipeline order.
func (a Areas) All() []string {
	return []string{a.Files, a.Pages, a.Results, a.Tables, a.Source}
}

// EnsureDirs creates every area directory. Call once at boot.
func (a Areas) EnsureDirs() error {
	for _, dir := range a.All() {
		if dir == "" {
			return fmt.Errorf("storage area path is empty")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create area %s: %w", dir, err)
		}
	}
	return nil
}

// Resolve joins a user-supplied filename onto an area directory,
// rejecting anything that could escape it.
func Resolve(dir, filename string) (string, error) {
	if filename == "" {
		return "", &ValidationError{Name: "filename"}
	}
	if strings.ContainsAny(filename, `/\`) || filename != filepath.Base(filename) || filename == ".." {
		return "", fmt.Errorf("invalid filename %q: %w", filename, ErrUnsupportedType)
	}
	return filepath.Join(dir, filename), nil
}

// Exists reports whether the artifact at path is present.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Require returns ErrNotFound if the artifact at path is absent.
func Require(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
		}
		return err
	}
	return nil
}

// CreateExclusive opens path for writing, failing with ErrConflict if it
// already exists. This is the duplicate-invocation guard.
func CreateExclusive(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrConflict)
		}
		return nil, err
	}
	return f, nil
}

// Place links src to dst without overwriting, then removes src.
// Used where an artifact is produced elsewhere and moved into an area.
func Place(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(dst), ErrConflict)
		}
		// Hard links can fail across filesystems; fall back to an
		// exclusive copy.
		if err := copyExclusive(src, dst); err != nil {
			return err
		}
	}
	return os.Remove(src)
}

// Consume removes an input artifact after its output is durably written.
// A missing file is not an error, so retried stages stay idempotent.
func Consume(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("consume %s: %w", path, err)
	}
	return nil
}

// Archive moves src into destDir keeping its base name. Originals are
// archived, never deleted, so raw inputs stay recoverable.
func Archive(src, destDir string) (string, error) {
	dst := filepath.Join(destDir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	// Rename fails across filesystems; copy then remove.
	if err := copyExclusive(src, dst); err != nil {
		return "", fmt.Errorf("archive %s: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return "", fmt.Errorf("archive %s: %w", src, err)
	}
	return dst, nil
}

func copyExclusive(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(dst), ErrConflict)
		}
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
