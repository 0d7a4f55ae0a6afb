// Package splitter divides an incoming multi-page PDF into single-page
// documents named {base}_page_{N}.pdf, 1-indexed in document order.
package splitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/softbox-mx/captura/store"
)

// Splitter runs the split stage over the pipeline file areas.
type Splitter struct {
	areas  store.Areas
	logger *slog.Logger

	// pdfcpu entry points, injectable for tests.
	pageCount func(path string) (int, error)
	splitFile func(path, outDir string) error
}

// New creates a Splitter backed by pdfcpu.
func New(areas store.Areas, logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{
		areas:     areas,
		logger:    logger,
		pageCount: api.PageCountFile,
		splitFile: func(path, outDir string) error {
			return api.SplitFile(path, outDir, 1, nil)
		},
	}
}

// Result reports a completed split.
type Result struct {
	Pages     int    `json:"pages"`
	OutputDir string `json:"output_dir"`
	Archived  string `json:"archived"`
}

// Split validates files/<filename>, writes one PDF per page into the
// pages area, and archives the original into the source area. Refuses
// to re-run when page 1's output already exists.
func (s *Splitter) Split(ctx context.Context, filename string) (*Result, error) {
	path, err := store.Resolve(s.areas.Files, filename)
	if err != nil {
		return nil, err
	}
	path, err = normalizeExtension(path)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), ".pdf")

	guard := filepath.Join(s.areas.Pages, PageName(base, 1, ".pdf"))
	if store.Exists(guard) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(guard), store.ErrConflict)
	}

	pages, err := s.pageCount(path)
	if err != nil {
		return nil, fmt.Errorf("page count %s: %w", filename, err)
	}

	// pdfcpu writes {base}_{n}.pdf into its output dir; split into a
	// scratch dir first, then place each page under its canonical name.
	scratch, err := os.MkdirTemp(s.areas.Pages, base+"-split-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	if err := s.splitFile(path, scratch); err != nil {
		return nil, fmt.Errorf("split %s: %w", filename, err)
	}

	for n := 1; n <= pages; n++ {
		src := filepath.Join(scratch, fmt.Sprintf("%s_%d.pdf", base, n))
		dst := filepath.Join(s.areas.Pages, PageName(base, n, ".pdf"))
		if err := store.Place(src, dst); err != nil {
			return nil, fmt.Errorf("place page %d: %w", n, err)
		}
	}

	archived, err := store.Archive(path, s.areas.Source)
	if err != nil {
		return nil, err
	}

	s.logger.Info("pdf split", "file", filename, "pages", pages, "archived", archived)
	return &Result{Pages: pages, OutputDir: s.areas.Pages, Archived: archived}, nil
}

// normalizeExtension verifies the input exists and is a PDF; an
// upper-case .PDF suffix is renamed to .pdf on disk.
func normalizeExtension(path string) (string, error) {
	if err := store.Require(path); err != nil {
		return "", err
	}
	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, ".pdf") {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), store.ErrUnsupportedType)
	}
	if ext == ".pdf" {
		return path, nil
	}
	target := strings.TrimSuffix(path, ext) + ".pdf"
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("normalize extension: %w", err)
	}
	return target, nil
}
