// Package extractor runs the per-page extraction stage: it calls the
// external document-analysis service, flattens its chunk/grounding
// output into one observation row per (chunk, grounding) pair, derives
// the normalized clean_text column, and persists the result as the
// page's chunk table.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/softbox-mx/captura/frame"
	"github.com/softbox-mx/captura/splitter"
	"github.com/softbox-mx/captura/store"
)

// Columns of the chunk table, in artifact order.
var Columns = []string{
	"chunk_id", "chunk", "chunk_type", "text_html",
	"name_file", "url_file", "page",
	"active", "capture_log", "subject_mail", "clean_text",
}

// captureSubject tags every captured row.
const captureSubject = "captura"

// Extractor runs the extraction stage.
type Extractor struct {
	areas    store.Areas
	svc      Service
	filesURL string // public URL base for archived originals
	zone     *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Extractor. filesURL is the public base under which
// archived originals are served; zone is the capture time zone.
func New(areas store.Areas, svc Service, filesURL string, zone *time.Location, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if zone == nil {
		zone = time.UTC
	}
	return &Extractor{
		areas:    areas,
		svc:      svc,
		filesURL: strings.TrimRight(filesURL, "/"),
		zone:     zone,
		logger:   logger,
		now:      time.Now,
	}
}

// Result reports a completed extraction.
type Result struct {
	OriginalPDF string `json:"original_pdf"`
	Page        string `json:"page"`
	Rows        int    `json:"rows"`
	OutputPath  string `json:"output_path"`
}

// Extract processes one page document from the pages area and writes
// its chunk table into the results area. The page document is removed
// only after the table is durably written.
func (e *Extractor) Extract(ctx context.Context, filename string) (*Result, error) {
	path, err := store.Resolve(e.areas.Pages, filename)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, fmt.Errorf("%s: %w", filename, store.ErrUnsupportedType)
	}
	if err := store.Require(path); err != nil {
		return nil, err
	}

	original := splitter.OriginalName(filename)
	page := splitter.PageNumber(filename)
	if page == "" {
		return nil, &store.ValidationError{Name: "page suffix"}
	}

	outName := splitter.PageName(strings.TrimSuffix(original, ".pdf"), mustAtoi(page), ".csv")
	outPath := filepath.Join(e.areas.Results, outName)
	if store.Exists(outPath) {
		return nil, fmt.Errorf("%s: %w", outName, store.ErrConflict)
	}

	chunks, err := e.svc.Parse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	f := e.flatten(chunks, original, page)

	out, err := store.CreateExclusive(outPath)
	if err != nil {
		return nil, err
	}
	if err := f.WriteTo(out); err != nil {
		out.Close()
		return nil, fmt.Errorf("write %s: %w", outName, err)
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	// Output is durable; retire the page document from the pending set.
	if err := store.Consume(path); err != nil {
		return nil, err
	}

	e.logger.Info("page extracted",
		"file", filename, "original", original, "page", page, "rows", f.Len())
	return &Result{
		OriginalPDF: original,
		Page:        page,
		Rows:        f.Len(),
		OutputPath:  outPath,
	}, nil
}

// flatten builds the chunk table: one row per (chunk, grounding) pair,
// exactly one row for a grounding-less chunk.
func (e *Extractor) flatten(chunks []Chunk, original, page string) *frame.Frame {
	captured := e.now().In(e.zone).Format("2006-01-02 15:04:05-07:00")
	link := e.filesURL + "/" + original

	f := frame.New(Columns...)
	for i, ch := range chunks {
		rows := len(ch.Groundings)
		if rows == 0 {
			rows = 1
		}
		for r := 0; r < rows; r++ {
			f.AppendMap(map[string]string{
				"chunk_id":     ch.ID,
				"chunk":        strconv.Itoa(i + 1),
				"chunk_type":   ch.Type,
				"text_html":    ch.Text,
				"name_file":    original,
				"url_file":     link,
				"page":         page,
				"active":       "1",
				"capture_log":  captured,
				"subject_mail": captureSubject,
				"clean_text":   normalizedText(ch),
			})
		}
	}
	return f
}

// normalizedText derives clean_text: table chunks are parsed into the
// tuple-list form; everything else falls back to the raw content.
func normalizedText(ch Chunk) string {
	if strings.EqualFold(ch.Type, "table") {
		return TupleList(ch.Text)
	}
	return ch.Text
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
