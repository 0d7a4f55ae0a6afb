// Package service exposes the four pipeline stages over HTTP and MCP.
// Each operation takes one filename, runs exactly one stage
// synchronously, and returns a JSON status payload.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/softbox-mx/captura/extractor"
	"github.com/softbox-mx/captura/generator"
	"github.com/softbox-mx/captura/ledger"
	"github.com/softbox-mx/captura/loader"
	"github.com/softbox-mx/captura/splitter"
	"github.com/softbox-mx/captura/store"
)

// Stage runners, one per pipeline stage. The concrete types live in
// their own packages; the service depends on these seams so handlers
// can be exercised without PDFs, HTTP collaborators, or a database.
type (
	SplitRunner interface {
		Split(ctx context.Context, filename string) (*splitter.Result, error)
	}
	ExtractRunner interface {
		Extract(ctx context.Context, filename string) (*extractor.Result, error)
	}
	GenerateRunner interface {
		Generate(ctx context.Context, filename string) (*generator.Result, error)
	}
	InsertRunner interface {
		Load(ctx context.Context, filename string) (*loader.Result, error)
	}
)

// Service wires the stage runners to their transports.
type Service struct {
	split    SplitRunner
	extract  ExtractRunner
	generate GenerateRunner
	insert   InsertRunner
	runs     *ledger.Store
	logger   *slog.Logger
}

// New creates the service. runs may be nil when no ledger is configured.
func New(split SplitRunner, extract ExtractRunner, generate GenerateRunner,
	insert InsertRunner, runs *ledger.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		split:    split,
		extract:  extract,
		generate: generate,
		insert:   insert,
		runs:     runs,
		logger:   logger,
	}
}

// Router builds the HTTP surface.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/split", s.handleSplit)
	r.Get("/extract", s.handleExtract)
	r.Get("/generate", s.handleGenerate)
	r.Get("/insert", s.handleInsert)
	return r
}

func (s *Service) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "invoice capture pipeline running",
		"hint": "GET /split?filename=<doc.pdf> then /extract?filename=<doc_page_N.pdf> " +
			"then /generate?filename=<doc_page_N.csv> then /insert?filename=<doc_page_N_generated.csv>",
		"status": "ok",
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleSplit(w http.ResponseWriter, r *http.Request) {
	runStage(s, w, r, "split", func(ctx context.Context, filename string) (any, int, error) {
		res, err := s.split.Split(ctx, filename)
		if err != nil {
			return nil, 0, err
		}
		return res, res.Pages, nil
	})
}

func (s *Service) handleExtract(w http.ResponseWriter, r *http.Request) {
	runStage(s, w, r, "extract", func(ctx context.Context, filename string) (any, int, error) {
		res, err := s.extract.Extract(ctx, filename)
		if err != nil {
			return nil, 0, err
		}
		return res, res.Rows, nil
	})
}

func (s *Service) handleGenerate(w http.ResponseWriter, r *http.Request) {
	runStage(s, w, r, "generate", func(ctx context.Context, filename string) (any, int, error) {
		res, err := s.generate.Generate(ctx, filename)
		if err != nil {
			return nil, 0, err
		}
		return res, res.Rows, nil
	})
}

func (s *Service) handleInsert(w http.ResponseWriter, r *http.Request) {
	runStage(s, w, r, "insert", func(ctx context.Context, filename string) (any, int, error) {
		res, err := s.insert.Load(ctx, filename)
		if err != nil {
			return nil, 0, err
		}
		return res, res.RowsInserted, nil
	})
}

// runStage handles the shared request shape: filename validation, the
// stage call, ledger recording, and error-to-status mapping.
func runStage(s *Service, w http.ResponseWriter, r *http.Request, stage string,
	run func(ctx context.Context, filename string) (any, int, error)) {

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "missing 'filename' parameter")
		return
	}

	start := time.Now()
	payload, rows, err := run(r.Context(), filename)
	s.record(stage, filename, rows, time.Since(start), err)
	if err != nil {
		status := statusFor(err)
		s.logger.Error("stage failed",
			"stage", stage, "file", filename, "status", status, "error", err)
		writeError(w, status, err.Error())
		return
	}

	s.logger.Info("stage completed",
		"stage", stage, "file", filename, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, payload)
}

func (s *Service) record(stage, unit string, rows int, d time.Duration, err error) {
	if s.runs == nil {
		return
	}
	e := &ledger.Entry{Stage: stage, Unit: unit, Rows: rows, Duration: d}
	if err != nil {
		e.Err = err.Error()
	}
	s.runs.Record(e)
}

// statusFor maps the stage error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var verr *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, loader.ErrStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
