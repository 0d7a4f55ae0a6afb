// Entry point for the invoice capture service: chi router over the
// four pipeline stages, optional MCP stdio transport, SQLite run
// ledger.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/softbox-mx/captura/config"
	"github.com/softbox-mx/captura/extractor"
	"github.com/softbox-mx/captura/generator"
	"github.com/softbox-mx/captura/ledger"
	"github.com/softbox-mx/captura/loader"
	"github.com/softbox-mx/captura/service"
	"github.com/softbox-mx/captura/splitter"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Stage file areas.
	areas := cfg.Areas()
	if err := areas.EnsureDirs(); err != nil {
		slog.Error("ensure dirs", "error", err)
		os.Exit(1)
	}

	// Run ledger.
	ledgerDB, err := ledger.Open(cfg.LedgerDB)
	if err != nil {
		slog.Error("ledger db", "error", err)
		os.Exit(1)
	}
	defer ledgerDB.Close()
	runs := ledger.NewStore(ledgerDB)
	if err := runs.Init(); err != nil {
		slog.Error("ledger init", "error", err)
		os.Exit(1)
	}
	defer runs.Close()

	zone, err := time.LoadLocation(cfg.CaptureZone)
	if err != nil {
		slog.Error("capture timezone", "zone", cfg.CaptureZone, "error", err)
		os.Exit(1)
	}

	// Pipeline stages.
	split := splitter.New(areas, logger)
	analysis := extractor.NewClient(cfg.Extraction.Endpoint, cfg.Extraction.APIKey, logger)
	extract := extractor.New(areas, analysis, cfg.PublicFiles, zone, logger)
	model := generator.NewOpenAIClient(cfg.Model.Endpoint+"/v1", cfg.Model.APIKey, cfg.Model.Name, logger)
	generate := generator.New(areas, model, logger)
	insert := loader.New(areas, cfg.DSN(), cfg.Database.Table, logger)

	svc := service.New(split, extract, generate, insert, runs, logger)

	// Optional MCP stdio transport instead of HTTP.
	if os.Getenv("MCP_TRANSPORT") == "stdio" {
		slog.Info("MCP stdio starting")
		if err := svc.RunMCP(ctx); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("captura listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("serve", "error", err)
			os.Exit(1)
		}
	}()

	// Shut down synchronously so the ledger defers only run once every
	// in-flight handler has returned.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}
