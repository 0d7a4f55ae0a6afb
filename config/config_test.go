package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Database.Table != "tbl_captura_ia" {
		t.Errorf("Table = %q", cfg.Database.Table)
	}
	if cfg.CaptureZone != "America/Mexico_City" {
		t.Errorf("CaptureZone = %q", cfg.CaptureZone)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VISION_AGENT_API_KEY", "va-key")
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PASSWORD", "s3cret")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Extraction.APIKey != "va-key" {
		t.Errorf("APIKey = %q", cfg.Extraction.APIKey)
	}
	if cfg.Database.Host != "pg.internal" {
		t.Errorf("Host = %q", cfg.Database.Host)
	}
	dsn := cfg.DSN()
	if !strings.Contains(dsn, "pg.internal:5432") || !strings.HasPrefix(dsn, "postgres://") {
		t.Errorf("DSN = %q", dsn)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "captura.yaml")
	os.WriteFile(path, []byte("listen: \":9000\"\nfiles_dir: /srv/files\n"), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.FilesDir != "/srv/files" {
		t.Errorf("FilesDir = %q", cfg.FilesDir)
	}
	// Untouched fields keep defaults.
	if cfg.PagesDir != "pages" {
		t.Errorf("PagesDir = %q", cfg.PagesDir)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TablesDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty tables_dir")
	}
}
