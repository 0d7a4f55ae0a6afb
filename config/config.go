// Package config loads the service configuration: a YAML file for
// layout and endpoints, environment variables for secrets. The
// resulting value is built once at process start and passed by
// reference into each stage.
package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/softbox-mx/captura/store"
)

// Config holds the full captura configuration.
type Config struct {
	Listen      string           `yaml:"listen"`
	LogLevel    string           `yaml:"log_level"`
	LedgerDB    string           `yaml:"ledger_db"`
	FilesDir    string           `yaml:"files_dir"`
	PagesDir    string           `yaml:"pages_dir"`
	ResultsDir  string           `yaml:"results_dir"`
	TablesDir   string           `yaml:"tables_dir"`
	SourceDir   string           `yaml:"source_dir"`
	PublicFiles string           `yaml:"public_files_url"` // public URL base for archived originals
	CaptureZone string           `yaml:"capture_timezone"`
	Extraction  ExtractionConfig `yaml:"extraction"`
	Model       ModelConfig      `yaml:"model"`
	Database    DatabaseConfig   `yaml:"database"`
}

// ExtractionConfig configures the document-analysis collaborator.
type ExtractionConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"-"` // VISION_AGENT_API_KEY
}

// ModelConfig configures the generative-model collaborator.
type ModelConfig struct {
	Endpoint string `yaml:"endpoint"`
	Name     string `yaml:"name"`
	APIKey   string `yaml:"-"` // OPENAI_API_KEY
}

// DatabaseConfig configures the destination PostgreSQL store.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // DB_PASSWORD
	Table    string `yaml:"table"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:      ":8000",
		LogLevel:    "info",
		LedgerDB:    "db/ledger.db",
		FilesDir:    "files",
		PagesDir:    "pages",
		ResultsDir:  "results",
		TablesDir:   "tables",
		SourceDir:   "source",
		PublicFiles: "https://openia.soft-box.com.mx/files",
		CaptureZone: "America/Mexico_City",
		Extraction: ExtractionConfig{
			Endpoint: "https://api.va.landing.ai/v1/tools/agentic-document-analysis",
		},
		Model: ModelConfig{
			Endpoint: "https://api.openai.com",
			Name:     "o4-mini-2025-04-16",
		},
		Database: DatabaseConfig{
			Port:  "5432",
			Table: "tbl_captura_ia",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides, and validates. Secrets always come from the
// environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Extraction.APIKey = env("VISION_AGENT_API_KEY", c.Extraction.APIKey)
	c.Model.APIKey = env("OPENAI_API_KEY", c.Model.APIKey)
	c.Database.Host = env("DB_HOST", c.Database.Host)
	c.Database.Port = env("DB_PORT", c.Database.Port)
	c.Database.Name = env("DB_NAME", c.Database.Name)
	c.Database.User = env("DB_USER", c.Database.User)
	c.Database.Password = env("DB_PASSWORD", c.Database.Password)
	c.Listen = env("LISTEN", c.Listen)
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	for _, f := range []struct{ name, val string }{
		{"files_dir", c.FilesDir},
		{"pages_dir", c.PagesDir},
		{"results_dir", c.ResultsDir},
		{"tables_dir", c.TablesDir},
		{"source_dir", c.SourceDir},
		{"capture_timezone", c.CaptureZone},
		{"database.table", c.Database.Table},
	} {
		if f.val == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	return nil
}

// Areas returns the stage file areas.
func (c *Config) Areas() store.Areas {
	return store.Areas{
		Files:   c.FilesDir,
		Pages:   c.PagesDir,
		Results: c.ResultsDir,
		Tables:  c.TablesDir,
		Source:  c.SourceDir,
	}
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Database.User, c.Database.Password),
		Host:   c.Database.Host + ":" + c.Database.Port,
		Path:   "/" + c.Database.Name,
	}
	return u.String()
}

func env(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
