package golegis

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/golegis/builder"
	"github.com/brunobiangulo/golegis/classifier"
	"github.com/brunobiangulo/golegis/detector"
	"github.com/brunobiangulo/golegis/export"
)

// Config holds all configuration for the golegis extractor.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.golegis/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "golegis".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.golegis/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Sources lists the documents to extract; see Manifest.
	Sources []SourceSpec `json:"sources,omitempty" yaml:"sources,omitempty"`

	Detection  detector.Config    `json:"detection" yaml:"detection"`
	Thresholds builder.Thresholds `json:"thresholds" yaml:"thresholds"`

	Language         string `json:"language" yaml:"language"`
	SummaryMaxLen    int    `json:"summary_max_len" yaml:"summary_max_len"`
	DefaultTimestamp string `json:"default_timestamp" yaml:"default_timestamp"` // RFC 3339

	// Categories replaces the built-in classification table when set.
	Categories *classifier.Table `json:"categories,omitempty" yaml:"categories,omitempty"`

	Dedupe   classifier.DedupeConfig `json:"dedupe" yaml:"dedupe"`
	Output   OutputConfig            `json:"output" yaml:"output"`
	Encoding EncodingConfig          `json:"encoding" yaml:"encoding"`
	HTML     HTMLConfig              `json:"html" yaml:"html"`
	Server   ServerConfig            `json:"server" yaml:"server"`
}

// OutputConfig controls the data files written by extract.
type OutputConfig struct {
	Dir      string   `json:"dir" yaml:"dir"`
	Basename string   `json:"basename" yaml:"basename"`
	Formats  []string `json:"formats" yaml:"formats"` // json, ts, xlsx
}

// EncodingConfig controls decoding of text sources that are not UTF-8.
type EncodingConfig struct {
	Fallback string `json:"fallback" yaml:"fallback"` // charset name, or "none"
}

// HTMLConfig controls the HTML reader.
type HTMLConfig struct {
	Readability bool `json:"readability" yaml:"readability"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `json:"addr" yaml:"addr"`
	APIKey      string   `json:"api_key" yaml:"api_key"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	CacheSize   int      `json:"cache_size" yaml:"cache_size"`
}

// DefaultConfig returns a Config with the defaults used for the Senegalese
// legal corpus. Database is stored in ~/.golegis/golegis.db by default.
func DefaultConfig() Config {
	b := builder.DefaultConfig()
	return Config{
		DBName:           "golegis",
		StorageDir:       "home",
		Detection:        detector.Config{MinCandidates: 1},
		Thresholds:       b.Thresholds,
		Language:         b.Language,
		SummaryMaxLen:    b.SummaryMaxLen,
		DefaultTimestamp: b.DefaultTimestamp,
		Output: OutputConfig{
			Dir:      "out",
			Basename: "legal_articles",
			Formats:  []string{"json"},
		},
		Encoding: EncodingConfig{Fallback: "windows-1252"},
		Server: ServerConfig{
			Addr:      ":8080",
			CacheSize: 64,
		},
	}
}

// LoadConfig reads a YAML or JSON config file over DefaultConfig, loads a
// .env file from the working directory if present, applies GOLEGIS_*
// environment overrides and validates the result. An empty path skips the
// file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			err = json.Unmarshal(data, &cfg)
		default:
			err = yaml.Unmarshal(data, &cfg)
		}
		if err != nil {
			return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
		}
		cfg.resolveSourcePaths(filepath.Dir(path))
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides fields from GOLEGIS_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("GOLEGIS_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("GOLEGIS_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("GOLEGIS_API_KEY"); v != "" {
		c.Server.APIKey = v
	}
	if v := os.Getenv("GOLEGIS_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("GOLEGIS_ENCODING_FALLBACK"); v != "" {
		c.Encoding.Fallback = v
	}
}

// resolveSourcePaths makes relative source paths relative to dir.
func (c *Config) resolveSourcePaths(dir string) {
	for i, s := range c.Sources {
		if s.Path != "" && !filepath.IsAbs(s.Path) {
			c.Sources[i].Path = filepath.Join(dir, s.Path)
		}
	}
}

// Validate checks the configuration and reports the first problem,
// wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Detection.MinCandidates < 0 {
		return invalid("detection.min_candidates must be >= 0, got %d", c.Detection.MinCandidates)
	}
	if _, err := detector.New(c.Detection); err != nil {
		return invalid("detection: %v", err)
	}
	if c.Thresholds.Article < 0 || c.Thresholds.Section < 0 {
		return invalid("thresholds must be >= 0")
	}
	if c.DefaultTimestamp != "" {
		if _, err := time.Parse(time.RFC3339, c.DefaultTimestamp); err != nil {
			return invalid("default_timestamp %q is not RFC 3339", c.DefaultTimestamp)
		}
	}
	if c.Dedupe.Similarity < 0 || c.Dedupe.Similarity > 1 {
		return invalid("dedupe.similarity must be within [0,1], got %g", c.Dedupe.Similarity)
	}
	for _, f := range c.Output.Formats {
		if _, err := export.ForFormat(f); err != nil {
			return invalid("output.formats: %v", err)
		}
	}
	if c.Categories != nil {
		for i, r := range c.Categories.Rules {
			if strings.TrimSpace(r.Category) == "" {
				return invalid("categories.rules[%d] has no category", i)
			}
		}
	}
	for i, s := range c.Sources {
		if strings.TrimSpace(s.Path) == "" {
			return invalid("sources[%d] has no path", i)
		}
	}
	return nil
}

// Table returns the configured classification table or the default one.
func (c *Config) Table() classifier.Table {
	if c.Categories != nil {
		return *c.Categories
	}
	return classifier.DefaultTable()
}

func (c *Config) builderConfig() builder.Config {
	return builder.Config{
		Thresholds:       c.Thresholds,
		Language:         c.Language,
		SummaryMaxLen:    c.SummaryMaxLen,
		DefaultTimestamp: c.DefaultTimestamp,
	}
}

// fingerprint hashes the settings that shape the articles built from a
// given document.
func (c *Config) fingerprint() []byte {
	data, _ := json.Marshal(struct {
		Detection detector.Config         `json:"detection"`
		Builder   builder.Config          `json:"builder"`
		Table     classifier.Table        `json:"table"`
		Dedupe    classifier.DedupeConfig `json:"dedupe"`
	}{c.Detection, c.builderConfig(), c.Table(), c.Dedupe})
	sum := sha256.Sum256(data)
	return sum[:]
}

// ResolveDBPath computes the final database path from config fields.
func (c *Config) ResolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "golegis"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db"
		}
		return filepath.Join(home, ".golegis", name+".db")
	}
}
