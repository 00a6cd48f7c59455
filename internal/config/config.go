// Package config provides configuration types and defaults for nodegraph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/nodegraph/internal/log"
	"github.com/zjrosen/nodegraph/internal/tracing"
)

// Config holds all configuration options for nodegraph.
type Config struct {
	Store    StoreConfig     `mapstructure:"store"`
	Graph    GraphConfig     `mapstructure:"graph"`
	Document DocumentConfig  `mapstructure:"document"`
	Watch    WatchConfig     `mapstructure:"watch"`
	Tracing  tracing.Config  `mapstructure:"tracing"`
	Flags    map[string]bool `mapstructure:"flags"`
}

// StoreConfig configures the sqlite graph catalog.
type StoreConfig struct {
	// Path is the database file. Empty means DefaultStorePath().
	Path string `mapstructure:"path"`
	// CacheTTL is how long decoded documents stay cached. Zero uses the
	// catalog default; a negative value disables the cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// GraphConfig holds the options every loaded graph is created with.
type GraphConfig struct {
	// IncrementalWireLimit is the wire count up to which the wire index is
	// updated in place instead of rebuilt.
	IncrementalWireLimit int  `mapstructure:"incremental_wire_limit"`
	AllowSelfConnections bool `mapstructure:"allow_self_connections"`
	PruneObsoleteWires   bool `mapstructure:"prune_obsolete_wires"`
	// AutoRepair makes `nodegraph repair` drop unresolved entries without
	// --drop-missing.
	AutoRepair bool `mapstructure:"auto_repair"`
}

// DocumentConfig configures document files.
type DocumentConfig struct {
	Format string `mapstructure:"format"` // "yaml" (default) or "json"
}

// WatchConfig configures `nodegraph watch`.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// DefaultStorePath returns ~/.config/nodegraph/graphs.db, or graphs.db in the
// working directory when the home directory is unavailable.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "graphs.db"
	}
	return filepath.Join(home, ".config", "nodegraph", "graphs.db")
}

// DefaultTracesFilePath returns ~/.config/nodegraph/traces/traces.jsonl or an
// empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nodegraph", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Store: StoreConfig{
			Path:     "", // Derived at runtime
			CacheTTL: 5 * time.Minute,
		},
		Graph: GraphConfig{
			IncrementalWireLimit: 512,
			AllowSelfConnections: false,
			PruneObsoleteWires:   false,
			AutoRepair:           false,
		},
		Document: DocumentConfig{
			Format: "yaml",
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		Tracing: tracing.DefaultConfig(),
		Flags:   map[string]bool{},
	}
}

// Validate checks the whole configuration and returns the first problem found.
func (c Config) Validate() error {
	if err := ValidateStore(c.Store); err != nil {
		return err
	}
	if err := ValidateGraph(c.Graph); err != nil {
		return err
	}
	if err := ValidateDocument(c.Document); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateStore checks store configuration for errors.
func ValidateStore(store StoreConfig) error {
	if store.Path != "" && filepath.Ext(store.Path) == "" {
		return fmt.Errorf("store.path must name a database file, got %q", store.Path)
	}
	return nil
}

// ValidateGraph checks graph configuration for errors.
func ValidateGraph(g GraphConfig) error {
	if g.IncrementalWireLimit < 0 {
		return fmt.Errorf("graph.incremental_wire_limit must not be negative, got %d", g.IncrementalWireLimit)
	}
	return nil
}

// ValidateDocument checks document configuration for errors.
// An empty format uses the default.
func ValidateDocument(doc DocumentConfig) error {
	switch doc.Format {
	case "", "yaml", "json":
		return nil
	default:
		return fmt.Errorf("document.format must be \"yaml\" or \"json\", got %q", doc.Format)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(cfg tracing.Config) error {
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.SampleRate)
	}

	if cfg.Exporter != "" {
		switch cfg.Exporter {
		case tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", cfg.Exporter)
		}
	}

	// Path requirements only matter once tracing is on
	if cfg.Enabled {
		if cfg.Exporter == tracing.ExporterFile && cfg.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if cfg.Exporter == tracing.ExporterOTLP && cfg.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# nodegraph Configuration

# Graph catalog (nodegraph store ...)
store:
  # path: ~/.config/nodegraph/graphs.db  # sqlite database file
  cache_ttl: 5m                          # How long decoded graphs stay cached; negative disables

# Options every loaded graph is created with
graph:
  incremental_wire_limit: 512   # Wire count up to which the wire index is updated in place
  allow_self_connections: false # Let a node connect an output to its own input
  prune_obsolete_wires: false   # Delete wires of retired ports instead of keeping missing ports
  auto_repair: false            # nodegraph repair drops unresolved entries without --drop-missing

# Document files
document:
  format: yaml  # Default format for new files: yaml or json

# nodegraph watch
watch:
  debounce: 100ms  # Quiet period before a changed file is reloaded

# Distributed tracing configuration
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/nodegraph/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1  # Sample 10% of traces

# Feature flags
# flags:
#   watch-sync: true     # nodegraph watch imports every reload into the catalog
#   inspect-ports: true  # nodegraph inspect lists the ports of every node
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
