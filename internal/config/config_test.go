package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodegraph/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, 5*time.Minute, cfg.Store.CacheTTL)
	require.Equal(t, 512, cfg.Graph.IncrementalWireLimit)
	require.False(t, cfg.Graph.AllowSelfConnections)
	require.Equal(t, "yaml", cfg.Document.Format)
	require.Equal(t, 100*time.Millisecond, cfg.Watch.Debounce)
	require.False(t, cfg.Tracing.Enabled)
	require.NotNil(t, cfg.Flags)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "store path without extension",
			mutate:  func(c *Config) { c.Store.Path = "/tmp/graphs" },
			wantErr: "store.path",
		},
		{
			name:    "negative wire limit",
			mutate:  func(c *Config) { c.Graph.IncrementalWireLimit = -1 },
			wantErr: "graph.incremental_wire_limit",
		},
		{
			name:   "empty document format",
			mutate: func(c *Config) { c.Document.Format = "" },
		},
		{
			name:    "unknown document format",
			mutate:  func(c *Config) { c.Document.Format = "toml" },
			wantErr: "document.format",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: "watch.debounce",
		},
		{
			name:    "sample rate above one",
			mutate:  func(c *Config) { c.Tracing.SampleRate = 1.5 },
			wantErr: "tracing.sample_rate",
		},
		{
			name:    "unknown exporter",
			mutate:  func(c *Config) { c.Tracing.Exporter = "zipkin" },
			wantErr: "tracing.exporter",
		},
		{
			name: "enabled file exporter without path",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = tracing.ExporterFile
				c.Tracing.FilePath = ""
			},
			wantErr: "tracing.file_path",
		},
		{
			name: "disabled file exporter without path",
			mutate: func(c *Config) {
				c.Tracing.Exporter = tracing.ExporterFile
				c.Tracing.FilePath = ""
			},
		},
		{
			name: "enabled otlp exporter without endpoint",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = tracing.ExporterOTLP
				c.Tracing.OTLPEndpoint = ""
			},
			wantErr: "tracing.otlp_endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultConfigTemplate_LoadsAsDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))

	want := Defaults()
	require.Equal(t, want.Store, cfg.Store)
	require.Equal(t, want.Graph, cfg.Graph)
	require.Equal(t, want.Document, cfg.Document)
	require.Equal(t, want.Watch, cfg.Watch)
	require.Equal(t, want.Tracing, cfg.Tracing)
	require.NoError(t, cfg.Validate())
}

func TestViperOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `store:
  path: /var/lib/nodegraph/graphs.db
  cache_ttl: 30s
graph:
  allow_self_connections: true
document:
  format: json
tracing:
  enabled: true
  exporter: stdout
  sample_rate: 0.25
flags:
  watch-sync: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))

	require.Equal(t, "/var/lib/nodegraph/graphs.db", cfg.Store.Path)
	require.Equal(t, 30*time.Second, cfg.Store.CacheTTL)
	require.True(t, cfg.Graph.AllowSelfConnections)
	require.Equal(t, 512, cfg.Graph.IncrementalWireLimit, "unset keys keep their defaults")
	require.Equal(t, "json", cfg.Document.Format)
	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, tracing.ExporterStdout, cfg.Tracing.Exporter)
	require.InDelta(t, 0.25, cfg.Tracing.SampleRate, 1e-9)
	require.True(t, cfg.Flags["watch-sync"])
	require.NoError(t, cfg.Validate())
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteDefaultConfig_InvalidDirectory(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0o600))

	err := WriteDefaultConfig(filepath.Join(parent, "config.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "creating config directory")
}

func TestDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	require.Equal(t, filepath.Join(home, ".config", "nodegraph", "graphs.db"), DefaultStorePath())
	require.Equal(t, filepath.Join(home, ".config", "nodegraph", "traces", "traces.jsonl"), DefaultTracesFilePath())
}
