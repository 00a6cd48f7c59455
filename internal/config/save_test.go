package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadViper(t *testing.T, path string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	return v
}

func TestSetValue_CreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SetValue(path, "graph.auto_repair", true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "graph:\n  auto_repair: true\n", string(data))
}

func TestSetValue_PreservesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SetValue(path, "document.format", "json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# Options every loaded graph is created with")
	assert.Contains(t, content, "# Default format for new files: yaml or json")
	assert.Contains(t, content, "format: json")
	assert.NotContains(t, content, "format: yaml")

	v := loadViper(t, path)
	assert.Equal(t, "json", v.GetString("document.format"))
	assert.Equal(t, 512, v.GetInt("graph.incremental_wire_limit"))
}

func TestSetValue_CreatesNestedMappings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  cache_ttl: 1m\n"), 0o600))

	require.NoError(t, SetValue(path, "tracing.enabled", true))
	require.NoError(t, SetValue(path, "tracing.exporter", "stdout"))
	require.NoError(t, SetValue(path, "store.path", "/tmp/graphs.db"))

	v := loadViper(t, path)
	assert.True(t, v.GetBool("tracing.enabled"))
	assert.Equal(t, "stdout", v.GetString("tracing.exporter"))
	assert.Equal(t, "/tmp/graphs.db", v.GetString("store.path"))
	assert.Equal(t, "1m", v.GetString("store.cache_ttl"))
}

func TestSetValue_ReplacesScalarWithMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watch: off\n"), 0o600))

	require.NoError(t, SetValue(path, "watch.debounce", "250ms"))

	v := loadViper(t, path)
	assert.Equal(t, "250ms", v.GetString("watch.debounce"))
}

func TestSetValue_InvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	for _, key := range []string{"", "graph.", ".graph", "a..b"} {
		err := SetValue(path, key, true)
		require.ErrorIs(t, err, ErrInvalidKey, key)
	}
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestSetValue_RejectsNonMappingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))

	err := SetValue(path, "document.format", "json")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a mapping")
}

func TestSaveDocumentFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveDocumentFormat(path, "json"))
	require.Equal(t, "json", loadViper(t, path).GetString("document.format"))

	err := SaveDocumentFormat(path, "xml")
	require.Error(t, err)
	require.Equal(t, "json", loadViper(t, path).GetString("document.format"))
}

func TestSaveFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveFlag(path, "watch-sync", true))
	require.NoError(t, SaveFlag(path, "inspect-ports", false))

	cfg := Defaults()
	require.NoError(t, loadViper(t, path).Unmarshal(&cfg))
	require.Equal(t, map[string]bool{"watch-sync": true, "inspect-ports": false}, cfg.Flags)
}

func TestSetValue_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, SetValue(path, "document.format", "yaml"))
	require.NoError(t, SetValue(path, "document.format", "json"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "config.yaml", entries[0].Name())
}
