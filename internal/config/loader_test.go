package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	return testutil.WriteTempFile(t, "docscan.yaml", []byte(content))
}

func TestLoadWithFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
detector:
  strategy: edge-scan
  max_dimension: 600
rectify:
  margin_percent: 2
filters:
  params:
    contrast: 25
    white_background: 50
export:
  format: pdf
server:
  port: 9090
  rate_limit:
    enabled: true
    requests_per_minute: 5
`)
	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "edge-scan", cfg.Detector.Strategy)
	assert.Equal(t, 600, cfg.Detector.MaxDimension)
	assert.Equal(t, "auto", cfg.Detector.MaskMode)
	assert.InDelta(t, 2.0, cfg.Rectify.MarginPercent, 1e-9)
	assert.InDelta(t, 25.0, cfg.Filters.Params.Contrast, 1e-9)
	assert.InDelta(t, 50.0, cfg.Filters.Params.WhiteBackground, 1e-9)
	assert.Equal(t, "pdf", cfg.Export.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.Server.RateLimit.RequestsPerMinute)
	assert.Equal(t, 1000, cfg.Server.RateLimit.RequestsPerHour)
}

func TestLoadWithFile_EnvOverrides(t *testing.T) {
	t.Setenv("DOCSCAN_SERVER_PORT", "7070")
	t.Setenv("DOCSCAN_EXPORT_JPEG_QUALITY", "70")

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(writeConfig(t, "log_level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 70, cfg.Export.JPEGQuality)
}

func TestLoadWithFile_Invalid(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 0\n")

	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	assert.ErrorContains(t, err, "configuration validation failed")

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFileWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Server.Port)
}

func TestLoadWithFile_Missing(t *testing.T) {
	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoad_SearchPathWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoad_SearchPathFindsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docscan.yaml"), []byte("filters:\n  preset: document\n"), 0o600))

	loader := NewLoaderWithViper(viper.New())
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "document", cfg.Filters.Preset)
	assert.Equal(t, "docscan.yaml", filepath.Base(loader.GetConfigFileUsed()))
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join("/tmp/xdg", "docscan"))
	assert.Equal(t, "/etc/docscan", paths[len(paths)-1])
}
