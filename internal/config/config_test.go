package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "drone_lab.yaml"), []byte(content), 0o644)
	require.NoError(t, err)
	return dir
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 1.5, cfg.CaptureRadius)
	assert.Equal(t, 1.0, cfg.Environment.PGain)
	assert.Equal(t, "forward", cfg.KeyBindings["w"])
	assert.Equal(t, "takeoff", cfg.KeyBindings["t"])
}

func TestLoadOverrides(t *testing.T) {
	dir := writeConfig(t, `
port: "8080"
logLevel: debug
sim:
  tickMillis: 20
  captureRadius: 2.5
env:
  windX: 1.5
  pGain: 0.5
keys:
  w: backward
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 2.5, cfg.CaptureRadius)
	assert.Equal(t, 1.5, cfg.Environment.WindX)
	assert.Equal(t, 0.5, cfg.Environment.PGain)
	assert.Equal(t, "backward", cfg.KeyBindings["w"])
	assert.Equal(t, "land", cfg.KeyBindings["l"], "untouched bindings keep their defaults")
}

func TestLoadRejectsUnknownAction(t *testing.T) {
	dir := writeConfig(t, `
keys:
  w: teleport
`)
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
}

func TestLoadRejectsBadTick(t *testing.T) {
	dir := writeConfig(t, `
sim:
  tickMillis: 0
`)
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tickMillis")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := writeConfig(t, "port: [unclosed")
	_, err := Load(dir)
	require.Error(t, err)
}
