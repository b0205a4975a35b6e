package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
}

func TestLoad_YML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inkdirector.yml", `
sourcePhase: Tie Down
destPhase: CleanUp
poseLock: false
logMode: dev
workers: 4
cacheTTL: 90s
nodes:
  ksampler2: "60"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Tie Down", cfg.SourcePhase)
	assert.Equal(t, "CleanUp", cfg.DestPhase)
	require.NotNil(t, cfg.PoseLock)
	assert.False(t, *cfg.PoseLock)
	assert.Nil(t, cfg.StyleLock)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, map[string]string{"ksampler2": "60"}, cfg.Nodes)
}

func TestLoad_YAMLExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inkdirector.yaml", "styleLock: true\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.StyleLock)
	assert.True(t, *cfg.StyleLock)
}

func TestLoad_YMLTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inkdirector.yml", "logMode: prod\n")
	writeFile(t, dir, "inkdirector.yaml", "logMode: dev\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.LogMode)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inkdirector.yml", "workers: [1, 2\n")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "config: parse inkdirector.yml")

	writeFile(t, dir, "inkdirector.yml", "workers: -1\n")
	_, err = Load(dir)
	assert.ErrorContains(t, err, "workers must not be negative")
}
