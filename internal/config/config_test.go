package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebook-recon/internal/reconcile/model"
)

func TestLoadDefaults(t *testing.T) {
	if wd, err := os.Getwd(); err != nil {
		t.Fatal(err)
	} else if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	} else {
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8082", cfg.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 256, cfg.Server.MaxUploadMB)
	assert.Equal(t, "info", cfg.Log.Level)

	opt, err := cfg.DiffOptions()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultOptions(), opt)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
log:
  level: debug
  file: ""
diff:
  fuzzy_threshold: 85
  fuzzy_scorer: damerau
`), 0o644))
	t.Setenv("RECON_DIFF_REVIEW_THRESHOLD", "0.5")
	t.Setenv("RECON_SERVER_HOST", "0.0.0.0")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Log.File)

	opt, err := cfg.DiffOptions()
	require.NoError(t, err)
	assert.Equal(t, 85.0, opt.FuzzyThreshold)
	assert.Equal(t, model.ScorerDamerau, opt.FuzzyScorer)
	assert.Equal(t, 0.5, opt.ReviewThreshold)
	assert.Equal(t, 0.98, opt.ExactMatchThreshold)
}

func TestLoadRejectsBadDiffConfig(t *testing.T) {
	if wd, err := os.Getwd(); err != nil {
		t.Fatal(err)
	} else if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	} else {
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}
	t.Setenv("RECON_DIFF_LOW_CONFIDENCE_THRESHOLD", "0.9")

	_, err := Load("")
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	logger := SetupLogger(LogConfig{Level: "warn", File: filepath.Join(dir, "logs", "recon.log")}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.FileExists(t, filepath.Join(dir, "logs", "recon.log"))
}
