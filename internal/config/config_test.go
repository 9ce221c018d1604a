package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ptmine/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
repository:
  path: /srv/repo
  revision: main
windows:
  near: 24h
layout:
  test_suffixes: [Test, Tests]
refine:
  strategies: [missing-content, demote-lexical]
output:
  split_by_tag: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/repo", cfg.Repository.Path)
	assert.Equal(t, "main", cfg.Repository.Revision)
	assert.Equal(t, 24*time.Hour, cfg.Windows.Near)
	assert.Equal(t, 480*time.Hour, cfg.Windows.Far)
	assert.Equal(t, []string{"Test", "Tests"}, cfg.Layout.TestSuffixes)
	assert.Equal(t, "src/main/java", cfg.Layout.SourceRoot)
	assert.Equal(t, []string{"missing-content", "demote-lexical"}, cfg.Refine.Strategies)
	assert.True(t, cfg.Output.SplitByTag)
	assert.Equal(t, "jsonl", cfg.Output.Format)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "windows:\n  near: 24h\n")
	t.Setenv("PTMINE_WINDOWS_NEAR", "6h")
	t.Setenv("PTMINE_OUTPUT_FORMAT", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db/pairs")
	t.Setenv("GUMTREE_CMD", "gumtree")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6*time.Hour, cfg.Windows.Near)
	assert.Equal(t, "postgres", cfg.Output.Format)
	assert.Equal(t, "postgres://u:p@db/pairs", cfg.Output.DSN)
	assert.Equal(t, "gumtree", cfg.Oracle.GumTreeCommand)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := writeConfig(t, "windows: [unclosed\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Repository.Path = "/srv/repo"
	cfg.Windows.Near = 6 * time.Hour
	cfg.Oracle.RateLimit = 2.5
	cfg.Refine.Strategies = []string{"demote-lexical"}
	cfg.Log.JSON = true

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "6h0m0s")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Repository, loaded.Repository)
	assert.Equal(t, cfg.Windows, loaded.Windows)
	assert.Equal(t, cfg.Oracle, loaded.Oracle)
	assert.Equal(t, cfg.Layout, loaded.Layout)
	assert.Equal(t, cfg.Refine.Strategies, loaded.Refine.Strategies)
	assert.Equal(t, cfg.Log, loaded.Log)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg := Default()
		cfg.Repository.Path = t.TempDir()
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		result := valid(t).Validate(ValidationContextAll)
		assert.False(t, result.HasErrors(), result.Error())
		assert.NoError(t, result.Err())
	})

	tests := []struct {
		name   string
		ctx    ValidationContext
		mutate func(*Config)
	}{
		{"missing repository", ValidationContextGenerate, func(c *Config) { c.Repository.Path = "/does/not/exist" }},
		{"zero near window", ValidationContextGenerate, func(c *Config) { c.Windows.Near = 0 }},
		{"inverted windows", ValidationContextGenerate, func(c *Config) { c.Windows.Far = c.Windows.Near }},
		{"same roots", ValidationContextGenerate, func(c *Config) { c.Layout.TestRoot = c.Layout.SourceRoot + "/" }},
		{"bad extension", ValidationContextGenerate, func(c *Config) { c.Layout.Extension = "java" }},
		{"unknown strategy", ValidationContextRefine, func(c *Config) { c.Refine.Strategies = []string{"bogus"} }},
		{"zero timeout", ValidationContextRefine, func(c *Config) { c.Oracle.Timeout = 0 }},
		{"redis without address", ValidationContextRefine, func(c *Config) { c.Cache.Backend = "redis" }},
		{"unknown format", ValidationContextAll, func(c *Config) { c.Output.Format = "csv" }},
		{"postgres without dsn", ValidationContextAll, func(c *Config) { c.Output.Format = "postgres" }},
		{"bad log level", ValidationContextAll, func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)

			result := cfg.Validate(tt.ctx)
			assert.True(t, result.HasErrors())
			err := result.Err()
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err))
		})
	}

	t.Run("refine does not check layout", func(t *testing.T) {
		cfg := valid(t)
		cfg.Layout.Extension = ""
		assert.False(t, cfg.Validate(ValidationContextRefine).HasErrors())
	})
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Output.DSN = "postgres://user:secret@db:5432/pairs"
	cfg.Cache.RedisPassword = "hunter2"

	r := cfg.Redacted()
	assert.Equal(t, "postgres://****@db:5432/pairs", r.Output.DSN)
	assert.Equal(t, "****", r.Cache.RedisPassword)
	assert.Equal(t, "hunter2", cfg.Cache.RedisPassword)
}

func TestMapNestsSections(t *testing.T) {
	m := Default().Map()
	windows, ok := m["windows"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "12h0m0s", windows["near"])
	assert.Contains(t, m, "oracle")
	assert.Contains(t, m, "layout")
}
