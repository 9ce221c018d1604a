package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/oracle"
	"github.com/rohankatakam/ptmine/internal/pairing"
)

// DefaultDir holds the project-local config file and caches
const DefaultDir = ".ptmine"

// Config holds all configuration settings
type Config struct {
	Repository RepositoryConfig `mapstructure:"repository" yaml:"repository"`
	Layout     pairing.Layout   `mapstructure:"layout" yaml:"layout"`
	Windows    WindowsConfig    `mapstructure:"windows" yaml:"windows"`
	Oracle     OracleConfig     `mapstructure:"oracle" yaml:"oracle"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Refine     RefineConfig     `mapstructure:"refine" yaml:"refine"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

type RepositoryConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	Revision string `mapstructure:"revision" yaml:"revision"` // Branch, tag or hash to walk; HEAD when empty
}

// WindowsConfig bounds the positive window [0, Near) and the negative
// window [Near, Far) after each production commit.
type WindowsConfig struct {
	Near  time.Duration `mapstructure:"near" yaml:"near"`
	Far   time.Duration `mapstructure:"far" yaml:"far"`
	Limit int           `mapstructure:"limit" yaml:"limit"` // Max anchors per run, 0 for all
}

type OracleConfig struct {
	GumTreeCommand          string        `mapstructure:"gumtree_command" yaml:"gumtree_command"`
	RefactoringMinerCommand string        `mapstructure:"refactoringminer_command" yaml:"refactoringminer_command"`
	Timeout                 time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit               float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // Invocations per second, 0 for unlimited
}

type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	Backend       string        `mapstructure:"backend" yaml:"backend"` // "bolt", "redis"
	Path          string        `mapstructure:"path" yaml:"path"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format"` // "jsonl", "sqlite", "postgres"
	Path       string `mapstructure:"path" yaml:"path"`
	DSN        string `mapstructure:"dsn" yaml:"dsn"`
	SplitByTag bool   `mapstructure:"split_by_tag" yaml:"split_by_tag"`
	Failures   string `mapstructure:"failures" yaml:"failures"` // Failure log, disabled when empty
}

type RefineConfig struct {
	Strategies []string `mapstructure:"strategies" yaml:"strategies"` // Ordered chain, default when empty
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int64  `mapstructure:"max_size" yaml:"max_size"` // In bytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	JSON       bool   `mapstructure:"json" yaml:"json"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Repository: RepositoryConfig{Path: "."},
		Layout:     pairing.DefaultLayout(),
		Windows: WindowsConfig{
			Near: 12 * time.Hour,
			Far:  480 * time.Hour,
		},
		Oracle: OracleConfig{
			GumTreeCommand:          oracle.DefaultGumTreeCommand,
			RefactoringMinerCommand: oracle.DefaultRefactoringMinerCommand,
			Timeout:                 oracle.DefaultTimeout,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "bolt",
			Path:    filepath.Join(DefaultDir, "cache.db"),
			TTL:     7 * 24 * time.Hour,
		},
		Output: OutputConfig{
			Format: "jsonl",
			Path:   "pairs.jsonl",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxBackups: 3,
		},
	}
}

// Load loads configuration from defaults, the config file, PTMINE_*
// variables and finally the plain environment overrides.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	for key, value := range cfg.settings() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("PTMINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultDir)
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, DefaultDir))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to read config")
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to unmarshal config")
	}

	applyEnvOverrides(cfg)
	cfg.Cache.Path = expandPath(cfg.Cache.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Output.Failures = expandPath(cfg.Output.Failures)
	cfg.Repository.Path = expandPath(cfg.Repository.Path)

	return cfg, nil
}

// applyEnvOverrides applies conventional unprefixed variables
func applyEnvOverrides(cfg *Config) {
	if cmd := os.Getenv("GUMTREE_CMD"); cmd != "" {
		cfg.Oracle.GumTreeCommand = cmd
	}
	if cmd := os.Getenv("REFACTORINGMINER_CMD"); cmd != "" {
		cfg.Oracle.RefactoringMinerCommand = cmd
	}

	// Storage
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" && cfg.Output.Format == "postgres" && cfg.Output.DSN == "" {
		cfg.Output.DSN = dsn
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Cache.RedisPassword = pw
	}
	cfg.Cache.RedisDB = GetInt("REDIS_DB", cfg.Cache.RedisDB)

	cfg.Log.Level = GetString("LOG_LEVEL", cfg.Log.Level)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// settings flattens the config into viper keys. Durations are rendered as
// strings so that saved files stay readable.
func (c *Config) settings() map[string]interface{} {
	return map[string]interface{}{
		"repository.path":                 c.Repository.Path,
		"repository.revision":             c.Repository.Revision,
		"layout.source_root":              c.Layout.SourceRoot,
		"layout.test_root":                c.Layout.TestRoot,
		"layout.extension":                c.Layout.Extension,
		"layout.test_suffixes":            c.Layout.TestSuffixes,
		"windows.near":                    c.Windows.Near.String(),
		"windows.far":                     c.Windows.Far.String(),
		"windows.limit":                   c.Windows.Limit,
		"oracle.gumtree_command":          c.Oracle.GumTreeCommand,
		"oracle.refactoringminer_command": c.Oracle.RefactoringMinerCommand,
		"oracle.timeout":                  c.Oracle.Timeout.String(),
		"oracle.rate_limit":               c.Oracle.RateLimit,
		"cache.enabled":                   c.Cache.Enabled,
		"cache.backend":                   c.Cache.Backend,
		"cache.path":                      c.Cache.Path,
		"cache.redis_addr":                c.Cache.RedisAddr,
		"cache.redis_password":            c.Cache.RedisPassword,
		"cache.redis_db":                  c.Cache.RedisDB,
		"cache.ttl":                       c.Cache.TTL.String(),
		"output.format":                   c.Output.Format,
		"output.path":                     c.Output.Path,
		"output.dsn":                      c.Output.DSN,
		"output.split_by_tag":             c.Output.SplitByTag,
		"output.failures":                 c.Output.Failures,
		"refine.strategies":               c.Refine.Strategies,
		"log.level":                       c.Log.Level,
		"log.file":                        c.Log.File,
		"log.max_size":                    c.Log.MaxSize,
		"log.max_backups":                 c.Log.MaxBackups,
		"log.json":                        c.Log.JSON,
	}
}

// Map returns the configuration as nested maps shaped like the config file
func (c *Config) Map() map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range c.settings() {
		section, field, _ := strings.Cut(key, ".")
		m, ok := out[section].(map[string]interface{})
		if !ok {
			m = make(map[string]interface{})
			out[section] = m
		}
		m[field] = value
	}
	return out
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() *Config {
	out := *c
	if out.Cache.RedisPassword != "" {
		out.Cache.RedisPassword = "****"
	}
	if out.Output.DSN != "" {
		out.Output.DSN = redactDSN(out.Output.DSN)
	}
	return &out
}

func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	return fmt.Sprintf("%s://****%s", dsn[:scheme], dsn[at:])
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range c.settings() {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.FileSystemErrorf(err, "failed to create config directory")
	}

	if err := v.WriteConfigAs(path); err != nil {
		return errors.FileSystemErrorf(err, "failed to write config")
	}

	return nil
}
