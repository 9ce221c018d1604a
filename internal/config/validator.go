package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/refine"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextGenerate - candidate generation needs the repository, layout and windows
	ValidationContextGenerate ValidationContext = "generate"
	// ValidationContextRefine - refinement needs the oracles and the strategy chain
	ValidationContextRefine ValidationContext = "refine"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ❌ %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠️  %s\n", warn))
		}
	}

	return sb.String()
}

// Err returns a critical ConfigError when validation failed, nil otherwise
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigError(strings.TrimSpace(vr.Error()))
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextGenerate:
		c.validateRepository(result)
		c.validateLayout(result)
		c.validateWindows(result)
		c.validateOutput(result)
	case ValidationContextRefine:
		c.validateRepository(result)
		c.validateOracle(result)
		c.validateCache(result)
		c.validateRefine(result)
		c.validateOutput(result)
	case ValidationContextAll:
		c.validateRepository(result)
		c.validateLayout(result)
		c.validateWindows(result)
		c.validateOracle(result)
		c.validateCache(result)
		c.validateRefine(result)
		c.validateOutput(result)
	}
	c.validateLog(result)

	return result
}

func (c *Config) validateRepository(result *ValidationResult) {
	if c.Repository.Path == "" {
		result.AddError("repository.path is required but not set")
		return
	}
	info, err := os.Stat(c.Repository.Path)
	if err != nil || !info.IsDir() {
		result.AddError("repository.path %q is not a directory", c.Repository.Path)
	}
}

func (c *Config) validateLayout(result *ValidationResult) {
	l := c.Layout
	if l.SourceRoot == "" {
		result.AddError("layout.source_root is required but not set")
	}
	if l.TestRoot == "" {
		result.AddError("layout.test_root is required but not set")
	}
	if l.SourceRoot != "" && strings.Trim(l.SourceRoot, "/") == strings.Trim(l.TestRoot, "/") {
		result.AddError("layout.source_root and layout.test_root must differ")
	}
	if !strings.HasPrefix(l.Extension, ".") || len(l.Extension) < 2 {
		result.AddError("layout.extension must look like \".java\", got %q", l.Extension)
	}
	if len(l.TestSuffixes) == 0 {
		result.AddError("layout.test_suffixes must name at least one suffix")
	}
}

func (c *Config) validateWindows(result *ValidationResult) {
	w := c.Windows
	if w.Near <= 0 {
		result.AddError("windows.near must be positive, got %s", w.Near)
	}
	if w.Far <= w.Near {
		result.AddError("windows.far (%s) must be greater than windows.near (%s)", w.Far, w.Near)
	}
	if w.Limit < 0 {
		result.AddWarning("windows.limit is negative, all commits will be processed")
	}
}

func (c *Config) validateOracle(result *ValidationResult) {
	o := c.Oracle
	if strings.TrimSpace(o.GumTreeCommand) == "" {
		result.AddError("oracle.gumtree_command is required but not set")
	}
	if strings.TrimSpace(o.RefactoringMinerCommand) == "" {
		result.AddWarning("oracle.refactoringminer_command is not set, annotation refactoring checks will fail")
	}
	if o.Timeout <= 0 {
		result.AddError("oracle.timeout must be positive, got %s", o.Timeout)
	}
	if o.RateLimit < 0 {
		result.AddError("oracle.rate_limit must not be negative, got %.2f", o.RateLimit)
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if !c.Cache.Enabled {
		return
	}
	switch c.Cache.Backend {
	case "bolt":
		if c.Cache.Path == "" {
			result.AddError("cache.path is required for the bolt cache")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			result.AddError("cache.redis_addr (or REDIS_ADDR) is required for the redis cache")
		}
	default:
		result.AddError("cache.backend must be bolt or redis, got %q", c.Cache.Backend)
	}
}

func (c *Config) validateRefine(result *ValidationResult) {
	if _, err := refine.Lookup(c.Refine.Strategies); err != nil {
		result.AddError("refine.strategies: %v (known: %s)", err, strings.Join(refine.Names(), ", "))
	}
}

func (c *Config) validateOutput(result *ValidationResult) {
	o := c.Output
	switch o.Format {
	case "jsonl":
		if o.Path == "" {
			result.AddError("output.path is required for jsonl output")
		}
	case "sqlite":
		if o.Path == "" && o.DSN == "" {
			result.AddError("output.path or output.dsn is required for sqlite output")
		}
		if o.SplitByTag {
			result.AddWarning("output.split_by_tag only applies to jsonl output")
		}
	case "postgres":
		if o.DSN == "" {
			result.AddError("output.dsn (or POSTGRES_DSN) is required for postgres output")
		} else if !strings.HasPrefix(o.DSN, "postgres://") && !strings.HasPrefix(o.DSN, "postgresql://") {
			result.AddError("output.dsn must start with postgres:// or postgresql://")
		} else if strings.Contains(o.DSN, "sslmode=disable") {
			result.AddWarning("PostgreSQL DSN has sslmode=disable")
		}
	default:
		result.AddError("output.format must be jsonl, sqlite or postgres, got %q", o.Format)
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		result.AddError("log.level: %v", err)
	}
	if c.Log.File != "" && c.Log.MaxSize <= 0 {
		result.AddWarning("log.max_size is not positive, log rotation is disabled")
	}
}
