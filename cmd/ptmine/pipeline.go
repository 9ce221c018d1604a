package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/ptmine/internal/cache"
	"github.com/rohankatakam/ptmine/internal/config"
	"github.com/rohankatakam/ptmine/internal/dataset"
	"github.com/rohankatakam/ptmine/internal/dlq"
	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/git"
	"github.com/rohankatakam/ptmine/internal/models"
	"github.com/rohankatakam/ptmine/internal/oracle"
	"github.com/rohankatakam/ptmine/internal/pairing"
	"github.com/rohankatakam/ptmine/internal/refine"
)

// Output flags shared by the commands that write a dataset
var (
	outputPath   string
	outputFormat string
	splitByTag   bool
	failuresPath string
	strategyList []string
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "dataset file, split directory or sqlite file (overrides output.path)")
	cmd.Flags().StringVar(&outputFormat, "format", "", "jsonl, sqlite or postgres (overrides output.format)")
	cmd.Flags().BoolVar(&splitByTag, "split", false, "write positive and negative samples to separate files")
	cmd.Flags().StringVar(&statsFile, "stats-file", "", "write run statistics as YAML to this file")
	cmd.Flags().StringVar(&failuresPath, "failures", "", "record skipped anchors and pairs to this JSONL file (overrides output.failures)")
}

func addRefineFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&strategyList, "strategies", nil, "ordered strategy chain (default: refine.strategies or the built-in chain)")
}

// applyFlags folds command-line overrides into cfg
func applyFlags() {
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if splitByTag {
		cfg.Output.SplitByTag = true
	}
	if len(strategyList) > 0 {
		cfg.Refine.Strategies = strategyList
	}
	if failuresPath != "" {
		cfg.Output.Failures = failuresPath
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func validate(ctx config.ValidationContext) error {
	result := cfg.Validate(ctx)
	for _, warn := range result.Warnings {
		logger.Warn(warn)
	}
	return result.Err()
}

func openRepository() (*git.Repository, error) {
	return git.Open(cfg.Repository.Path,
		git.WithRevision(cfg.Repository.Revision),
		git.WithLogger(logger),
	)
}

func openCache(ctx context.Context) (cache.Store, error) {
	if !cfg.Cache.Enabled {
		return cache.Nop{}, nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   "ptmine",
			TTL:      cfg.Cache.TTL,
		}, logger)
	default:
		return cache.OpenBolt(cfg.Cache.Path)
	}
}

func openWriter(runID string) (dataset.Writer, error) {
	return dataset.Open(dataset.Options{
		Format:     cfg.Output.Format,
		Path:       cfg.Output.Path,
		DSN:        cfg.Output.DSN,
		SplitByTag: cfg.Output.SplitByTag,
		RunID:      runID,
	}, logger)
}

// openFailures returns the failure log, or nil when none is configured
func openFailures(runID string) (*dlq.Queue, error) {
	if cfg.Output.Failures == "" {
		return nil, nil
	}
	return dlq.Open(cfg.Output.Failures, runID, logger)
}

func newGenerator(repo *git.Repository, failures *dlq.Queue) *pairing.Generator {
	opts := pairing.Options{
		Near:    cfg.Windows.Near,
		Far:     cfg.Windows.Far,
		Limit:   cfg.Windows.Limit,
		Since:   sinceTime,
		Until:   untilTime,
		Commits: commitList,
		OnError: func(ctx context.Context, anchor models.CommitRef, err error) {
			if qerr := failures.Enqueue(ctx, dlq.Entry{Stage: dlq.StageGenerate, Commit: anchor.Hash}, err); qerr != nil {
				logger.WithError(qerr).Warn("failed to record failure")
			}
		},
	}
	return pairing.NewGenerator(repo, cfg.Layout, opts, logger)
}

func newEngine(repo *git.Repository, store cache.Store, failures *dlq.Queue) (*refine.Engine, error) {
	strategies, err := refine.Lookup(cfg.Refine.Strategies)
	if err != nil {
		return nil, err
	}

	runner := oracle.NewRunner(cfg.Oracle.Timeout, cfg.Oracle.RateLimit, logger)
	return &refine.Engine{
		Strategies:   strategies,
		Diff:         oracle.NewGumTree(oracle.ParseCommand(cfg.Oracle.GumTreeCommand), runner, store, logger),
		Refactorings: oracle.NewRefactoringMiner(oracle.ParseCommand(cfg.Oracle.RefactoringMinerCommand), runner, store, logger),
		History:      repo,
		RepoPath:     repo.Path(),
		Logger:       logger,
		OnError: func(ctx context.Context, pair models.CandidatePair, err error) {
			entry := dlq.Entry{
				Stage:      dlq.StageRefine,
				Commit:     pair.ProductCommit,
				TestCommit: pair.TestCommit,
				Path:       pair.ProductFilePath,
			}
			if qerr := failures.Enqueue(ctx, entry, err); qerr != nil {
				logger.WithError(qerr).Warn("failed to record failure")
			}
		},
	}, nil
}

// runReport is the document written by --stats-file
type runReport struct {
	RunID    string                 `yaml:"run_id"`
	Command  string                 `yaml:"command"`
	Started  time.Time              `yaml:"started"`
	Finished time.Time              `yaml:"finished"`
	Output   string                 `yaml:"output,omitempty"`
	Failures int                    `yaml:"failures"`
	Generate *pairing.GenerateStats `yaml:"generate,omitempty"`
	Refine   *refine.Stats          `yaml:"refine,omitempty"`
	Dataset  *dataset.Summary       `yaml:"dataset,omitempty"`
}

func newReport(command string) *runReport {
	return &runReport{RunID: uuid.NewString(), Command: command, Started: time.Now().UTC()}
}

func (r *runReport) log() logrus.FieldLogger {
	return logger.WithField("run_id", r.RunID)
}

// finish stamps the report and writes it when --stats-file is set
func (r *runReport) finish(failures *dlq.Queue) error {
	r.Finished = time.Now().UTC()
	r.Failures = failures.Len()
	if r.Failures > 0 {
		fmt.Printf("Failures recorded:  %d (%s)\n", r.Failures, cfg.Output.Failures)
	}
	if statsFile == "" {
		return nil
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, errors.SeverityHigh, "encode run statistics")
	}
	if err := os.MkdirAll(filepath.Dir(statsFile), 0755); err != nil {
		return errors.FileSystemErrorf(err, "create directory for %s", statsFile)
	}
	if err := os.WriteFile(statsFile, data, 0644); err != nil {
		return errors.FileSystemErrorf(err, "write %s", statsFile)
	}
	return nil
}

func printGenerateStats(s pairing.GenerateStats) {
	fmt.Printf("Anchor commits:     %d\n", s.Commits)
	fmt.Printf("Production edits:   %d\n", s.ProductionEdits)
	fmt.Printf("Positive pairs:     %d\n", s.Positive)
	fmt.Printf("Negative pairs:     %d\n", s.Negative)
	fmt.Printf("Missing content:    %d\n", s.MissingContent)
	if s.Errors > 0 {
		fmt.Printf("Skipped (errors):   %d\n", s.Errors)
	}
}

func printRefineStats(s refine.Stats) {
	fmt.Printf("Pairs read:         %d\n", s.Total)
	fmt.Printf("Kept:               %d (positive %d, negative %d)\n", s.Kept, s.Positive, s.Negative)
	fmt.Printf("Dropped:            %d\n", s.Dropped)
	fmt.Printf("Negative→positive:  %d\n", s.Promoted)
	fmt.Printf("Positive→negative:  %d\n", s.Demoted)
	if s.Skipped > 0 {
		fmt.Printf("Already refined:    %d\n", s.Skipped)
	}
	if s.Errors > 0 {
		fmt.Printf("Oracle failures:    %d\n", s.Errors)
	}
	for _, name := range refine.Names() {
		if n := s.ByStrategy[name]; n > 0 {
			fmt.Printf("  %-28s %d\n", name, n)
		}
	}
}
