package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/ptmine/internal/config"
	"github.com/rohankatakam/ptmine/internal/dlq"
	"github.com/rohankatakam/ptmine/internal/errors"
)

var (
	sinceFlag  string
	untilFlag  string
	limitFlag  int
	commitList []string
	retryFile  string

	sinceTime time.Time
	untilTime time.Time
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate candidate pairs from the commit history",
	Long: `Walk the commit history and pair every production file change with the
test changes committed in the positive window (tagged positive) and the
negative window (tagged negative) after it.

Examples:
  # Mine the repository in the current directory
  ptmine generate -o pairs.jsonl

  # Only anchors from 2023, at most 100 of them
  ptmine generate --since 2023-01-01 --until 2024-01-01 --limit 100`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	addOutputFlags(generateCmd)
	addAnchorFlags(generateCmd)
}

func addAnchorFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sinceFlag, "since", "", "only anchor commits at or after this date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&untilFlag, "until", "", "only anchor commits before this date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "stop after this many anchor commits with production edits (overrides windows.limit)")
	cmd.Flags().StringSliceVar(&commitList, "commit", nil, "mine only these anchor commits")
	cmd.Flags().StringVar(&retryFile, "retry", "", "mine only the anchors recorded as failed in this failure log")
}

// applyAnchorFlags parses the date filters and folds the limit into cfg
func applyAnchorFlags() error {
	var err error
	if sinceTime, err = parseDate(sinceFlag); err != nil {
		return err
	}
	if untilTime, err = parseDate(untilFlag); err != nil {
		return err
	}
	if limitFlag > 0 {
		cfg.Windows.Limit = limitFlag
	}
	if retryFile != "" {
		entries, err := dlq.Read(retryFile)
		if err != nil {
			return err
		}
		retry := dlq.Commits(entries, dlq.StageGenerate)
		if len(retry) == 0 {
			return errors.ValidationErrorf("%s records no failed anchors", retryFile)
		}
		commitList = append(commitList, retry...)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.ValidationErrorf("invalid date %q, expected YYYY-MM-DD or RFC3339", s)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	applyFlags()
	if err := applyAnchorFlags(); err != nil {
		return err
	}
	if err := validate(config.ValidationContextGenerate); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	report := newReport("generate")
	log := report.log()

	repo, err := openRepository()
	if err != nil {
		return err
	}

	failures, err := openFailures(report.RunID)
	if err != nil {
		return err
	}
	defer failures.Close()

	writer, err := openWriter(report.RunID)
	if err != nil {
		return err
	}

	log.WithField("repo", repo.Path()).Info("generating candidate pairs")
	stats, err := newGenerator(repo, failures).Generate(ctx, writer.Write)
	if cerr := writer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	report.Output = cfg.Output.Path
	report.Generate = &stats
	printGenerateStats(stats)
	fmt.Printf("Output:             %s\n", cfg.Output.Path)
	return report.finish(failures)
}
