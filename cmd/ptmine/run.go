package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/ptmine/internal/config"
	"github.com/rohankatakam/ptmine/internal/models"
	"github.com/rohankatakam/ptmine/internal/refine"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and refine in one streamed pass",
	Long: `Generate candidate pairs and refine each one as soon as it is produced.
Only refined pairs are written.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	addOutputFlags(runCmd)
	addAnchorFlags(runCmd)
	addRefineFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	applyFlags()
	if err := applyAnchorFlags(); err != nil {
		return err
	}
	if err := validate(config.ValidationContextAll); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	report := newReport("run")
	log := report.log()

	repo, err := openRepository()
	if err != nil {
		return err
	}

	store, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	failures, err := openFailures(report.RunID)
	if err != nil {
		return err
	}
	defer failures.Close()

	engine, err := newEngine(repo, store, failures)
	if err != nil {
		return err
	}

	writer, err := openWriter(report.RunID)
	if err != nil {
		return err
	}

	refineStats := refine.NewStats()
	sink := func(ctx context.Context, pair models.CandidatePair) error {
		return engine.Process(ctx, pair, writer.Write, &refineStats)
	}

	log.WithField("repo", repo.Path()).Info("mining and refining candidate pairs")
	genStats, err := newGenerator(repo, failures).Generate(ctx, sink)
	if cerr := writer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	report.Output = cfg.Output.Path
	report.Generate = &genStats
	report.Refine = &refineStats
	printGenerateStats(genStats)
	fmt.Println()
	printRefineStats(refineStats)
	fmt.Printf("Output:             %s\n", cfg.Output.Path)
	return report.finish(failures)
}
