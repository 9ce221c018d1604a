package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/ptmine/internal/config"
	"github.com/rohankatakam/ptmine/internal/dataset"
	"github.com/rohankatakam/ptmine/internal/errors"
)

var refineCmd = &cobra.Command{
	Use:   "refine <input.jsonl>",
	Short: "Refine the labels of a generated dataset",
	Long: `Run the strategy chain over every pair of a dataset and write the
surviving pairs with their refined tags. Pairs refined by an earlier pass
are passed through unchanged.

Examples:
  ptmine refine pairs.jsonl -o refined.jsonl
  ptmine refine pairs.jsonl -o refined.jsonl --strategies missing-content,non-evaluable`,
	Args: cobra.ExactArgs(1),
	RunE: runRefine,
}

func init() {
	addOutputFlags(refineCmd)
	addRefineFlags(refineCmd)
}

func runRefine(cmd *cobra.Command, args []string) error {
	input := args[0]
	applyFlags()
	if cfg.Output.Format == dataset.FormatJSONL && !cfg.Output.SplitByTag && cfg.Output.Path == input {
		return errors.ValidationErrorf("refusing to refine %s in place, choose another --output", input)
	}
	if err := validate(config.ValidationContextRefine); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	report := newReport("refine")
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

	log.WithField("input", input).Info("refining candidate pairs")
	stats, err := engine.Run(ctx, dataset.Source(input), writer.Write)
	if cerr := writer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	report.Output = cfg.Output.Path
	report.Refine = &stats
	printRefineStats(stats)
	fmt.Printf("Output:             %s\n", cfg.Output.Path)
	return report.finish(failures)
}
