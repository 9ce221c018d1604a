package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/ptmine/internal/dataset"
	"github.com/rohankatakam/ptmine/internal/errors"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export <dataset.jsonl> <index>",
	Short: "Write the four contents of one pair to files for inspection",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "pair", "directory to write the files into")
}

func runExport(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil || index < 0 {
		return errors.ValidationErrorf("index must be a non-negative integer, got %q", args[1])
	}

	pair, err := dataset.Nth(context.Background(), args[0], index)
	if err != nil {
		return err
	}

	files, err := dataset.Export(pair, exportDir)
	if err != nil {
		return err
	}

	fmt.Printf("%s pair %s -> %s\n", pair.Tag, pair.ProductCommit, pair.TestCommit)
	for _, f := range files {
		fmt.Printf("  %s\n", f)
	}
	return nil
}
