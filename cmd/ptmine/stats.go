package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/ptmine/internal/dataset"
)

var statsYAML bool

var statsCmd = &cobra.Command{
	Use:   "stats <dataset.jsonl>",
	Short: "Summarize a dataset file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsYAML, "yaml", false, "print the summary as YAML")
}

func runStats(cmd *cobra.Command, args []string) error {
	summary, err := dataset.Summarize(context.Background(), dataset.Source(args[0]))
	if err != nil {
		return err
	}

	if statsYAML {
		return yaml.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Printf("Pairs:            %d\n", summary.Total)
	fmt.Printf("  positive:       %d\n", summary.Positive)
	fmt.Printf("  negative:       %d\n", summary.Negative)
	fmt.Printf("Anchor commits:   %d\n", summary.Commits)
	fmt.Printf("Missing content:  %d\n", summary.MissingContent)

	if len(summary.RefinedBy) > 0 {
		names := make([]string, 0, len(summary.RefinedBy))
		for name := range summary.RefinedBy {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("Refined by:")
		for _, name := range names {
			fmt.Printf("  %-28s %d\n", name, summary.RefinedBy[name])
		}
	}
	return nil
}
