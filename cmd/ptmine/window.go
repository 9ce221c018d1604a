package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/git"
)

var windowCmd = &cobra.Command{
	Use:   "window <commit> <lo-hours> [hi-hours]",
	Short: "List the commits in a time window after a commit",
	Long: `Print the commits whose committer time lies in [commit+lo, commit+hi).
The commit itself is included when lo is 0. Without hi the window is
unbounded.

Examples:
  ptmine window 3f2a9c1 0 12
  ptmine window 3f2a9c1 12 480`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runWindow,
}

func parseHours(s string) (time.Duration, error) {
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.ValidationErrorf("invalid hour count %q", s)
	}
	return *git.Hours(h), nil
}

func runWindow(cmd *cobra.Command, args []string) error {
	lo, err := parseHours(args[1])
	if err != nil {
		return err
	}
	var hi *time.Duration
	if len(args) == 3 {
		d, err := parseHours(args[2])
		if err != nil {
			return err
		}
		hi = &d
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}

	commits, err := repo.Window(context.Background(), args[0], lo, hi)
	if err != nil {
		return err
	}

	for _, c := range commits {
		subject, _, _ := strings.Cut(c.Message, "\n")
		fmt.Printf("%s  %s  %s\n", c.Hash, c.Timestamp.Format(time.RFC3339), subject)
	}
	return nil
}
