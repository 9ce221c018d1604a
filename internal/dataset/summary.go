package dataset

import (
	"context"

	"github.com/rohankatakam/ptmine/internal/models"
)

// Summary counts the records of a dataset
type Summary struct {
	Total          int            `json:"total" yaml:"total"`
	Positive       int            `json:"positive" yaml:"positive"`
	Negative       int            `json:"negative" yaml:"negative"`
	MissingContent int            `json:"missing_content" yaml:"missing_content"`
	RefinedBy      map[string]int `json:"refined_by" yaml:"refined_by"`
	Commits        int            `json:"commits" yaml:"commits"`
}

// Summarize reads every record from source and tallies it
func Summarize(ctx context.Context, source func(context.Context, func(models.CandidatePair) error) error) (Summary, error) {
	s := Summary{RefinedBy: make(map[string]int)}
	commits := make(map[string]struct{})

	err := source(ctx, func(p models.CandidatePair) error {
		s.Total++
		switch p.Tag {
		case models.TagPositive:
			s.Positive++
		case models.TagNegative:
			s.Negative++
		}
		if !p.HasAllContent() {
			s.MissingContent++
		}
		if p.RefinedBy != "" {
			s.RefinedBy[p.RefinedBy]++
		}
		commits[p.ProductCommit] = struct{}{}
		return nil
	})
	s.Commits = len(commits)
	return s, err
}
