package refine

import "github.com/rohankatakam/ptmine/internal/models"

// Stats summarizes one refinement pass
type Stats struct {
	Total    int `json:"total" yaml:"total"`
	Kept     int `json:"kept" yaml:"kept"`
	Dropped  int `json:"dropped" yaml:"dropped"`
	Promoted int `json:"promoted" yaml:"promoted"`
	Demoted  int `json:"demoted" yaml:"demoted"`
	// Skipped counts pairs already refined by an earlier pass
	Skipped int `json:"skipped" yaml:"skipped"`
	Errors  int `json:"errors" yaml:"errors"`

	// ByStrategy counts tag changes and drops per strategy
	ByStrategy map[string]int `json:"by_strategy" yaml:"by_strategy"`

	// Tags of the emitted pairs
	Positive int `json:"positive" yaml:"positive"`
	Negative int `json:"negative" yaml:"negative"`
}

// NewStats returns zeroed statistics
func NewStats() Stats {
	return Stats{ByStrategy: make(map[string]int)}
}

func (s *Stats) record(out Outcome) {
	if s.ByStrategy == nil {
		s.ByStrategy = make(map[string]int)
	}
	s.Total++

	switch {
	case out.Skipped:
		s.Skipped++
	case out.Dropped:
		s.Dropped++
		s.ByStrategy[out.Strategy]++
		return
	case out.Verdict == VerdictPromote:
		s.Promoted++
		s.ByStrategy[out.Strategy]++
	case out.Verdict == VerdictDemote && out.Changed:
		s.Demoted++
		s.ByStrategy[out.Strategy]++
	}

	s.Kept++
	if out.Pair.Tag == models.TagPositive {
		s.Positive++
	} else {
		s.Negative++
	}
}
