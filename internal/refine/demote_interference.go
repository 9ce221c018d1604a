package refine

import (
	"context"

	"github.com/rohankatakam/ptmine/internal/models"
)

// demoteInterference demotes a positive pair when another commit also
// edited the production file before the test edit landed. Paths are
// compared exactly.
type demoteInterference struct{}

func (demoteInterference) Name() string { return DemoteInterference }

func (demoteInterference) Applies(tag models.Tag) bool { return tag == models.TagPositive }

func (demoteInterference) Evaluate(ctx context.Context, in *Input) (Verdict, error) {
	p := in.Pair
	if p.ProductCommit == p.TestCommit {
		return VerdictNone, nil
	}

	history := in.History()
	if history == nil {
		return VerdictNone, nil
	}

	between, err := history.Between(ctx, p.ProductCommit, p.TestCommit)
	if err != nil {
		return VerdictNone, err
	}
	for _, c := range between {
		changed, err := history.ChangedPaths(ctx, c.Hash)
		if err != nil {
			return VerdictNone, err
		}
		if touches(changed, p.ProductFilePath) {
			return VerdictDemote, nil
		}
	}

	// The test commit is expected to touch only the test side
	changed, err := history.ChangedPaths(ctx, p.TestCommit)
	if err != nil {
		return VerdictNone, err
	}
	if touches(changed, p.ProductFilePath) {
		return VerdictDemote, nil
	}
	return VerdictNone, nil
}
