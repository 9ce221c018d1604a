package refine

import (
	"context"

	"github.com/rohankatakam/ptmine/internal/editscript"
	"github.com/rohankatakam/ptmine/internal/models"
)

// promoteAdditive promotes a negative pair when both sides are pure
// insertions/deletions and nothing else touched either file in between.
type promoteAdditive struct{}

func (promoteAdditive) Name() string { return PromoteAdditive }

func (promoteAdditive) Applies(tag models.Tag) bool { return tag == models.TagNegative }

func (promoteAdditive) Evaluate(ctx context.Context, in *Input) (Verdict, error) {
	product, test, err := in.Scripts(ctx)
	if err != nil {
		return VerdictNone, err
	}
	if !product.Every(editscript.Action.IsAdditive) || !test.Every(editscript.Action.IsAdditive) {
		return VerdictNone, nil
	}

	p := in.Pair
	if p.ProductCommit == p.TestCommit {
		return VerdictPromote, nil
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
		if touches(changed, p.ProductFilePath) || touches(changed, p.TestFilePath) {
			return VerdictNone, nil
		}
	}

	// Boundary commits may only touch their own file
	productChanged, err := history.ChangedPaths(ctx, p.ProductCommit)
	if err != nil {
		return VerdictNone, err
	}
	if touches(productChanged, p.TestFilePath) {
		return VerdictNone, nil
	}
	testChanged, err := history.ChangedPaths(ctx, p.TestCommit)
	if err != nil {
		return VerdictNone, err
	}
	if touches(testChanged, p.ProductFilePath) {
		return VerdictNone, nil
	}

	return VerdictPromote, nil
}
