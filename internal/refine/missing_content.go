package refine

import (
	"context"

	"github.com/rohankatakam/ptmine/internal/models"
)

// missingContent forces pairs with any absent pre/post content to negative.
// It never calls an oracle and always ends the chain when it fires.
type missingContent struct{}

func (missingContent) Name() string { return MissingContent }

func (missingContent) Applies(models.Tag) bool { return true }

func (missingContent) Evaluate(ctx context.Context, in *Input) (Verdict, error) {
	if in.Pair.HasAllContent() {
		return VerdictNone, nil
	}
	return VerdictDemote, nil
}
