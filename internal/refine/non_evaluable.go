package refine

import (
	"context"

	"github.com/rohankatakam/ptmine/internal/models"
)

// nonEvaluable drops pairs whose edit scripts carry no usable signal:
// a positive pair with an empty script on either side, or any pair whose
// scripts only touch comment text.
type nonEvaluable struct{}

func (nonEvaluable) Name() string { return NonEvaluable }

func (nonEvaluable) Applies(models.Tag) bool { return true }

func (nonEvaluable) Evaluate(ctx context.Context, in *Input) (Verdict, error) {
	product, test, err := in.Scripts(ctx)
	if err != nil {
		return VerdictNone, err
	}

	if product.Empty() || test.Empty() {
		if in.Pair.Tag == models.TagPositive {
			return VerdictDrop, nil
		}
		return VerdictNone, nil
	}

	if product.Every(isTextElement) && test.Every(isTextElement) {
		return VerdictDrop, nil
	}
	return VerdictNone, nil
}
