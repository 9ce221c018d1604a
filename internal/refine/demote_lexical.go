package refine

import (
	"context"

	"github.com/rohankatakam/ptmine/internal/editscript"
	"github.com/rohankatakam/ptmine/internal/models"
)

// demoteLexical demotes a positive pair whose edited regions share no token
type demoteLexical struct{}

func (demoteLexical) Name() string { return DemoteLexical }

func (demoteLexical) Applies(tag models.Tag) bool { return tag == models.TagPositive }

func (demoteLexical) Evaluate(ctx context.Context, in *Input) (Verdict, error) {
	product, test, err := in.Scripts(ctx)
	if err != nil {
		return VerdictNone, err
	}

	if editTokens(in, Product, product).intersects(editTokens(in, Test, test)) {
		return VerdictNone, nil
	}
	return VerdictDemote, nil
}

// editTokens collects the tokens of every edited region, using the parent
// node's span when the action has one.
func editTokens(in *Input, side Side, script editscript.Script) stringSet {
	out := make(stringSet)
	for _, a := range script {
		span, ok := a.TargetSpan()
		if !ok {
			continue
		}
		for _, tok := range tokenize(in.ActionDocument(side, a).Slice(span)) {
			out.add(tok)
		}
	}
	return out
}
