package refine

import (
	"context"

	"github.com/rohankatakam/ptmine/internal/editscript"
	"github.com/rohankatakam/ptmine/internal/models"
)

// demoteAnnotationRefactor demotes a positive pair when the production side
// only changed annotations or modifiers and every other test edit is
// explained by a refactoring detected in the test commit.
type demoteAnnotationRefactor struct{}

func (demoteAnnotationRefactor) Name() string { return DemoteAnnotationRefactor }

func (demoteAnnotationRefactor) Applies(tag models.Tag) bool { return tag == models.TagPositive }

func (demoteAnnotationRefactor) Evaluate(ctx context.Context, in *Input) (Verdict, error) {
	product, test, err := in.Scripts(ctx)
	if err != nil {
		return VerdictNone, err
	}
	if !product.Every(isAnnotationOrModifier) {
		return VerdictNone, nil
	}

	pre := in.Document(Test, false)

	type offsetRange struct{ start, end int }
	var residual []offsetRange
	for _, a := range test {
		if isAnnotationOrModifier(a) || !a.Node.HasSpan {
			continue
		}
		s, e := pre.Offsets(a.Node.Span)
		residual = append(residual, offsetRange{s, e})
	}
	if len(residual) == 0 {
		return VerdictDemote, nil
	}

	refactorings, err := in.Refactorings(ctx)
	if err != nil {
		return VerdictNone, err
	}

	for _, span := range editscript.LeftSideSpans(refactorings) {
		rs, re := pre.Offsets(span)
		kept := residual[:0]
		for _, r := range residual {
			// Only full containment explains an edit
			if rs <= r.start && re >= r.end {
				continue
			}
			kept = append(kept, r)
		}
		residual = kept
		if len(residual) == 0 {
			return VerdictDemote, nil
		}
	}
	return VerdictNone, nil
}
