package refine

import (
	"context"
	"strings"

	"github.com/rohankatakam/ptmine/internal/editscript"
	"github.com/rohankatakam/ptmine/internal/models"
)

// demoteImportOnly demotes a positive pair when both sides only changed
// imports and the two import sets share nothing.
type demoteImportOnly struct{}

func (demoteImportOnly) Name() string { return DemoteImportOnly }

func (demoteImportOnly) Applies(tag models.Tag) bool { return tag == models.TagPositive }

func (demoteImportOnly) Evaluate(ctx context.Context, in *Input) (Verdict, error) {
	product, test, err := in.Scripts(ctx)
	if err != nil {
		return VerdictNone, err
	}
	if !product.Every(isImportAction) || !test.Every(isImportAction) {
		return VerdictNone, nil
	}

	productImports := importTexts(in, Product, product)
	testImports := importTexts(in, Test, test)
	if productImports.intersects(testImports) {
		return VerdictNone, nil
	}
	return VerdictDemote, nil
}

// importTexts extracts the literal import statements touched by script.
// Actions without a span contribute nothing.
func importTexts(in *Input, side Side, script editscript.Script) stringSet {
	out := make(stringSet)
	for _, a := range script {
		if !a.Node.HasSpan {
			continue
		}
		doc := in.ActionDocument(side, a)
		start, end := doc.Offsets(a.Node.Span)
		if a.Node.HasPrefix(labelQualifiedName) {
			start -= importKeywordWidth
		}

		text := strings.TrimSpace(doc.SliceRange(start, end))
		if strings.Contains(text, "import") {
			out.add(text)
		}
	}
	return out
}
