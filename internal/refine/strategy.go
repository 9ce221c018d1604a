package refine

import (
	"context"
	"sort"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// Verdict is a strategy's decision for one pair
type Verdict int

const (
	// VerdictNone leaves the pair to the next strategy
	VerdictNone Verdict = iota
	// VerdictPromote sets the tag to positive
	VerdictPromote
	// VerdictDemote sets the tag to negative
	VerdictDemote
	// VerdictDrop removes the pair from the output
	VerdictDrop
)

func (v Verdict) String() string {
	switch v {
	case VerdictPromote:
		return "promote"
	case VerdictDemote:
		return "demote"
	case VerdictDrop:
		return "drop"
	default:
		return "none"
	}
}

// Strategy is one labeling heuristic. Applies gates it on the pair's
// current tag; Evaluate may call the oracles through the Input.
type Strategy interface {
	Name() string
	Applies(tag models.Tag) bool
	Evaluate(ctx context.Context, in *Input) (Verdict, error)
}

// Strategy names, in their default order
const (
	MissingContent           = "missing-content"
	NonEvaluable             = "non-evaluable"
	PromoteAdditive          = "promote-additive"
	DemoteInterference       = "demote-interference"
	DemoteImportOnly         = "demote-import-only"
	DemoteLexical            = "demote-lexical"
	DemoteAnnotationRefactor = "demote-annotation-refactor"
)

// DefaultOrder is the standard strategy chain
var DefaultOrder = []string{
	MissingContent,
	NonEvaluable,
	PromoteAdditive,
	DemoteInterference,
	DemoteImportOnly,
	DemoteLexical,
	DemoteAnnotationRefactor,
}

var registry = map[string]func() Strategy{
	MissingContent:           func() Strategy { return missingContent{} },
	NonEvaluable:             func() Strategy { return nonEvaluable{} },
	PromoteAdditive:          func() Strategy { return promoteAdditive{} },
	DemoteInterference:       func() Strategy { return demoteInterference{} },
	DemoteImportOnly:         func() Strategy { return demoteImportOnly{} },
	DemoteLexical:            func() Strategy { return demoteLexical{} },
	DemoteAnnotationRefactor: func() Strategy { return demoteAnnotationRefactor{} },
}

// Names lists the registered strategies alphabetically
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup builds the ordered chain for names. An empty list yields DefaultOrder.
func Lookup(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		names = DefaultOrder
	}

	seen := make(map[string]bool, len(names))
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		ctor, ok := registry[name]
		if !ok {
			return nil, errors.ConfigErrorf("unknown refinement strategy %q (known: %v)", name, Names())
		}
		if seen[name] {
			return nil, errors.ConfigErrorf("refinement strategy %q listed twice", name)
		}
		seen[name] = true
		out = append(out, ctor())
	}
	return out, nil
}
