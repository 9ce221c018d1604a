package refine

import (
	"context"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/ptmine/internal/editscript"
	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// Side selects the production or the test half of a pair
type Side int

const (
	Product Side = iota
	Test
)

func (s Side) String() string {
	if s == Test {
		return "test"
	}
	return "product"
}

// Input is a pair under evaluation. Edit scripts, refactorings and indexed
// documents are computed on first use and shared by every strategy in the
// chain.
type Input struct {
	Pair *models.CandidatePair

	engine *Engine

	scripts       [2]editscript.Script
	scriptsLoaded [2]bool

	refactorings       []editscript.Refactoring
	refactoringsLoaded bool

	docs map[docKey]*editscript.Document
}

type docKey struct {
	side Side
	post bool
}

func newInput(e *Engine, pair *models.CandidatePair) *Input {
	return &Input{Pair: pair, engine: e, docs: make(map[docKey]*editscript.Document)}
}

// Script returns the edit script of one side, invoking the diff oracle once
func (in *Input) Script(ctx context.Context, side Side) (editscript.Script, error) {
	if in.scriptsLoaded[side] {
		return in.scripts[side], nil
	}

	old, cur := in.content(side, false), in.content(side, true)
	if old == nil || cur == nil {
		return nil, errors.MissingContentf("%s content missing for %s", side, in.path(side))
	}
	if in.engine.Diff == nil {
		return nil, errors.OracleErrorf(nil, "no diff oracle configured")
	}

	script, err := in.engine.Diff.Diff(ctx, *old, *cur, path.Ext(in.path(side)))
	if err != nil {
		return nil, err
	}
	in.scripts[side] = script
	in.scriptsLoaded[side] = true
	return script, nil
}

// Scripts returns both edit scripts. The two sides are diffed concurrently.
func (in *Input) Scripts(ctx context.Context) (product, test editscript.Script, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := in.Script(gctx, Product)
		return err
	})
	g.Go(func() error {
		_, err := in.Script(gctx, Test)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return in.scripts[Product], in.scripts[Test], nil
}

// Refactorings returns the refactorings detected in the test commit
func (in *Input) Refactorings(ctx context.Context) ([]editscript.Refactoring, error) {
	if in.refactoringsLoaded {
		return in.refactorings, nil
	}
	if in.engine.Refactorings == nil {
		return nil, errors.OracleErrorf(nil, "no refactoring oracle configured")
	}

	refs, err := in.engine.Refactorings.Refactorings(ctx, in.engine.RepoPath, in.Pair.TestCommit)
	if err != nil {
		return nil, err
	}
	in.refactorings = refs
	in.refactoringsLoaded = true
	return refs, nil
}

// History exposes commit-interval and changed-path lookups
func (in *Input) History() HistoryView {
	return in.engine.History
}

// Document returns the indexed pre- or post-content of one side. Absent
// content yields an empty document.
func (in *Input) Document(side Side, post bool) *editscript.Document {
	key := docKey{side: side, post: post}
	if d, ok := in.docs[key]; ok {
		return d
	}
	d := editscript.NewDocument(models.Deref(in.content(side, post)))
	in.docs[key] = d
	return d
}

// ActionDocument returns the content an action's span refers to:
// post-content for inserts, pre-content otherwise.
func (in *Input) ActionDocument(side Side, a editscript.Action) *editscript.Document {
	return in.Document(side, a.Kind == editscript.KindInsert)
}

func (in *Input) content(side Side, post bool) *string {
	p := in.Pair
	switch {
	case side == Product && !post:
		return p.ProductOld
	case side == Product:
		return p.ProductNew
	case !post:
		return p.TestOld
	default:
		return p.TestNew
	}
}

func (in *Input) path(side Side) string {
	if side == Test {
		return in.Pair.TestFilePath
	}
	return in.Pair.ProductFilePath
}
