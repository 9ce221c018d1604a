package pairing

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// History is the slice of the revision history the generator needs.
// *git.Repository satisfies it.
type History interface {
	Commits(ctx context.Context) ([]models.CommitRef, error)
	Commit(ctx context.Context, hash string) (models.CommitRef, error)
	Window(ctx context.Context, anchor string, lo time.Duration, hi *time.Duration) ([]models.CommitRef, error)
	ChangedPaths(ctx context.Context, hash string) ([]string, error)
	Content(ctx context.Context, hash, path string) (*string, *string, error)
}

// Sink receives each generated pair. Returning an error aborts the run.
type Sink func(ctx context.Context, pair models.CandidatePair) error

// Options bound the windows and select which anchor commits are mined
type Options struct {
	// Near is the width of the positive window starting at the anchor
	Near time.Duration
	// Far is the upper bound of the negative window, starting at Near
	Far time.Duration

	Since time.Time
	Until time.Time
	// Limit caps the number of anchors with production edits; 0 means no cap
	Limit int
	// Commits restricts mining to the given anchors
	Commits []string

	// OnError, when set, is told about every anchor skipped after a failure
	OnError func(ctx context.Context, anchor models.CommitRef, err error)
}

// DefaultOptions uses a 12h positive window and a 12h-480h negative window
func DefaultOptions() Options {
	return Options{Near: 12 * time.Hour, Far: 480 * time.Hour}
}

// GenerateStats summarizes one generation run
type GenerateStats struct {
	Commits         int `json:"commits" yaml:"commits"`
	ProductionEdits int `json:"production_edits" yaml:"production_edits"`
	Positive        int `json:"positive" yaml:"positive"`
	Negative        int `json:"negative" yaml:"negative"`
	MissingContent  int `json:"missing_content" yaml:"missing_content"`
	Errors          int `json:"errors" yaml:"errors"`
}

// Generator pairs production edits with test edits found in the
// surrounding commit windows.
type Generator struct {
	history History
	layout  Layout
	opts    Options
	logger  logrus.FieldLogger

	changed map[string][]string
}

// NewGenerator creates a generator over history
func NewGenerator(history History, layout Layout, opts Options, logger logrus.FieldLogger) *Generator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Generator{
		history: history,
		layout:  layout,
		opts:    opts,
		logger:  logger,
		changed: make(map[string][]string),
	}
}

// Generate mines every selected anchor commit in chronological order and
// streams pairs to sink. Per-anchor failures are logged and counted;
// sink failures and cancellation abort the run.
func (g *Generator) Generate(ctx context.Context, sink Sink) (GenerateStats, error) {
	var stats GenerateStats

	anchors, err := g.anchors(ctx, &stats)
	if err != nil {
		return stats, err
	}

	for _, anchor := range anchors {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if g.opts.Limit > 0 && stats.Commits >= g.opts.Limit {
			break
		}

		err := g.GenerateForCommit(ctx, anchor, sink, &stats)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if errors.IsFatal(err) {
			return stats, err
		}
		g.skip(ctx, anchor, err, &stats)
	}

	return stats, nil
}

// skip records a failed anchor and reports it to OnError
func (g *Generator) skip(ctx context.Context, anchor models.CommitRef, err error, stats *GenerateStats) {
	stats.Errors++
	g.logger.WithFields(logrus.Fields{"commit": anchor.Hash, "error": err}).Warn("skipping anchor commit")
	if g.opts.OnError != nil {
		g.opts.OnError(ctx, anchor, err)
	}
}

// GenerateForCommit mines a single anchor commit. Statistics are
// accumulated into stats.
func (g *Generator) GenerateForCommit(ctx context.Context, anchor models.CommitRef, sink Sink, stats *GenerateStats) error {
	changed, err := g.changedPaths(ctx, anchor.Hash)
	if err != nil {
		return err
	}

	products := g.layout.ProductionPaths(changed)
	if len(products) == 0 {
		return nil
	}

	positiveWindow, err := g.history.Window(ctx, anchor.Hash, 0, &g.opts.Near)
	if err != nil {
		return err
	}
	negativeWindow, err := g.history.Window(ctx, anchor.Hash, g.opts.Near, &g.opts.Far)
	if err != nil {
		return err
	}

	stats.Commits++
	log := g.logger.WithField("commit", anchor.Hash)

	for _, product := range products {
		stats.ProductionEdits++

		for _, c := range positiveWindow {
			testPath, ok, err := g.uniqueMatch(ctx, c.Hash, product)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := g.emit(ctx, sink, stats, models.TagPositive, anchor.Hash, product, c.Hash, testPath); err != nil {
				return err
			}
			break
		}

		for _, c := range negativeWindow {
			// The anchor belongs to the positive window only
			if c.Hash == anchor.Hash {
				continue
			}
			testPath, ok, err := g.uniqueMatch(ctx, c.Hash, product)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := g.emit(ctx, sink, stats, models.TagNegative, anchor.Hash, product, c.Hash, testPath); err != nil {
				return err
			}
		}
	}

	log.WithFields(logrus.Fields{
		"production_files": len(products),
		"positive_window":  len(positiveWindow),
		"negative_window":  len(negativeWindow),
	}).Debug("mined anchor commit")
	return nil
}

// uniqueMatch reports the single derived test path commit touched for product.
// Zero or several matches yield ok == false.
func (g *Generator) uniqueMatch(ctx context.Context, commit, product string) (string, bool, error) {
	changed, err := g.changedPaths(ctx, commit)
	if err != nil {
		return "", false, err
	}
	matches := g.layout.MatchTestPaths(changed, product)
	if len(matches) != 1 {
		return "", false, nil
	}
	return matches[0], true, nil
}

func (g *Generator) emit(ctx context.Context, sink Sink, stats *GenerateStats, tag models.Tag, productCommit, productPath, testCommit, testPath string) error {
	pair := models.CandidatePair{
		Tag:             tag,
		ProductCommit:   productCommit,
		TestCommit:      testCommit,
		ProductFilePath: productPath,
		TestFilePath:    testPath,
	}

	missing := false
	var err error
	if pair.ProductOld, pair.ProductNew, err = g.history.Content(ctx, productCommit, productPath); err != nil {
		if !stderrors.Is(err, errors.ErrMissingContent) {
			return err
		}
		missing = true
	}
	if pair.TestOld, pair.TestNew, err = g.history.Content(ctx, testCommit, testPath); err != nil {
		if !stderrors.Is(err, errors.ErrMissingContent) {
			return err
		}
		missing = true
	}

	if missing {
		stats.MissingContent++
		g.logger.WithFields(logrus.Fields{
			"commit":      productCommit,
			"test_commit": testCommit,
			"path":        productPath,
		}).Debug("pair has missing content")
	}

	if tag == models.TagPositive {
		stats.Positive++
	} else {
		stats.Negative++
	}

	if err := sink(ctx, pair); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFileSystem, errors.SeverityCritical, "failed to write candidate pair")
	}
	return nil
}

func (g *Generator) changedPaths(ctx context.Context, commit string) ([]string, error) {
	if paths, ok := g.changed[commit]; ok {
		return paths, nil
	}
	paths, err := g.history.ChangedPaths(ctx, commit)
	if err != nil {
		return nil, err
	}
	g.changed[commit] = paths
	return paths, nil
}

// anchors selects the commits to mine. An explicitly requested commit that
// cannot be resolved is skipped like any other failed anchor.
func (g *Generator) anchors(ctx context.Context, stats *GenerateStats) ([]models.CommitRef, error) {
	if len(g.opts.Commits) > 0 {
		out := make([]models.CommitRef, 0, len(g.opts.Commits))
		for _, h := range g.opts.Commits {
			ref, err := g.history.Commit(ctx, h)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if errors.IsFatal(err) {
					return nil, err
				}
				g.skip(ctx, models.CommitRef{Hash: h}, err, stats)
				continue
			}
			out = append(out, ref)
		}
		return out, nil
	}

	all, err := g.history.Commits(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.CommitRef
	for _, c := range all {
		if !g.opts.Since.IsZero() && c.Timestamp.Before(g.opts.Since) {
			continue
		}
		if !g.opts.Until.IsZero() && !c.Timestamp.Before(g.opts.Until) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
