package refine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
	"github.com/rohankatakam/ptmine/internal/oracle"
)

// HistoryView is what the interference checks need from the repository.
// *git.Repository satisfies it.
type HistoryView interface {
	Between(ctx context.Context, a, b string) ([]models.CommitRef, error)
	ChangedPaths(ctx context.Context, hash string) ([]string, error)
}

// Source streams stored pairs into fn in order
type Source func(ctx context.Context, fn func(models.CandidatePair) error) error

// Sink receives each surviving pair
type Sink func(ctx context.Context, pair models.CandidatePair) error

// Outcome is the result of refining one pair
type Outcome struct {
	Pair models.CandidatePair
	// Strategy names the strategy whose verdict ended the chain
	Strategy string
	Verdict  Verdict
	// Changed reports whether the tag differs from the input
	Changed bool
	Dropped bool
	// Skipped marks a pair refined by an earlier pass
	Skipped bool
}

// Engine runs the ordered strategy chain over candidate pairs
type Engine struct {
	Strategies   []Strategy
	Diff         oracle.DiffOracle
	Refactorings oracle.RefactoringOracle
	History      HistoryView
	RepoPath     string
	Logger       logrus.FieldLogger

	// OnError, when set, is told about every pair kept after a strategy failure
	OnError func(ctx context.Context, pair models.CandidatePair, err error)
}

func (e *Engine) logger() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

// Refine evaluates one pair. On a strategy error the returned outcome
// carries the pair unchanged together with the error.
//
// Tag transitions are monotone: only a negative pair may be promoted, a
// demotion ends the chain, and a pair that already carries RefinedBy is
// passed through so that refining a refined dataset changes nothing.
func (e *Engine) Refine(ctx context.Context, pair models.CandidatePair) (Outcome, error) {
	if pair.RefinedBy != "" {
		return Outcome{Pair: pair, Skipped: true}, nil
	}

	original := pair
	in := newInput(e, &pair)
	log := e.logger().WithFields(logrus.Fields{
		"commit":      pair.ProductCommit,
		"test_commit": pair.TestCommit,
		"path":        pair.ProductFilePath,
	})

	for _, s := range e.Strategies {
		if !s.Applies(pair.Tag) {
			continue
		}

		verdict, err := s.Evaluate(ctx, in)
		if err != nil {
			return Outcome{Pair: original}, errors.Wrap(err, errors.GetType(err), errors.GetSeverity(err), s.Name()).
				WithContext("strategy", s.Name())
		}

		switch verdict {
		case VerdictNone:
			continue

		case VerdictDrop:
			log.WithField("strategy", s.Name()).Debug("pair dropped")
			return Outcome{Pair: pair, Strategy: s.Name(), Verdict: verdict, Dropped: true}, nil

		case VerdictPromote:
			if pair.Tag != models.TagNegative {
				log.WithField("strategy", s.Name()).
					Error(errors.InternalErrorf("strategy %s promoted a %s pair", s.Name(), pair.Tag).Error())
				continue
			}
			pair.Tag = models.TagPositive
			pair.RefinedBy = s.Name()
			log.WithField("strategy", s.Name()).Debug("pair promoted")
			return Outcome{Pair: pair, Strategy: s.Name(), Verdict: verdict, Changed: true}, nil

		case VerdictDemote:
			changed := pair.Tag == models.TagPositive
			if changed {
				pair.Tag = models.TagNegative
				pair.RefinedBy = s.Name()
				log.WithField("strategy", s.Name()).Debug("pair demoted")
			}
			return Outcome{Pair: pair, Strategy: s.Name(), Verdict: verdict, Changed: changed}, nil
		}
	}

	return Outcome{Pair: pair}, nil
}

// Process refines one pair, records it in stats and forwards survivors to
// sink. Per-pair strategy failures, oracle timeouts included, are logged
// and the pair is forwarded unchanged. Only cancellation of ctx, fatal
// errors and sink failures are returned.
func (e *Engine) Process(ctx context.Context, pair models.CandidatePair, sink Sink, stats *Stats) error {
	out, err := e.Refine(ctx, pair)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.IsFatal(err) {
			return err
		}
		stats.Errors++
		e.logger().WithFields(logrus.Fields{
			"commit":      pair.ProductCommit,
			"test_commit": pair.TestCommit,
			"path":        pair.ProductFilePath,
		}).WithError(err).Warn("refinement failed, keeping prior tag")
		if e.OnError != nil {
			e.OnError(ctx, pair, err)
		}
	}

	stats.record(out)
	if out.Dropped {
		return nil
	}

	if err := sink(ctx, out.Pair); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFileSystem, errors.SeverityCritical, "failed to write refined pair")
	}
	return nil
}

// Run refines every pair from source in order
func (e *Engine) Run(ctx context.Context, source Source, sink Sink) (Stats, error) {
	stats := NewStats()
	err := source(ctx, func(pair models.CandidatePair) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return e.Process(ctx, pair, sink, &stats)
	})
	return stats, err
}
