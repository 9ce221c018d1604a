package git

import (
	"context"
	"sort"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// commitIndex holds every commit reachable from the indexed revision,
// sorted by timestamp with ties kept in history order (oldest first).
type commitIndex struct {
	entries []models.CommitRef
	byHash  map[string]int
}

// WindowResolver answers temporal commit-window queries
type WindowResolver interface {
	Window(ctx context.Context, anchor string, lo time.Duration, hi *time.Duration) ([]models.CommitRef, error)
	Between(ctx context.Context, a, b string) ([]models.CommitRef, error)
}

var _ WindowResolver = (*Repository)(nil)

// Hours converts an hour count to a bound for Window
func Hours(h float64) *time.Duration {
	d := time.Duration(h * float64(time.Hour))
	return &d
}

// Window returns the commits whose timestamps fall in the half-open interval
// [anchor+lo, anchor+hi), or [anchor+lo, ∞) when hi is nil, in chronological
// order. A non-zero lo removes the anchor itself; lo == 0 always includes it.
func (r *Repository) Window(ctx context.Context, anchor string, lo time.Duration, hi *time.Duration) ([]models.CommitRef, error) {
	idx, err := r.commitIndex(ctx)
	if err != nil {
		return nil, err
	}

	ref, err := r.lookup(ctx, idx, anchor)
	if err != nil {
		return nil, err
	}

	start := ref.Timestamp.Add(lo)
	from := sort.Search(len(idx.entries), func(i int) bool {
		return !idx.entries[i].Timestamp.Before(start)
	})
	to := len(idx.entries)
	if hi != nil {
		end := ref.Timestamp.Add(*hi)
		to = sort.Search(len(idx.entries), func(i int) bool {
			return !idx.entries[i].Timestamp.Before(end)
		})
	}

	var out []models.CommitRef
	anchorSeen := false
	for i := from; i < to; i++ {
		c := idx.entries[i]
		if c.Hash == ref.Hash {
			anchorSeen = true
			if lo != 0 {
				continue
			}
		}
		out = append(out, c)
	}

	if lo == 0 && !anchorSeen {
		out = append([]models.CommitRef{ref}, out...)
	}
	return out, nil
}

// Between returns the commits strictly between a and b: timestamps in the
// closed interval spanned by both, excluding a and b themselves. The order
// of the arguments does not matter.
func (r *Repository) Between(ctx context.Context, a, b string) ([]models.CommitRef, error) {
	idx, err := r.commitIndex(ctx)
	if err != nil {
		return nil, err
	}

	ra, err := r.lookup(ctx, idx, a)
	if err != nil {
		return nil, err
	}
	rb, err := r.lookup(ctx, idx, b)
	if err != nil {
		return nil, err
	}

	lo, hi := ra.Timestamp, rb.Timestamp
	if hi.Before(lo) {
		lo, hi = hi, lo
	}

	from := sort.Search(len(idx.entries), func(i int) bool {
		return !idx.entries[i].Timestamp.Before(lo)
	})

	var out []models.CommitRef
	for i := from; i < len(idx.entries) && !idx.entries[i].Timestamp.After(hi); i++ {
		c := idx.entries[i]
		if c.Hash == ra.Hash || c.Hash == rb.Hash {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Repository) lookup(ctx context.Context, idx *commitIndex, hash string) (models.CommitRef, error) {
	if i, ok := idx.byHash[hash]; ok {
		return idx.entries[i], nil
	}
	// Abbreviated hashes and commits outside the indexed revision
	return r.Commit(ctx, hash)
}

// commitIndex walks the configured revision once and caches the result
func (r *Repository) commitIndex(ctx context.Context) (*commitIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index != nil {
		return r.index, nil
	}

	head, err := r.repo.ResolveRevision(plumbing.Revision(r.revision))
	if err != nil {
		return nil, errors.RepositoryError(err, "failed to resolve revision").WithContext("revision", r.revision)
	}

	iter, err := r.repo.Log(&gogit.LogOptions{From: *head})
	if err != nil {
		return nil, errors.RepositoryError(err, "failed to walk history").WithContext("revision", r.revision)
	}
	defer iter.Close()

	var entries []models.CommitRef
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries = append(entries, toRef(c))
		return nil
	})
	if err != nil {
		return nil, errors.RepositoryError(err, "failed to walk history").WithContext("revision", r.revision)
	}

	// Log yields newest first; reverse so equal timestamps keep oldest-first order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	byHash := make(map[string]int, len(entries))
	for i, c := range entries {
		byHash[c.Hash] = i
	}

	r.index = &commitIndex{entries: entries, byHash: byHash}
	r.logger.WithFields(logrus.Fields{
		"revision": r.revision,
		"commits":  len(entries),
	}).Debug("indexed commit history")

	return r.index, nil
}
