package git

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// DefaultRevision is walked when no revision is configured
const DefaultRevision = "HEAD"

// Repository is an explicit handle on one local repository. All history
// and content lookups go through it; the process working directory is
// never changed.
type Repository struct {
	path     string
	revision string
	repo     *gogit.Repository
	logger   logrus.FieldLogger

	mu    sync.Mutex
	index *commitIndex
}

// Option configures a Repository
type Option func(*Repository)

// WithRevision sets the revision whose history is indexed
func WithRevision(rev string) Option {
	return func(r *Repository) {
		if rev != "" {
			r.revision = rev
		}
	}
}

// WithLogger sets the logger used for index and lookup diagnostics
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Open opens the repository at path. Failure is fatal for a run.
func Open(path string, opts ...Option) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.RepositoryError(err, "failed to open repository").WithContext("path", path)
	}

	r := &Repository{
		path:     path,
		revision: DefaultRevision,
		repo:     repo,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Path returns the repository path the handle was opened with
func (r *Repository) Path() string {
	return r.path
}

// Commit resolves a full or abbreviated hash (or any revision) to a CommitRef
func (r *Repository) Commit(ctx context.Context, hash string) (models.CommitRef, error) {
	c, err := r.commitObject(ctx, hash)
	if err != nil {
		return models.CommitRef{}, err
	}
	return toRef(c), nil
}

// Commits returns every commit reachable from the configured revision in
// chronological order.
func (r *Repository) Commits(ctx context.Context) ([]models.CommitRef, error) {
	idx, err := r.commitIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.CommitRef, len(idx.entries))
	copy(out, idx.entries)
	return out, nil
}

// ChangedPaths lists the paths a commit touched relative to its first
// parent. For a root commit every file in the tree is listed. Renames
// contribute both names.
func (r *Repository) ChangedPaths(ctx context.Context, hash string) ([]string, error) {
	c, err := r.commitObject(ctx, hash)
	if err != nil {
		return nil, err
	}

	tree, err := c.Tree()
	if err != nil {
		return nil, errors.RepositoryError(err, "failed to read commit tree").WithContext("commit", hash)
	}

	if c.NumParents() == 0 {
		var paths []string
		err = tree.Files().ForEach(func(f *object.File) error {
			paths = append(paths, f.Name)
			return nil
		})
		if err != nil {
			return nil, errors.RepositoryError(err, "failed to list root tree").WithContext("commit", hash)
		}
		sort.Strings(paths)
		return paths, nil
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, errors.RepositoryError(err, "failed to read parent commit").WithContext("commit", hash)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, errors.RepositoryError(err, "failed to read parent tree").WithContext("commit", hash)
	}

	changes, err := parentTree.DiffContext(ctx, tree)
	if err != nil {
		return nil, errors.RepositoryError(err, "failed to diff trees").WithContext("commit", hash)
	}

	seen := make(map[string]bool, len(changes))
	var paths []string
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name != "" && !seen[name] {
				seen[name] = true
				paths = append(paths, name)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Content returns the file at the commit's first parent (old) and at the
// commit (new). A nil side means the file does not exist there. When both
// sides are nil the returned error matches errors.ErrMissingContent.
func (r *Repository) Content(ctx context.Context, hash, path string) (oldContent, newContent *string, err error) {
	c, err := r.commitObject(ctx, hash)
	if err != nil {
		return nil, nil, err
	}

	newContent, err = fileContent(c, path)
	if err != nil {
		return nil, nil, err
	}

	if c.NumParents() > 0 {
		parent, perr := c.Parent(0)
		if perr != nil {
			return nil, nil, errors.RepositoryError(perr, "failed to read parent commit").WithContext("commit", hash)
		}
		oldContent, err = fileContent(parent, path)
		if err != nil {
			return nil, nil, err
		}
	}

	if oldContent == nil && newContent == nil {
		return nil, nil, errors.MissingContentf("%s absent at %s and its parent", path, shortHash(hash)).
			WithContext("commit", hash).
			WithContext("path", path)
	}
	return oldContent, newContent, nil
}

func fileContent(c *object.Commit, path string) (*string, error) {
	f, err := c.File(path)
	if err != nil {
		if stderrors.Is(err, object.ErrFileNotFound) || stderrors.Is(err, object.ErrDirectoryNotFound) {
			return nil, nil
		}
		return nil, errors.RepositoryError(err, "failed to read file").
			WithContext("commit", c.Hash.String()).
			WithContext("path", path)
	}

	content, err := f.Contents()
	if err != nil {
		return nil, errors.RepositoryError(err, "failed to read file contents").
			WithContext("commit", c.Hash.String()).
			WithContext("path", path)
	}
	return &content, nil
}

func (r *Repository) commitObject(ctx context.Context, hash string) (*object.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, err := r.repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return nil, errors.MissingCommitf("commit %s not found", hash).WithContext("cause", err.Error())
	}

	c, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, errors.MissingCommitf("commit %s not found", hash).WithContext("cause", err.Error())
	}
	return c, nil
}

func toRef(c *object.Commit) models.CommitRef {
	return models.CommitRef{
		Hash:      c.Hash.String(),
		Timestamp: c.Committer.When,
		Author:    c.Author.Name,
		Email:     c.Author.Email,
		Message:   strings.TrimSpace(c.Message),
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
