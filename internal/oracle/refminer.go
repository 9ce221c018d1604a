package oracle

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ptmine/internal/cache"
	"github.com/rohankatakam/ptmine/internal/editscript"
	"github.com/rohankatakam/ptmine/internal/errors"
)

// DefaultRefactoringMinerCommand expects the RefactoringMiner launcher on PATH
const DefaultRefactoringMinerCommand = "RefactoringMiner"

// RefactoringOracle detects refactorings introduced by one commit
type RefactoringOracle interface {
	Refactorings(ctx context.Context, repoPath, commit string) ([]editscript.Refactoring, error)
}

// RefactoringMiner shells out to `RefactoringMiner -c` and caches its report
type RefactoringMiner struct {
	command []string
	runner  *Runner
	store   cache.Store
	logger  logrus.FieldLogger
}

var _ RefactoringOracle = (*RefactoringMiner)(nil)

// NewRefactoringMiner creates the refactoring oracle. A nil store disables caching.
func NewRefactoringMiner(command []string, runner *Runner, store cache.Store, logger logrus.FieldLogger) *RefactoringMiner {
	if store == nil {
		store = cache.Nop{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RefactoringMiner{command: command, runner: runner, store: store, logger: logger}
}

// Refactorings returns the refactorings detected in commit
func (m *RefactoringMiner) Refactorings(ctx context.Context, repoPath, commit string) ([]editscript.Refactoring, error) {
	absRepo, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to resolve %s", repoPath)
	}

	key := cache.Key(strings.Join(m.command, " "), absRepo, commit)
	if data, found, err := m.store.Get(ctx, cache.BucketRefactorings, key); err != nil {
		m.logger.WithError(err).Warn("refactoring cache read failed")
	} else if found {
		return editscript.ParseRefactorings(data)
	}

	dir, err := os.MkdirTemp("", "ptmine-refminer-*")
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to create temp dir")
	}
	defer os.RemoveAll(dir)

	outPath := filepath.Join(dir, "refactorings.json")
	if _, err := m.runner.Run(ctx, m.command, "-c", absRepo, commit, "-json", outPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, errors.OracleErrorf(err, "refactoring report missing for %s", commit)
	}

	refs, err := editscript.ParseRefactorings(data)
	if err != nil {
		return nil, err
	}

	if err := m.store.Put(ctx, cache.BucketRefactorings, key, data); err != nil {
		m.logger.WithError(err).Warn("refactoring cache write failed")
	}
	return refs, nil
}
