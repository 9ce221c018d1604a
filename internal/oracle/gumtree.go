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

// DefaultGumTreeCommand runs the GumTree distribution jar
const DefaultGumTreeCommand = "java -jar gumtree.jar"

// DiffOracle produces the AST edit script between two versions of a file
type DiffOracle interface {
	Diff(ctx context.Context, oldContent, newContent, ext string) (editscript.Script, error)
}

// GumTree shells out to `gumtree textdiff` and caches its JSON output
type GumTree struct {
	command []string
	runner  *Runner
	store   cache.Store
	logger  logrus.FieldLogger
}

var _ DiffOracle = (*GumTree)(nil)

// NewGumTree creates the diff oracle. A nil store disables caching.
func NewGumTree(command []string, runner *Runner, store cache.Store, logger logrus.FieldLogger) *GumTree {
	if store == nil {
		store = cache.Nop{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GumTree{command: command, runner: runner, store: store, logger: logger}
}

// Diff returns the edit script turning oldContent into newContent. Both are
// written to temporary files carrying ext so the tool picks the right parser.
func (g *GumTree) Diff(ctx context.Context, oldContent, newContent, ext string) (editscript.Script, error) {
	key := g.cacheKey(ext, oldContent, newContent)
	if data, found, err := g.store.Get(ctx, cache.BucketEditScripts, key); err != nil {
		g.logger.WithError(err).Warn("edit script cache read failed")
	} else if found {
		return editscript.ParseScript(data)
	}

	dir, err := os.MkdirTemp("", "ptmine-gumtree-*")
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to create temp dir")
	}
	defer os.RemoveAll(dir)

	oldPath := filepath.Join(dir, "old"+ext)
	newPath := filepath.Join(dir, "new"+ext)
	outPath := filepath.Join(dir, "diff.json")

	if err := os.WriteFile(oldPath, []byte(oldContent), 0600); err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to write %s", oldPath)
	}
	if err := os.WriteFile(newPath, []byte(newContent), 0600); err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to write %s", newPath)
	}

	stdout, err := g.runner.Run(ctx, g.command, "textdiff", oldPath, newPath, "-f", "JSON", "-o", outPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		// Some builds ignore -o and print to stdout
		data = stdout
	}

	script, err := editscript.ParseScript(data)
	if err != nil {
		return nil, err
	}

	encoded, err := script.Encode()
	if err != nil {
		g.logger.WithError(err).Warn("edit script encode failed")
		return script, nil
	}
	if err := g.store.Put(ctx, cache.BucketEditScripts, key, encoded); err != nil {
		g.logger.WithError(err).Warn("edit script cache write failed")
	}
	return script, nil
}

// cacheKey scopes cached scripts to the command line, so a different
// GumTree build never serves another build's results.
func (g *GumTree) cacheKey(ext, oldContent, newContent string) string {
	return cache.Key(strings.Join(g.command, " "), ext, oldContent, newContent)
}
