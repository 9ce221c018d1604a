package git

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ptmine/internal/errors"
)

// testRepo is a throwaway repository whose commit times are controlled
type testRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, repo: repo}
}

// commit writes files (nil content deletes the path) and commits at when
func (tr *testRepo) commit(when time.Time, msg string, files map[string]*string) string {
	tr.t.Helper()
	wt, err := tr.repo.Worktree()
	require.NoError(tr.t, err)

	for path, content := range files {
		if content == nil {
			_, err = wt.Remove(path)
			require.NoError(tr.t, err)
			continue
		}
		full := filepath.Join(tr.dir, path)
		require.NoError(tr.t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(tr.t, os.WriteFile(full, []byte(*content), 0644))
		_, err = wt.Add(path)
		require.NoError(tr.t, err)
	}

	sig := &object.Signature{Name: "Test User", Email: "test@example.com", When: when}
	hash, err := wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
	require.NoError(tr.t, err)
	return hash.String()
}

func (tr *testRepo) open() *Repository {
	tr.t.Helper()
	r, err := Open(tr.dir)
	require.NoError(tr.t, err)
	return r
}

func str(s string) *string { return &s }

func TestOpenMissingRepository(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestChangedPaths(t *testing.T) {
	tr := newTestRepo(t)
	base := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)

	root := tr.commit(base, "init", map[string]*string{
		"src/main/java/A.java": str("class A {}"),
		"README.md":            str("readme"),
	})
	second := tr.commit(base.Add(time.Hour), "edit", map[string]*string{
		"src/main/java/A.java": str("class A { int x; }"),
		"src/main/java/B.java": str("class B {}"),
		"README.md":            nil,
	})

	r := tr.open()
	ctx := context.Background()

	paths, err := r.ChangedPaths(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "src/main/java/A.java"}, paths)

	paths, err = r.ChangedPaths(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "src/main/java/A.java", "src/main/java/B.java"}, paths)
}

func TestContent(t *testing.T) {
	tr := newTestRepo(t)
	base := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)

	root := tr.commit(base, "init", map[string]*string{"A.java": str("v1"), "Gone.java": str("bye")})
	second := tr.commit(base.Add(time.Hour), "edit", map[string]*string{
		"A.java":    str("v2"),
		"New.java":  str("hello"),
		"Gone.java": nil,
	})

	r := tr.open()
	ctx := context.Background()

	old, cur, err := r.Content(ctx, second, "A.java")
	require.NoError(t, err)
	assert.Equal(t, "v1", *old)
	assert.Equal(t, "v2", *cur)

	old, cur, err = r.Content(ctx, second, "New.java")
	require.NoError(t, err)
	assert.Nil(t, old)
	assert.Equal(t, "hello", *cur)

	old, cur, err = r.Content(ctx, second, "Gone.java")
	require.NoError(t, err)
	assert.Equal(t, "bye", *old)
	assert.Nil(t, cur)

	old, cur, err = r.Content(ctx, root, "A.java")
	require.NoError(t, err)
	assert.Nil(t, old, "root commit has no parent side")
	assert.Equal(t, "v1", *cur)

	_, _, err = r.Content(ctx, second, "Nowhere.java")
	assert.True(t, stderrors.Is(err, errors.ErrMissingContent))
}

func TestCommitResolvesAbbreviatedHash(t *testing.T) {
	tr := newTestRepo(t)
	when := time.Date(2023, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	hash := tr.commit(when, "init\n", map[string]*string{"A.java": str("x")})

	r := tr.open()
	ref, err := r.Commit(context.Background(), hash[:10])
	require.NoError(t, err)
	assert.Equal(t, hash, ref.Hash)
	assert.True(t, when.Equal(ref.Timestamp))
	assert.Equal(t, "init", ref.Message)

	_, err = r.Commit(context.Background(), "0000000000000000000000000000000000000000")
	assert.True(t, stderrors.Is(err, errors.ErrMissingCommit))
}
