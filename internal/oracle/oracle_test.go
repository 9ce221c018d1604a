package oracle

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ptmine/internal/cache"
	"github.com/rohankatakam/ptmine/internal/editscript"
	"github.com/rohankatakam/ptmine/internal/errors"
)

// fakeTool writes an executable shell script that records each invocation
// in calls and copies payload to the path following outFlag.
func fakeTool(t *testing.T, outFlag, payload string) (command []string, calls string) {
	t.Helper()
	dir := t.TempDir()
	calls = filepath.Join(dir, "calls")
	payloadPath := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(payloadPath, []byte(payload), 0644))

	script := `#!/bin/sh
echo "$@" >> "` + calls + `"
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "` + outFlag + `" ]; then out="$2"; fi
  shift
done
cp "` + payloadPath + `" "$out"
`
	path := filepath.Join(dir, "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return []string{"/bin/sh", path}, calls
}

func callCount(t *testing.T, calls string) int {
	data, err := os.ReadFile(calls)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

func quietRunner(timeout time.Duration) *Runner {
	logger, _ := test.NewNullLogger()
	return NewRunner(timeout, 0, logger)
}

func TestGumTreeDiffParsesAndCaches(t *testing.T) {
	command, calls := fakeTool(t, "-o", `{"actions":[{"action":"insert-node","tree":"ImportDeclaration [0,10]","parent":"CompilationUnit [0,50]"}]}`)

	store, err := cache.OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	g := NewGumTree(command, quietRunner(time.Minute), store, nil)
	ctx := context.Background()

	script, err := g.Diff(ctx, "class A {}", "import x;\nclass A {}", ".java")
	require.NoError(t, err)
	require.Len(t, script, 1)
	assert.Equal(t, editscript.KindInsert, script[0].Kind)
	assert.Equal(t, "ImportDeclaration", script[0].Node.Type())
	assert.Equal(t, 1, callCount(t, calls))

	again, err := g.Diff(ctx, "class A {}", "import x;\nclass A {}", ".java")
	require.NoError(t, err)
	assert.Equal(t, script, again)
	assert.Equal(t, 1, callCount(t, calls), "second call served from cache")

	_, err = g.Diff(ctx, "class A {}", "class B {}", ".java")
	require.NoError(t, err)
	assert.Equal(t, 2, callCount(t, calls))

	data, err := os.ReadFile(calls)
	require.NoError(t, err)
	assert.Contains(t, string(data), "textdiff")
	assert.Contains(t, string(data), "-f JSON -o")
	assert.Contains(t, string(data), "old.java")
}

func TestGumTreeCacheIsScopedToCommand(t *testing.T) {
	payload := `{"actions":[{"action":"update-node","tree":"SimpleName: a [6,7]","parent":"TypeDeclaration [0,10]","extra":"dropped"}]}`
	first, firstCalls := fakeTool(t, "-o", payload)
	second, secondCalls := fakeTool(t, "-o", payload)

	store, err := cache.OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	g1 := NewGumTree(first, quietRunner(time.Minute), store, nil)
	g2 := NewGumTree(second, quietRunner(time.Minute), store, nil)

	script, err := g1.Diff(ctx, "class a {}", "class b {}", ".java")
	require.NoError(t, err)
	_, err = g2.Diff(ctx, "class a {}", "class b {}", ".java")
	require.NoError(t, err)

	assert.Equal(t, 1, callCount(t, firstCalls))
	assert.Equal(t, 1, callCount(t, secondCalls))

	// Entries hold the normalized script, not the raw tool output
	cached, found, err := store.Get(ctx, cache.BucketEditScripts, g1.cacheKey(".java", "class a {}", "class b {}"))
	require.NoError(t, err)
	require.True(t, found)
	encoded, err := script.Encode()
	require.NoError(t, err)
	assert.Equal(t, encoded, cached)
	assert.NotContains(t, string(cached), "extra")
}

func TestRefactoringMinerParsesAndCaches(t *testing.T) {
	command, calls := fakeTool(t, "-json", `{"commits":[{"refactorings":[{"type":"Rename Variable","leftSideLocations":[{"filePath":"T.java","startLine":1,"endLine":1,"startColumn":1,"endColumn":5}]}]}]}`)

	store, err := cache.OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	m := NewRefactoringMiner(command, quietRunner(time.Minute), store, nil)
	ctx := context.Background()
	repo := t.TempDir()

	refs, err := m.Refactorings(ctx, repo, "abc123")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Rename Variable", refs[0].Type)

	_, err = m.Refactorings(ctx, repo, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, callCount(t, calls))

	data, err := os.ReadFile(calls)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-c "+repo+" abc123 -json")
}

func TestRunnerNonZeroExit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fail.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho boom >&2\nexit 3\n"), 0755))

	_, err := quietRunner(time.Minute).Run(context.Background(), []string{"/bin/sh", path})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrOracleInvocation))

	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, "boom", e.Context["stderr"])
}

func TestRunnerTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexec sleep 10\n"), 0755))

	start := time.Now()
	_, err := quietRunner(100*time.Millisecond).Run(context.Background(), []string{"/bin/sh", path})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrOracleInvocation))
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunnerRequiresCommand(t *testing.T) {
	_, err := quietRunner(time.Minute).Run(context.Background(), nil)
	assert.True(t, stderrors.Is(err, errors.ErrOracleInvocation))
}

func TestParseCommand(t *testing.T) {
	assert.Equal(t, []string{"java", "-jar", "gumtree.jar"}, ParseCommand(DefaultGumTreeCommand))
	assert.Empty(t, ParseCommand("  "))
}
