package dlq

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ptmine/internal/errors"
)

func TestQueueRecordsAndReadsBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "failures.jsonl")

	q, err := Open(path, "run-1", nil)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, Entry{Stage: StageGenerate, Commit: "aaa"}, errors.MissingCommitf("no such commit")))
	require.NoError(t, q.Enqueue(ctx, Entry{Stage: StageRefine, Commit: "aaa", TestCommit: "bbb", Path: "Foo.java"}, errors.OracleErrorf(nil, "gumtree timed out")))
	require.NoError(t, q.Enqueue(ctx, Entry{Stage: StageGenerate, Commit: "ccc"}, fmt.Errorf("plain")))
	require.NoError(t, q.Enqueue(ctx, Entry{Stage: StageGenerate, Commit: "aaa"}, nil))
	assert.Equal(t, 4, q.Len())
	require.NoError(t, q.Close())

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "MISSING_COMMIT", entries[0].ErrorType)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.False(t, entries[0].CreatedAt.IsZero())
	assert.Equal(t, "ORACLE", entries[1].ErrorType)
	assert.Equal(t, "bbb", entries[1].TestCommit)
	assert.Equal(t, "INTERNAL", entries[2].ErrorType)

	assert.Equal(t, []string{"aaa", "ccc"}, Commits(entries, StageGenerate))
	assert.Equal(t, []string{"aaa"}, Commits(entries, StageRefine))
}

func TestNilQueueDiscards(t *testing.T) {
	var q *Queue
	assert.NoError(t, q.Enqueue(context.Background(), Entry{Stage: StageRefine}, fmt.Errorf("x")))
	assert.Zero(t, q.Len())
	assert.NoError(t, q.Close())
}
