package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsStableAndUnambiguous(t *testing.T) {
	assert.Equal(t, Key(".java", "a", "b"), Key(".java", "a", "b"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Len(t, Key("x"), 64)
}

func TestBoltStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "oracle.db")
	store, err := OpenBolt(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	_, found, err := store.Get(ctx, BucketEditScripts, "k")
	require.NoError(t, err)
	assert.False(t, found, "missing bucket is a miss")

	require.NoError(t, store.Put(ctx, BucketEditScripts, "k", []byte(`{"actions":[]}`)))

	val, found, err := store.Get(ctx, BucketEditScripts, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"actions":[]}`, string(val))

	_, found, err = store.Get(ctx, BucketRefactorings, "k")
	require.NoError(t, err)
	assert.False(t, found, "buckets are separate")
}

func TestBoltStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.db")
	ctx := context.Background()

	store, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, BucketRefactorings, "repo|abc", []byte("[]")))
	require.NoError(t, store.Close())

	store, err = OpenBolt(path)
	require.NoError(t, err)
	defer store.Close()

	val, found, err := store.Get(ctx, BucketRefactorings, "repo|abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", string(val))
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	require.NoError(t, s.Put(context.Background(), "b", "k", []byte("v")))
	_, found, err := s.Get(context.Background(), "b", "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("PTMINE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PTMINE_TEST_REDIS_ADDR not set, skipping redis test")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisOptions{Addr: addr, Prefix: "ptmine-test"}, nil)
	require.NoError(t, err)
	defer store.Close()

	key := Key(t.Name())
	require.NoError(t, store.Put(ctx, BucketEditScripts, key, []byte("v")))
	val, found, err := store.Get(ctx, BucketEditScripts, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(val))
}

func TestRedisStoreRequiresAddress(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisOptions{}, nil)
	assert.Error(t, err)
}
