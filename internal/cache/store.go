package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Buckets used by the oracles
const (
	BucketEditScripts  = "edit_scripts"
	BucketRefactorings = "refactorings"
)

// Store persists deterministic oracle results between runs.
// Get reports a miss with found == false and a nil error.
type Store interface {
	Get(ctx context.Context, bucket, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, bucket, key string, value []byte) error
	Close() error
}

// Key derives a stable cache key from its parts. Parts are length-prefixed
// so ("ab", "c") and ("a", "bc") never collide.
func Key(parts ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Put(ctx context.Context, bucket, key string, value []byte) error { return nil }

func (Nop) Close() error { return nil }
