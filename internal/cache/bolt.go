package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/ptmine/internal/errors"
)

// BoltStore keeps oracle results in a local bbolt file
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the cache file at path
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to create cache directory for %s", path)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.DatabaseError(err, "failed to open oracle cache").WithContext("path", path)
	}
	return &BoltStore{db: db}, nil
}

// Get retrieves a cached value
func (s *BoltStore) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		// Values are only valid for the life of the transaction
		out = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, false, errors.DatabaseError(err, "cache read failed").WithContext("bucket", bucket)
	}
	return out, out != nil, nil
}

// Put stores a value
func (s *BoltStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return errors.DatabaseError(err, "cache write failed").WithContext("bucket", bucket)
	}
	return nil
}

// Close releases the file lock
func (s *BoltStore) Close() error {
	return s.db.Close()
}
