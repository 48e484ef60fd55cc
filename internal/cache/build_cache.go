package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	BBOLT_OUTPUT_BUCKET = []byte("outputs")

	ErrClosedBuildCache = errors.New("build cache is closed")
)

const (
	BUILD_CACHE_OPEN_TIMEOUT = time.Second
)

// BuildCache stores the compiled outputs in a bbolt database, the key of an output is the hash of
// everything the output depends on (see BuildKey).
type BuildCache struct {
	db *bbolt.DB
}

func OpenBuildCache(path string) (*BuildCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: BUILD_CACHE_OPEN_TIMEOUT})
	if err != nil {
		return nil, fmt.Errorf("failed to open the build cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(BBOLT_OUTPUT_BUCKET)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize the build cache: %w", err)
	}

	return &BuildCache{db: db}, nil
}

// Get returns a copy of the cached output.
func (c *BuildCache) Get(key [32]byte) (output []byte, found bool, _ error) {
	if c.db == nil {
		return nil, false, ErrClosedBuildCache
	}

	err := c.db.View(func(tx *bbolt.Tx) error {
		item := tx.Bucket(BBOLT_OUTPUT_BUCKET).Get(key[:])
		if item != nil {
			found = true
			//the slice is only valid during the transaction.
			output = append([]byte(nil), item...)
		}
		return nil
	})
	return output, found, err
}

func (c *BuildCache) Put(key [32]byte, output []byte) error {
	if c.db == nil {
		return ErrClosedBuildCache
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BBOLT_OUTPUT_BUCKET).Put(key[:], output)
	})
}

// Clear removes all the cached outputs.
func (c *BuildCache) Clear() error {
	if c.db == nil {
		return ErrClosedBuildCache
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(BBOLT_OUTPUT_BUCKET); err != nil {
			return err
		}
		_, err := tx.CreateBucket(BBOLT_OUTPUT_BUCKET)
		return err
	})
}

func (c *BuildCache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// BuildKey hashes the parts an output depends on, each part is prefixed with its length so that
// different splits of the same bytes produce different keys.
func BuildKey(parts ...[]byte) [32]byte {
	h := sha256.New()
	var length [8]byte
	for _, part := range parts {
		binary.LittleEndian.PutUint64(length[:], uint64(len(part)))
		h.Write(length[:])
		h.Write(part)
	}

	var key [32]byte
	h.Sum(key[:0])
	return key
}
