// Package cache memoizes normalizer output by a content hash of the
// preprocessed user source, per the result-cache described in spec §6
// ("keyed by a content hash ... 16 hex chars of a cryptographic digest").
// The cache is transparent to the normalizer itself: it only ever stores
// and replays bytes the pipeline already produced.
package cache

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru"
)

// KeyLen is the number of hex characters kept from the digest, per spec
// §6.
const KeyLen = 16

// Key hashes preprocessed source text down to the cache key format spec
// §6 describes.
func Key(preprocessedSource string) string {
	sum := sha256.Sum256([]byte(preprocessedSource))
	return hex.EncodeToString(sum[:])[:KeyLen]
}

// ResultCache stores final trace JSON bytes keyed by Key(source).
type ResultCache struct {
	lru *lru.Cache
}

// New creates a ResultCache holding at most size entries.
func New(size int) (*ResultCache, error) {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{lru: c}, nil
}

// Get returns the cached response JSON for source, if present.
func (rc *ResultCache) Get(source string) ([]byte, bool) {
	v, ok := rc.lru.Get(Key(source))
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Put stores response JSON for source, evicting the least recently used
// entry if the cache is full.
func (rc *ResultCache) Put(source string, response []byte) {
	rc.lru.Add(Key(source), response)
}

// Len returns the number of entries currently cached.
func (rc *ResultCache) Len() int { return rc.lru.Len() }
