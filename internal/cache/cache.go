// Package cache memoizes batch listing responses. The store is bounded in
// both size and age: entries fall out after the TTL or when capacity pushes
// the least recently used entry out, so high filter cardinality cannot grow
// the map without limit.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Store struct {
	lru      *expirable.LRU[string, []byte]
	ttl      time.Duration
	capacity int
	hits     atomic.Int64
	misses   atomic.Int64
}

type Stats struct {
	TotalEntries int   `json:"total_entries"`
	Capacity     int   `json:"capacity"`
	TTLSeconds   int   `json:"cache_ttl_seconds"`
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
}

func New(capacity int, ttl time.Duration) *Store {
	return &Store{
		lru:      expirable.NewLRU[string, []byte](capacity, nil, ttl),
		ttl:      ttl,
		capacity: capacity,
	}
}

// Key derives a stable cache key from the request shape: entity, the sorted
// page list, page size and the filter map in canonical order.
func Key(entity string, pages []int, itemsPerPage int, filters map[string]string) string {
	sortedPages := append([]int(nil), pages...)
	sort.Ints(sortedPages)

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s:%v:%d", entity, sortedPages, itemsPerPage)
	for _, k := range keys {
		fmt.Fprintf(&b, ":%s=%s", k, filters[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached JSON document for key, unmarshalled into v.
func (s *Store) Get(key string, v any) bool {
	raw, ok := s.lru.Get(key)
	if !ok {
		s.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.misses.Add(1)
		return false
	}
	s.hits.Add(1)
	return true
}

func (s *Store) Set(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.lru.Add(key, raw)
}

func (s *Store) Clear() {
	s.lru.Purge()
}

func (s *Store) Stats() Stats {
	return Stats{
		TotalEntries: s.lru.Len(),
		Capacity:     s.Capacity(),
		TTLSeconds:   int(s.ttl.Seconds()),
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
	}
}

func (s *Store) Capacity() int {
	return s.capacity
}
