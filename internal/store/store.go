// Package store keeps parse results for later download, keyed by a random id.
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/insightdelivered/statement-parser/internal/models"
)

// Defaults for result expiry.
const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// ResultStore holds parse results in memory until they expire. It is safe for
// concurrent use.
type ResultStore struct {
	c *cache.Cache
}

// New returns a ResultStore whose entries expire after ttl. Non-positive
// values fall back to the defaults.
func New(ttl, cleanupInterval time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &ResultStore{c: cache.New(ttl, cleanupInterval)}
}

// Put stores data and returns its id. Stored data must not be mutated.
func (s *ResultStore) Put(data *models.AccountsData) string {
	id := uuid.NewString()
	s.c.Set(id, data, cache.DefaultExpiration)
	return id
}

// Get returns the data stored under id, if it has not expired.
func (s *ResultStore) Get(id string) (*models.AccountsData, bool) {
	v, ok := s.c.Get(id)
	if !ok {
		return nil, false
	}
	data, ok := v.(*models.AccountsData)
	return data, ok
}

// Delete removes id. It reports whether an entry was present.
func (s *ResultStore) Delete(id string) bool {
	if _, ok := s.c.Get(id); !ok {
		return false
	}
	s.c.Delete(id)
	return true
}

// Len returns the number of stored entries, including expired ones not yet
// cleaned up.
func (s *ResultStore) Len() int {
	return s.c.ItemCount()
}
