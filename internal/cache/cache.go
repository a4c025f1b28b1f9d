// Package cache provides a bounded, time-expiring store for synthesized
// answers, so repeated questions skip retrieval and the LLM call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/csexpert/csexpert/internal/conversation"
	"github.com/csexpert/csexpert/internal/router"
)

// Entry is one cached synthesis result. Failed results are never stored.
type Entry struct {
	Answer       string
	ContentType  string
	Citations    []conversation.Citation
	TopCourses   []string
	DocumentIDs  []string
	NumRetrieved int
	StoredAt     time.Time
}

// Cache is an LRU of synthesis results with lazy TTL expiry. Safe for
// concurrent use; lives only for the process lifetime.
type Cache struct {
	lru *lru.Cache[string, Entry]
	ttl time.Duration
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock substitutes the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache holding at most size entries, each valid for ttl.
func New(size int, ttl time.Duration, opts ...Option) (*Cache, error) {
	l, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	c := &Cache{lru: l, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the entry for key. Expired entries are treated as absent and
// removed.
func (c *Cache) Get(key string) (Entry, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return Entry{}, false
	}
	if c.now().Sub(e.StoredAt) >= c.ttl {
		c.lru.Remove(key)
		return Entry{}, false
	}
	return e, true
}

// Put stores the entry under key, stamping it with the current time. The
// least-recently-used entry is evicted when the cache is full.
func (c *Cache) Put(key string, e Entry) {
	e.StoredAt = c.now()
	c.lru.Add(key, e)
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been read.
func (c *Cache) Len() int { return c.lru.Len() }

// historyWindow bounds how much recent history feeds the cache key. Keeping
// it small keeps hit rates reasonable for reworded repeats.
const historyWindow = 2

// Key derives a cache key from the normalized question, the active filters,
// and a fingerprint of the recent history window. Case and whitespace
// differences in the question do not change the key.
func Key(question string, filters router.Filters, history []conversation.Turn) string {
	h := sha256.New()

	h.Write([]byte(normalize(question)))
	h.Write([]byte{0})

	for _, part := range []string{
		filters.ProgramCode, filters.Department, filters.Term, filters.Cycle,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if filters.HasTuition {
		h.Write([]byte("tuition"))
	}
	h.Write([]byte{0})

	for _, t := range conversation.RecentWindow(history, historyWindow) {
		switch t.Sender {
		case conversation.SenderAssistant:
			h.Write([]byte(strings.Join(t.TopCourses, ",")))
		case conversation.SenderUser:
			h.Write([]byte(normalize(t.Content)))
		}
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
