// Package factstore persists personal facts and append-only memory log
// entries on top of a key-value document backend.
//
// Facts are keyed deterministically by category and identity, so a second
// write for the same pair overwrites the first. Memory entries get a fresh
// time-derived key on every append and are never overwritten.
package factstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
)

const factKeyPrefix = "fact:"

// Fact is a single overwritable attribute of one identity.
type Fact struct {
	IdentityKey string
	Category    string
	Content     string
	StoredAt    time.Time
}

// MemoryEntry is one item of the append-only memory log.
type MemoryEntry struct {
	ID          string
	EntryType   string
	IdentityKey string
	Content     string
	CreatedAt   time.Time
}

// FactKey returns the storage key of the fact for (category, identityKey).
func FactKey(category, identityKey string) string {
	return factKeyPrefix + category + ":" + identityKey
}

// MemoryKey returns the storage key of a memory entry written at ts.
func MemoryKey(entryType string, ts int64) string {
	return entryType + ":" + strconv.FormatInt(ts, 10)
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

type Store struct {
	backend Backend
	logger  *log.Logger
	now     func() time.Time

	lastNanos atomic.Int64
}

func New(backend Backend, logger *log.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextNanos returns a strictly increasing nanosecond timestamp, so two appends
// in the same process never produce the same memory key.
func (s *Store) nextNanos(t time.Time) int64 {
	candidate := t.UnixNano()
	for {
		last := s.lastNanos.Load()
		next := max(candidate, last+1)
		if s.lastNanos.CompareAndSwap(last, next) {
			return next
		}
	}
}

// PutFact writes content for (identityKey, category), replacing any prior value.
func (s *Store) PutFact(ctx context.Context, identityKey, category, content string) error {
	if identityKey == "" {
		return &ValidationError{Field: "identity_key"}
	}
	if category == "" {
		return &ValidationError{Field: "category"}
	}

	now := s.now().UTC()
	rec := Record{
		ID:          FactKey(category, identityKey),
		Type:        FactType,
		Category:    category,
		IdentityKey: identityKey,
		Content:     content,
		Timestamp:   now.UnixMilli(),
		Date:        now,
	}
	if err := s.backend.PutItem(ctx, rec); err != nil {
		return &StoreError{Op: "put fact", Key: rec.ID, Err: err}
	}

	s.logger.Debug("Stored fact", "identity_key", identityKey, "category", category)
	return nil
}

// AppendMemory adds a log entry. identityKey may be empty for an unscoped entry.
func (s *Store) AppendMemory(ctx context.Context, entryType, content, identityKey string) (MemoryEntry, error) {
	if entryType == "" {
		return MemoryEntry{}, &ValidationError{Field: "entry_type"}
	}
	if content == "" {
		return MemoryEntry{}, &ValidationError{Field: "content"}
	}

	nanos := s.nextNanos(s.now())
	created := time.Unix(0, nanos).UTC()
	rec := Record{
		ID:          MemoryKey(entryType, nanos),
		Type:        entryType,
		IdentityKey: identityKey,
		Content:     content,
		Timestamp:   created.UnixMilli(),
		Date:        created,
	}
	if err := s.backend.PutItem(ctx, rec); err != nil {
		return MemoryEntry{}, &StoreError{Op: "append memory", Key: rec.ID, Err: err}
	}

	s.logger.Debug("Appended memory", "id", rec.ID, "identity_key", identityKey)
	return toMemoryEntry(rec), nil
}

// GetFact returns the stored content, or ErrNotFound.
func (s *Store) GetFact(ctx context.Context, identityKey, category string) (string, error) {
	if identityKey == "" {
		return "", &ValidationError{Field: "identity_key"}
	}
	if category == "" {
		return "", &ValidationError{Field: "category"}
	}

	key := FactKey(category, identityKey)
	rec, found, err := s.backend.GetItem(ctx, key)
	if err != nil {
		return "", &StoreError{Op: "get fact", Key: key, Err: err}
	}
	// The key alone is ambiguous when an identity contains ':'; the fields are not.
	if !found || rec.IdentityKey != identityKey || rec.Category != category {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return rec.Content, nil
}

// ListFacts returns every fact of identityKey. Order is unspecified.
func (s *Store) ListFacts(ctx context.Context, identityKey string) ([]Fact, error) {
	if identityKey == "" {
		return nil, &ValidationError{Field: "identity_key"}
	}

	recs, err := s.backend.Scan(ctx, Filter{
		IDPrefix:    factKeyPrefix,
		Type:        FactType,
		IdentityKey: identityKey,
	})
	if err != nil {
		return nil, &StoreError{Op: "list facts", Key: identityKey, Err: err}
	}

	return lo.Map(recs, func(r Record, _ int) Fact {
		return Fact{
			IdentityKey: r.IdentityKey,
			Category:    r.Category,
			Content:     r.Content,
			StoredAt:    r.Date,
		}
	}), nil
}

// ListMemory returns the most recent limit entries of entryType for
// identityKey, oldest first. An empty entryType means DefaultEntryType, an
// empty identityKey means every identity, and limit <= 0 disables truncation.
func (s *Store) ListMemory(ctx context.Context, identityKey, entryType string, limit int) ([]MemoryEntry, error) {
	if entryType == "" {
		entryType = DefaultEntryType
	}

	recs, err := s.backend.Scan(ctx, Filter{
		IDPrefix:    entryType + ":",
		Type:        entryType,
		IdentityKey: identityKey,
	})
	if err != nil {
		return nil, &StoreError{Op: "list memory", Key: identityKey, Err: err}
	}

	slices.SortStableFunc(recs, func(a, b Record) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}

	return lo.Map(recs, func(r Record, _ int) MemoryEntry {
		return toMemoryEntry(r)
	}), nil
}

func toMemoryEntry(r Record) MemoryEntry {
	return MemoryEntry{
		ID:          r.ID,
		EntryType:   r.Type,
		IdentityKey: r.IdentityKey,
		Content:     r.Content,
		CreatedAt:   r.Date,
	}
}
