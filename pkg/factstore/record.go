package factstore

import (
	"context"
	"strings"
	"time"
)

// FactType is the Record.Type of every personal fact.
const FactType = "personal_fact"

// DefaultEntryType is the memory log tag used when none is given.
const DefaultEntryType = "memory"

// Record is the storage representation shared by facts and memory log entries.
type Record struct {
	ID          string    `db:"id"`
	Type        string    `db:"type"`
	Category    string    `db:"category"`
	IdentityKey string    `db:"identity_key"`
	Content     string    `db:"content"`
	Timestamp   int64     `db:"timestamp_ms"`
	Date        time.Time `db:"created_at"`
}

// Filter narrows a Scan. Zero-valued fields match everything.
type Filter struct {
	IDPrefix    string
	Type        string
	IdentityKey string
}

// Match applies the filter in memory. Backends that cannot push a predicate
// down to storage use it to post-filter.
func (f Filter) Match(r Record) bool {
	if f.IDPrefix != "" && !strings.HasPrefix(r.ID, f.IDPrefix) {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.IdentityKey != "" && r.IdentityKey != f.IdentityKey {
		return false
	}
	return true
}

// Backend is the document store the Store is layered on. PutItem is an upsert
// keyed by Record.ID and must be atomic per key.
type Backend interface {
	PutItem(ctx context.Context, rec Record) error
	GetItem(ctx context.Context, id string) (Record, bool, error)
	Scan(ctx context.Context, filter Filter) ([]Record, error)
}
