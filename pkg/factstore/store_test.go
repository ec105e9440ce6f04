package factstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	err error
}

func (f failingBackend) PutItem(context.Context, Record) error { return f.err }
func (f failingBackend) GetItem(context.Context, string) (Record, bool, error) {
	return Record{}, false, f.err
}
func (f failingBackend) Scan(context.Context, Filter) ([]Record, error) { return nil, f.err }

func newTestStore(t *testing.T, opts ...Option) (*Store, *MapBackend) {
	t.Helper()
	backend := NewMapBackend()
	return New(backend, log.New(io.Discard), opts...), backend
}

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}

func TestPutFactOverwrites(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	require.NoError(t, store.PutFact(ctx, "u1", "favorite_color", "blue"))
	require.NoError(t, store.PutFact(ctx, "u1", "favorite_color", "green"))

	assert.Equal(t, 1, backend.Len())
	got, err := store.GetFact(ctx, "u1", "favorite_color")
	require.NoError(t, err)
	assert.Equal(t, "green", got)
}

func TestFactsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.PutFact(ctx, "u1", "birthday", "May 1"))
	require.NoError(t, store.PutFact(ctx, "u1", "city", "Lisbon"))
	require.NoError(t, store.PutFact(ctx, "u2", "birthday", "June 2"))

	got, err := store.GetFact(ctx, "u1", "birthday")
	require.NoError(t, err)
	assert.Equal(t, "May 1", got)

	got, err = store.GetFact(ctx, "u2", "birthday")
	require.NoError(t, err)
	assert.Equal(t, "June 2", got)

	facts, err := store.ListFacts(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, facts, 2)
	for _, f := range facts {
		assert.Equal(t, "u1", f.IdentityKey)
	}
}

func TestListFactsIsolatesIdentities(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for i := 0; i < 20; i++ {
		require.NoError(t, store.PutFact(ctx, fmt.Sprintf("other-%d", i), "pet", "cat"))
	}
	require.NoError(t, store.PutFact(ctx, "me", "pet", "dog"))
	_, err := store.AppendMemory(ctx, "memory", "not a fact", "me")
	require.NoError(t, err)

	facts, err := store.ListFacts(ctx, "me")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "dog", facts[0].Content)
}

func TestGetFactNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.GetFact(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	var verr *ValidationError

	require.ErrorAs(t, store.PutFact(ctx, "", "c", "x"), &verr)
	assert.Equal(t, "identity_key", verr.Field)
	require.ErrorAs(t, store.PutFact(ctx, "u", "", "x"), &verr)
	assert.Equal(t, "category", verr.Field)

	_, err := store.AppendMemory(ctx, "", "x", "u")
	require.ErrorAs(t, err, &verr)
	_, err = store.AppendMemory(ctx, "memory", "", "u")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
}

func TestAppendMemoryNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store, backend := newTestStore(t, WithClock(func() time.Time { return fixed }))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.AppendMemory(ctx, "memory", fmt.Sprintf("entry %d", i), "u1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, backend.Len())
}

func TestListMemoryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store, _ := newTestStore(t, WithClock(steppingClock(start, time.Minute)))

	for i := 0; i < 15; i++ {
		_, err := store.AppendMemory(ctx, "memory", fmt.Sprintf("m%02d", i), "u1")
		require.NoError(t, err)
	}
	_, err := store.AppendMemory(ctx, "memory", "someone else", "u2")
	require.NoError(t, err)
	_, err = store.AppendMemory(ctx, "note", "different type", "u1")
	require.NoError(t, err)

	entries, err := store.ListMemory(ctx, "u1", "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	assert.Equal(t, "m05", entries[0].Content)
	assert.Equal(t, "m14", entries[9].Content)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].CreatedAt.Before(entries[i].CreatedAt))
	}

	all, err := store.ListMemory(ctx, "u1", "memory", 0)
	require.NoError(t, err)
	assert.Len(t, all, 15)

	notes, err := store.ListMemory(ctx, "u1", "note", 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "note", notes[0].EntryType)
}

func TestBackendFailuresAreStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	store := New(failingBackend{err: boom}, log.New(io.Discard))

	var serr *StoreError
	err := store.PutFact(ctx, "u1", "c", "x")
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "put fact", serr.Op)
	assert.ErrorIs(t, err, boom)

	_, err = store.GetFact(ctx, "u1", "c")
	require.ErrorAs(t, err, &serr)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = store.ListFacts(ctx, "u1")
	require.ErrorAs(t, err, &serr)

	_, err = store.AppendMemory(ctx, "memory", "x", "u1")
	require.ErrorAs(t, err, &serr)

	_, err = store.ListMemory(ctx, "u1", "", 10)
	require.ErrorAs(t, err, &serr)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "fact:birthday:+15550001", FactKey("birthday", "+15550001"))
	assert.Equal(t, "memory:42", MemoryKey("memory", 42))
}
