package db_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EternisAI/enchanted-assistant/pkg/db"
	"github.com/EternisAI/enchanted-assistant/pkg/factstore"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "memory.db")
	store, err := db.NewStore(context.Background(), path, log.New(os.Stderr))
	if err != nil {
		t.Fatal("Failed to create store:", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteSafetyFeatures(t *testing.T) {
	store := newTestStore(t)

	t.Run("WALModeEnabled", func(t *testing.T) {
		var mode string
		require.NoError(t, store.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)
	})

	t.Run("BusyTimeoutSet", func(t *testing.T) {
		var timeout int
		require.NoError(t, store.DB().QueryRow("PRAGMA busy_timeout").Scan(&timeout))
		assert.GreaterOrEqual(t, timeout, 5000)
	})

	t.Run("MigrationsApplied", func(t *testing.T) {
		var name string
		err := store.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='memory_records'`).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, "memory_records", name)
	})
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.db")
	logger := log.New(os.Stderr)

	store, err := db.NewStore(ctx, path, logger)
	require.NoError(t, err)
	require.NoError(t, store.PutItem(ctx, factstore.Record{ID: "memory:1", Type: "memory", Content: "kept", Date: time.Now()}))
	require.NoError(t, store.Close())

	store, err = db.NewStore(ctx, path, logger)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec, found, err := store.GetItem(ctx, "memory:1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "kept", rec.Content)
}

func TestPutItemUpserts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	date := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)

	rec := factstore.Record{
		ID:          factstore.FactKey("favorite_color", "u1"),
		Type:        factstore.FactType,
		Category:    "favorite_color",
		IdentityKey: "u1",
		Content:     "blue",
		Timestamp:   date.UnixMilli(),
		Date:        date,
	}
	require.NoError(t, store.PutItem(ctx, rec))
	rec.Content = "green"
	require.NoError(t, store.PutItem(ctx, rec))

	var count int
	require.NoError(t, store.DB().Get(&count, `SELECT COUNT(*) FROM memory_records`))
	assert.Equal(t, 1, count)

	got, found, err := store.GetItem(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "green", got.Content)
	assert.Equal(t, "u1", got.IdentityKey)
	assert.Equal(t, date.UnixMilli(), got.Timestamp)
	assert.True(t, date.Equal(got.Date), "got %v", got.Date)

	_, found, err = store.GetItem(ctx, "fact:nope:u1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestScanFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	put := func(id, typ, identity string) {
		require.NoError(t, store.PutItem(ctx, factstore.Record{
			ID: id, Type: typ, IdentityKey: identity, Content: id, Date: time.Now(),
		}))
	}
	put("fact:city:u1", factstore.FactType, "u1")
	put("fact:city:u2", factstore.FactType, "u2")
	put("memory:1", "memory", "u1")
	put("memory:2", "memory", "")
	put("café:1", "café", "u1")

	all, err := store.Scan(ctx, factstore.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	facts, err := store.Scan(ctx, factstore.Filter{IDPrefix: "fact:", Type: factstore.FactType, IdentityKey: "u1"})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "fact:city:u1", facts[0].ID)

	mem, err := store.Scan(ctx, factstore.Filter{IDPrefix: "memory:"})
	require.NoError(t, err)
	assert.Len(t, mem, 2)

	accented, err := store.Scan(ctx, factstore.Filter{IDPrefix: "café:"})
	require.NoError(t, err)
	assert.Len(t, accented, 1)
}

func TestFactStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	fs := factstore.New(newTestStore(t), log.New(os.Stderr))

	require.NoError(t, fs.PutFact(ctx, "u1", "favorite_color", "blue"))
	require.NoError(t, fs.PutFact(ctx, "u1", "favorite_color", "green"))
	require.NoError(t, fs.PutFact(ctx, "u2", "favorite_color", "red"))

	got, err := fs.GetFact(ctx, "u1", "favorite_color")
	require.NoError(t, err)
	assert.Equal(t, "green", got)

	for i := 0; i < 12; i++ {
		_, err := fs.AppendMemory(ctx, "memory", fmt.Sprintf("m%02d", i), "u1")
		require.NoError(t, err)
	}
	entries, err := fs.ListMemory(ctx, "u1", "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	assert.Equal(t, "m02", entries[0].Content)
	assert.Equal(t, "m11", entries[9].Content)
}
