package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdearboy/bookkeeper/internal/catalog"
	"github.com/xdearboy/bookkeeper/internal/testutil"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	env := testutil.NewTestEnv(t)

	store := NewSQLiteStore(env.Path("books.db"))
	require.NoError(t, store.Connect())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	published := time.Date(2003, 3, 4, 0, 0, 0, 0, time.UTC)
	pages := 896
	books := []catalog.Book{
		{
			ID: "book-1", CatalogID: "vol-1", Title: "Dune", Author: "Frank Herbert",
			Genre: "Fiction", PublishedAt: &published, PageCount: &pages,
			ISBN: "9780441013593", SourceIsRemote: true,
		},
		{ID: "fallback-1", Title: "Dune Messiah", Author: "Frank Herbert", Genre: catalog.DefaultGenre},
	}
	require.NoError(t, store.SaveBooks(ctx, "dune", books))

	got, err := store.ListBooks(ctx, "")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, books[0].ID, got[0].ID)
	assert.Equal(t, "vol-1", got[0].CatalogID)
	require.NotNil(t, got[0].PublishedAt)
	assert.True(t, published.Equal(*got[0].PublishedAt))
	require.NotNil(t, got[0].PageCount)
	assert.Equal(t, 896, *got[0].PageCount)
	assert.True(t, got[0].SourceIsRemote)

	assert.Empty(t, got[1].CatalogID)
	assert.Nil(t, got[1].PublishedAt)
	assert.Nil(t, got[1].PageCount)
	assert.False(t, got[1].SourceIsRemote)
}

func TestSQLiteStore_ReplacesSameBook(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBooks(ctx, "dune", []catalog.Book{
		{ID: "book-1", CatalogID: "vol-1", Title: "Dune", Author: "Frank Herbert"},
	}))
	// same catalog id under a new local id
	require.NoError(t, store.SaveBooks(ctx, "herbert", []catalog.Book{
		{ID: "book-2", CatalogID: "vol-1", Title: "Dune", Author: "Frank Herbert", Genre: "Classics"},
	}))
	// same title and author without a catalog id
	require.NoError(t, store.SaveBooks(ctx, "herbert", []catalog.Book{
		{ID: "book-3", Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi"},
	}))

	got, err := store.ListBooks(ctx, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "book-3", got[0].ID)
	assert.Equal(t, "Sci-Fi", got[0].Genre)
}

func TestSQLiteStore_ListByQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBooks(ctx, "dune", []catalog.Book{{ID: "a", Title: "Dune", Author: "Frank Herbert"}}))
	require.NoError(t, store.SaveBooks(ctx, "emma", []catalog.Book{{ID: "b", Title: "Emma", Author: "Jane Austen"}}))

	got, err := store.ListBooks(ctx, "emma")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Emma", got[0].Title)

	none, err := store.ListBooks(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLiteStore_SaveNothing(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveBooks(context.Background(), "dune", nil))
}

func TestSQLiteStore_NotConnected(t *testing.T) {
	store := NewSQLiteStore("unused.db")

	err := store.SaveBooks(context.Background(), "dune", []catalog.Book{{ID: "a"}})
	require.Error(t, err)
	_, err = store.ListBooks(context.Background(), "")
	require.Error(t, err)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_ImplementsStore(t *testing.T) {
	var _ Store = NewSQLiteStore("unused.db")
}
