package googlebooks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdearboy/bookkeeper/internal/catalog"
)

func loadFixture(t *testing.T) *VolumesResponse {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "volumes.json"))
	require.NoError(t, err)

	var resp VolumesResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return &resp
}

func TestToBooksFullRecord(t *testing.T) {
	books := ToBooks(loadFixture(t))
	require.Len(t, books, 3)

	dune := books[0]
	assert.NotEmpty(t, dune.ID)
	assert.NotEqual(t, "B1hSG45JCX4C", dune.ID)
	assert.Equal(t, "B1hSG45JCX4C", dune.CatalogID)
	assert.Equal(t, "Dune", dune.Title)
	assert.Equal(t, "Frank Herbert", dune.Author)
	assert.Equal(t, "Fiction, Science Fiction", dune.Genre)
	assert.Equal(t, "Penguin", dune.Publisher)
	assert.Equal(t, "9780441172719", dune.ISBN)
	assert.Equal(t, "en", dune.Language)
	assert.Equal(t, "https://books.google.com/books/content?id=B1hSG45JCX4C&zoom=1", dune.CoverImageURL)
	require.NotNil(t, dune.PageCount)
	assert.Equal(t, 896, *dune.PageCount)
	require.NotNil(t, dune.PublishedAt)
	assert.Equal(t, time.Date(2003, 3, 4, 0, 0, 0, 0, time.UTC), *dune.PublishedAt)
	assert.True(t, dune.SourceIsRemote)
}

func TestToBooksDefaults(t *testing.T) {
	books := ToBooks(loadFixture(t))
	require.Len(t, books, 3)

	children := books[1]
	assert.Equal(t, catalog.UnknownAuthor, children.Author)
	assert.Equal(t, catalog.DefaultGenre, children.Genre)
	assert.Equal(t, "0593098242", children.ISBN, "falls back to ISBN-10")
	assert.Equal(t, "https://books.google.com/books/content?id=nTuDEAAAQBAJ&zoom=5", children.CoverImageURL)
	assert.Nil(t, children.PublishedAt, "year-only date is omitted, not fatal")
	assert.Nil(t, children.PageCount)

	pamphlet := books[2]
	assert.Empty(t, pamphlet.CatalogID)
	assert.Equal(t, "Anon, Someone Else", pamphlet.Author)
	assert.Empty(t, pamphlet.CoverImageURL)
	assert.Empty(t, pamphlet.ISBN)
}

func TestToBooksSkipsNilItems(t *testing.T) {
	resp := &VolumesResponse{Items: []*Volume{nil, {ID: "x", VolumeInfo: VolumeInfo{Title: "T"}}}}

	books := ToBooks(resp)
	require.Len(t, books, 1)
	assert.Equal(t, "x", books[0].CatalogID)

	assert.Nil(t, ToBooks(nil))
}

func TestToBookBlankAuthorsUsePlaceholder(t *testing.T) {
	book := ToBook(&Volume{VolumeInfo: VolumeInfo{Authors: []string{" ", ""}, Categories: []string{}}})

	assert.Equal(t, catalog.UnknownAuthor, book.Author)
	assert.Equal(t, catalog.DefaultGenre, book.Genre)
}

func TestToBookNegativePageCountDropped(t *testing.T) {
	pages := -3
	book := ToBook(&Volume{VolumeInfo: VolumeInfo{PageCount: &pages}})
	assert.Nil(t, book.PageCount)

	zero := 0
	book = ToBook(&Volume{VolumeInfo: VolumeInfo{PageCount: &zero}})
	require.NotNil(t, book.PageCount)
	assert.Equal(t, 0, *book.PageCount)
}

func TestCoverURLKeepsHTTPS(t *testing.T) {
	assert.Equal(t, "https://x/y", coverURL(&ImageLinks{Thumbnail: "https://x/y"}))
	assert.Empty(t, coverURL(nil))
	assert.Empty(t, coverURL(&ImageLinks{}))
}
