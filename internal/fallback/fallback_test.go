package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdearboy/bookkeeper/internal/catalog"
	"github.com/xdearboy/bookkeeper/internal/testutil"
)

const sampleCatalog = `
entries:
  - match: ["Dune", "arrakis"]
    books:
      - title: Dune
        author: Frank Herbert
        genre: Science Fiction
        page_count: 412
      - title: Dune Messiah
        author: Frank Herbert
  - match: ["herbert"]
    books:
      - title: Dune
        author: Frank Herbert
      - title: The Dosadi Experiment
  - match: ["   "]
    books:
      - title: Never Matches
`

func TestEmptyGenerator(t *testing.T) {
	books := Empty{}.Generate("anything")
	require.NotNil(t, books)
	assert.Empty(t, books)
}

func TestCatalogGenerateMatchesCaseInsensitively(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	books := c.Generate("  DUNE  ")
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Science Fiction", books[0].Genre)
	require.NotNil(t, books[0].PageCount)
	assert.Equal(t, 412, *books[0].PageCount)
	assert.Equal(t, catalog.DefaultGenre, books[1].Genre)
	assert.False(t, books[0].SourceIsRemote)
}

func TestCatalogGenerateMergesEntriesWithoutDuplicates(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	books := c.Generate("dune by frank herbert")
	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
	}
	assert.Equal(t, []string{"Dune", "Dune Messiah", "The Dosadi Experiment"}, titles)
	assert.Equal(t, catalog.UnknownAuthor, books[2].Author)
}

func TestCatalogGenerateIsDeterministic(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	first := c.Generate("arrakis")
	second := c.Generate("arrakis")
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	other := c.Generate("dune")
	assert.NotEqual(t, first[0].ID, other[0].ID, "ids are scoped to the query")
}

func TestCatalogGenerateNoMatch(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	books := c.Generate("cooking for beginners")
	require.NotNil(t, books)
	assert.Empty(t, books)
	assert.Empty(t, c.Generate("   "))
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("entries: [: broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse fallback catalog")
}

func TestFromFile(t *testing.T) {
	gen, err := FromFile("")
	require.NoError(t, err)
	assert.IsType(t, Empty{}, gen)

	env := testutil.NewTestEnv(t)
	env.WriteFileString("fallback.yaml", sampleCatalog)

	gen, err = FromFile(env.Path("fallback.yaml"))
	require.NoError(t, err)
	assert.Len(t, gen.Generate("dune"), 2)

	_, err = FromFile(env.Path("missing.yaml"))
	require.Error(t, err)
}
