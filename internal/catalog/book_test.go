package catalog

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameAs(t *testing.T) {
	tests := []struct {
		name string
		a, b Book
		want bool
	}{
		{
			name: "matching catalog ids",
			a:    Book{CatalogID: "abc", Title: "Dune", Author: "Frank Herbert"},
			b:    Book{CatalogID: "abc", Title: "Dune (Deluxe)", Author: "F. Herbert"},
			want: true,
		},
		{
			name: "different ids but same title and author",
			a:    Book{CatalogID: "abc", Title: "Dune", Author: "Frank Herbert"},
			b:    Book{CatalogID: "xyz", Title: "Dune", Author: "Frank Herbert"},
			want: true,
		},
		{
			name: "title match only",
			a:    Book{Title: "Dune", Author: "Frank Herbert"},
			b:    Book{Title: "Dune", Author: "Brian Herbert"},
			want: false,
		},
		{
			name: "title comparison is case sensitive",
			a:    Book{Title: "Dune", Author: "Frank Herbert"},
			b:    Book{Title: "dune", Author: "Frank Herbert"},
			want: false,
		},
		{
			name: "empty catalog ids never match each other",
			a:    Book{Title: "A", Author: "X"},
			b:    Book{Title: "B", Author: "Y"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.SameAs(tt.b))
			assert.Equal(t, tt.want, tt.b.SameAs(tt.a))
		})
	}
}

func TestPublishDateMillis(t *testing.T) {
	_, ok := Book{}.PublishDateMillis()
	assert.False(t, ok)

	at := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	ms, ok := Book{PublishedAt: &at}.PublishDateMillis()
	require.True(t, ok)
	assert.Equal(t, at.UnixMilli(), ms)
}

func TestNewID(t *testing.T) {
	id, err := NewID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "book-"))

	other, err := NewID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestNewIDPropagatesGeneratorError(t *testing.T) {
	orig := newID
	newID = func() (string, error) { return "", errors.New("no entropy") }
	t.Cleanup(func() { newID = orig })

	_, err := NewID()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entropy")
	assert.Panics(t, func() { MustNewID() })
}
