package search

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/xdearboy/bookkeeper/internal/catalog"
)

// Relevance weights. These are tuned values carried over as-is; changing
// any of them changes result order.
const (
	titleExactScore    = 100
	titlePrefixScore   = 50
	titleContainsScore = 30
	titleWordScore     = 10

	authorExactScore    = 80
	authorPrefixScore   = 40
	authorContainsScore = 20
	authorWordScore     = 5

	// query words must be longer than this to count on their own
	minScoredWordLength = 2
)

// Score computes the relevance of a book for query. Title and author
// contributions are added together.
func Score(book catalog.Book, query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	words := scoredWords(q)

	return fieldScore(strings.ToLower(book.Title), q, words,
		titleExactScore, titlePrefixScore, titleContainsScore, titleWordScore) +
		fieldScore(strings.ToLower(book.Author), q, words,
			authorExactScore, authorPrefixScore, authorContainsScore, authorWordScore)
}

func fieldScore(field, q string, words []string, exact, prefix, contains, perWord int) int {
	switch {
	case field == q:
		return exact
	case strings.HasPrefix(field, q):
		return prefix
	case strings.Contains(field, q):
		return contains
	}

	score := 0
	for _, w := range words {
		if strings.Contains(field, w) {
			score += perWord
		}
	}
	return score
}

func scoredWords(q string) []string {
	fields := strings.Fields(q)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > minScoredWordLength {
			words = append(words, f)
		}
	}
	return words
}

// Rank returns a new slice of books ordered by descending Score.
// Books with equal scores keep their input order.
func Rank(books []catalog.Book, query string) []catalog.Book {
	type scored struct {
		book  catalog.Book
		score int
	}

	items := make([]scored, len(books))
	for i, b := range books {
		items[i] = scored{book: b, score: Score(b, query)}
	}

	slices.SortStableFunc(items, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	ranked := make([]catalog.Book, len(items))
	for i, item := range items {
		ranked[i] = item.book
	}
	return ranked
}
