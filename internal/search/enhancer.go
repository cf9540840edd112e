package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// shortQueryLength is the rune count below which a query is "short" and may
// receive a category variant or the enhancement retry.
const shortQueryLength = 20

// VariantKind tells how a variant was derived from the original query.
type VariantKind int

const (
	// VariantVerbatim is the query as typed.
	VariantVerbatim VariantKind = iota
	// VariantPhrase is a multi-word query wrapped in quotes.
	VariantPhrase
	// VariantCategory is the query with an inferred category appended.
	VariantCategory
)

func (k VariantKind) String() string {
	switch k {
	case VariantVerbatim:
		return "verbatim"
	case VariantPhrase:
		return "phrase"
	case VariantCategory:
		return "category"
	default:
		return "unknown"
	}
}

// Variant is one query permutation dispatched for a single search.
type Variant struct {
	Kind  VariantKind
	Query string
	// Primary marks the first remote attempt. Only the primary variant may
	// use the enhancement retry.
	Primary bool
}

type categoryRule struct {
	category string
	keywords []string
}

// categoryRules is ordered; the first rule with a matching keyword wins.
var categoryRules = []categoryRule{
	{"science fiction", []string{"space", "robot", "robots", "alien", "aliens", "galaxy", "starship", "cyberpunk", "dystopia", "future", "mars"}},
	{"detective", []string{"detective", "murder", "mystery", "crime", "investigation", "sherlock", "noir", "killer"}},
	{"romance", []string{"love", "romance", "heart", "kiss", "wedding", "passion"}},
	{"history", []string{"war", "empire", "ancient", "medieval", "revolution", "dynasty", "civilization", "kingdom"}},
	{"biography", []string{"life", "memoir", "memoirs", "autobiography", "diary", "letters"}},
	{"programming", []string{"code", "coding", "python", "java", "golang", "javascript", "algorithm", "algorithms", "software", "developer"}},
	{"psychology", []string{"mind", "emotion", "emotions", "behavior", "habit", "habits", "anxiety", "therapy"}},
	{"philosophy", []string{"ethics", "existence", "logic", "stoic", "stoicism", "metaphysics", "virtue"}},
	{"science", []string{"physics", "chemistry", "biology", "math", "mathematics", "quantum", "evolution", "universe"}},
	{"art", []string{"painting", "drawing", "design", "music", "sculpture", "photography"}},
}

// InferCategory returns the category suggested by the query's words.
func InferCategory(query string) (string, bool) {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			for _, w := range words {
				if w == keyword {
					return rule.category, true
				}
			}
		}
	}
	return "", false
}

// Enhance expands a non-empty, trimmed query into 1-3 ordered variants:
// the query verbatim; a quoted phrase when it contains whitespace; and the
// query plus an inferred category when it is short and does not already
// mention that category.
func Enhance(query string) []Variant {
	variants := []Variant{{Kind: VariantVerbatim, Query: query}}

	if isMultiWord(query) {
		variants = append(variants, Variant{Kind: VariantPhrase, Query: `"` + query + `"`})
	}

	if isShort(query) {
		if category, ok := InferCategory(query); ok && !strings.Contains(strings.ToLower(query), category) {
			variants = append(variants, Variant{Kind: VariantCategory, Query: query + " " + category})
		}
	}

	primary := 0
	if len(variants) > 1 && variants[1].Kind == VariantPhrase {
		primary = 1
	}
	variants[primary].Primary = true

	return variants
}

func isMultiWord(query string) bool {
	return strings.IndexFunc(query, unicode.IsSpace) >= 0
}

func isShort(query string) bool {
	return utf8.RuneCountInString(query) < shortQueryLength
}

// unquote strips the phrase quotes added by Enhance.
func unquote(query string) string {
	if len(query) >= 2 && strings.HasPrefix(query, `"`) && strings.HasSuffix(query, `"`) {
		return query[1 : len(query)-1]
	}
	return query
}
