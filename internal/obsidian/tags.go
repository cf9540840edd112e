package obsidian

import (
	"regexp"
	"slices"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenRun     = regexp.MustCompile(`-+`)
)

// NormalizeTag turns free text into an Obsidian tag. Case and "/" hierarchy
// separators are kept; whitespace becomes "-". It returns "" when nothing
// usable remains.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if tag == "" {
		return ""
	}

	tag = strings.ReplaceAll(tag, "&", "and")
	tag = strings.ReplaceAll(tag, "#", "")
	tag = strings.ReplaceAll(tag, ",", "")
	tag = whitespaceRun.ReplaceAllString(tag, "-")
	tag = hyphenRun.ReplaceAllString(tag, "-")

	return strings.Trim(tag, "-")
}

// TagSet collects normalized, unique tags.
type TagSet struct {
	tags map[string]struct{}
}

func NewTagSet() *TagSet {
	return &TagSet{tags: make(map[string]struct{})}
}

// Add normalizes tag and adds it unless it ends up empty.
func (ts *TagSet) Add(tag string) {
	if n := NormalizeTag(tag); n != "" {
		ts.tags[n] = struct{}{}
	}
}

// AddIf adds tag when cond holds.
func (ts *TagSet) AddIf(cond bool, tag string) {
	if cond {
		ts.Add(tag)
	}
}

// Sorted returns the tags in lexical order.
func (ts *TagSet) Sorted() []string {
	out := make([]string, 0, len(ts.tags))
	for t := range ts.tags {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// TagsFromAny extracts strings from a decoded YAML value, which may be
// []string or []any.
func TagsFromAny(val any) []string {
	out := []string{}
	switch v := val.(type) {
	case []string:
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
