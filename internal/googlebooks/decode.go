package googlebooks

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// The catalog payload is decoded leniently: a malformed item is skipped and
// a malformed field is left at its zero value, so one bad fragment never
// costs the rest of the response.

// UnmarshalJSON decodes items one at a time.
func (r *VolumesResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		TotalItems json.RawMessage `json:"totalItems"`
		Items      json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = VolumesResponse{}
	decodeField("totalItems", raw.TotalItems, &r.TotalItems)

	var items []json.RawMessage
	if !decodeField("items", raw.Items, &items) {
		return nil
	}
	for i, item := range items {
		if isNull(item) {
			continue
		}
		var v Volume
		if err := json.Unmarshal(item, &v); err != nil {
			slog.Debug("Skipping malformed catalog item", "index", i, "error", err)
			continue
		}
		r.Items = append(r.Items, &v)
	}
	return nil
}

// UnmarshalJSON fails only when the item is not a JSON object.
func (v *Volume) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		VolumeInfo json.RawMessage `json:"volumeInfo"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*v = Volume{}
	decodeField("id", raw.ID, &v.ID)
	decodeField("volumeInfo", raw.VolumeInfo, &v.VolumeInfo)
	return nil
}

// UnmarshalJSON decodes every field on its own. Authors and categories
// may also arrive as a single string; a numeric string page count is
// accepted.
func (info *VolumeInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title               json.RawMessage `json:"title"`
		Authors             json.RawMessage `json:"authors"`
		Publisher           json.RawMessage `json:"publisher"`
		PublishedDate       json.RawMessage `json:"publishedDate"`
		Description         json.RawMessage `json:"description"`
		Categories          json.RawMessage `json:"categories"`
		PageCount           json.RawMessage `json:"pageCount"`
		IndustryIdentifiers json.RawMessage `json:"industryIdentifiers"`
		Language            json.RawMessage `json:"language"`
		ImageLinks          json.RawMessage `json:"imageLinks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*info = VolumeInfo{}
	decodeField("title", raw.Title, &info.Title)
	decodeField("publisher", raw.Publisher, &info.Publisher)
	decodeField("publishedDate", raw.PublishedDate, &info.PublishedDate)
	decodeField("description", raw.Description, &info.Description)
	decodeField("language", raw.Language, &info.Language)
	decodeField("imageLinks", raw.ImageLinks, &info.ImageLinks)

	info.Authors = decodeStrings("authors", raw.Authors)
	info.Categories = decodeStrings("categories", raw.Categories)
	info.PageCount = decodePageCount(raw.PageCount)
	info.IndustryIdentifiers = decodeIdentifiers(raw.IndustryIdentifiers)
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeField reports whether raw was present and decoded into dst.
func decodeField(name string, raw json.RawMessage, dst any) bool {
	if isNull(raw) {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Debug("Dropping malformed catalog field", "field", name, "value", truncateRaw(raw), "error", err)
		return false
	}
	return true
}

func decodeStrings(name string, raw json.RawMessage) []string {
	if isNull(raw) {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}

	var elems []json.RawMessage
	if !decodeField(name, raw, &elems) {
		return nil
	}
	values := make([]string, 0, len(elems))
	for _, elem := range elems {
		var s string
		if decodeField(name, elem, &s) {
			values = append(values, s)
		}
	}
	return values
}

func decodePageCount(raw json.RawMessage) *int {
	if isNull(raw) {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == math.Trunc(n) && math.Abs(n) <= math.MaxInt32 {
			pages := int(n)
			return &pages
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if pages, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &pages
		}
	}

	slog.Debug("Dropping malformed catalog field", "field", "pageCount", "value", truncateRaw(raw))
	return nil
}

func decodeIdentifiers(raw json.RawMessage) []IndustryIdentifier {
	var elems []json.RawMessage
	if !decodeField("industryIdentifiers", raw, &elems) {
		return nil
	}
	ids := make([]IndustryIdentifier, 0, len(elems))
	for _, elem := range elems {
		var id IndustryIdentifier
		if decodeField("industryIdentifiers", elem, &id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func truncateRaw(raw json.RawMessage) string {
	const limit = 64
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
