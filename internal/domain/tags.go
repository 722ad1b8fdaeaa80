package domain

import "strings"

// Tag is a named, multi-valued attribute attached to a Document or Pdf.
type Tag struct {
	Name   string   `json:"name" bson:"name"`
	Values []string `json:"values" bson:"values"`
}

// TagFilter is a single equality constraint: a record matches when one of its
// tags has Name and lists Value among its values.
type TagFilter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NormalizeTags merges tags sharing a name and drops repeated values,
// keeping first-seen order. Names are trimmed and must not be empty.
func NormalizeTags(tags []Tag) ([]Tag, error) {
	out := make([]Tag, 0, len(tags))
	byName := make(map[string]int, len(tags))
	seen := make(map[string]map[string]struct{}, len(tags))

	for _, tag := range tags {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			return nil, Invalid("tags", "tag name must not be empty")
		}

		idx, ok := byName[name]
		if !ok {
			idx = len(out)
			byName[name] = idx
			seen[name] = make(map[string]struct{})
			out = append(out, Tag{Name: name, Values: []string{}})
		}

		for _, v := range tag.Values {
			if _, dup := seen[name][v]; dup {
				continue
			}
			seen[name][v] = struct{}{}
			out[idx].Values = append(out[idx].Values, v)
		}
	}

	return out, nil
}

// HasTag reports whether tags satisfy the filter.
func HasTag(tags []Tag, f TagFilter) bool {
	for _, t := range tags {
		if t.Name != f.Name {
			continue
		}
		for _, v := range t.Values {
			if v == f.Value {
				return true
			}
		}
	}
	return false
}
