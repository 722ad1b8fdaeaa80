package domain

import (
	"math"
	"strings"
)

// SortOrder selects the ordering of metadata search results.
type SortOrder string

const (
	SortUnspecified SortOrder = "SORT_ORDER_UNSPECIFIED"
	SortNameAsc     SortOrder = "NAME_ASC"
	SortNameDesc    SortOrder = "NAME_DESC"
	SortCreatedAsc  SortOrder = "CREATED_AT_ASC"
	SortCreatedDesc SortOrder = "CREATED_AT_DESC"
)

// DefaultSortOrder is insertion order.
const DefaultSortOrder = SortCreatedAsc

// ParseSortOrder accepts the canonical names; an empty string means unspecified.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToUpper(strings.TrimSpace(s))); o {
	case "", SortUnspecified:
		return SortUnspecified, nil
	case SortNameAsc, SortNameDesc, SortCreatedAsc, SortCreatedDesc:
		return o, nil
	default:
		return "", Invalid("sort_order", "unknown sort order %q", s)
	}
}

// Effective resolves the unspecified order to the default.
func (o SortOrder) Effective() SortOrder {
	if o == "" || o == SortUnspecified {
		return DefaultSortOrder
	}
	return o
}

// SearchRequest describes a filtered, paginated search. Nil filters mean "no filter".
type SearchRequest struct {
	TextQuery     *string
	SemanticQuery *string
	TypeFilter    *string
	SystemFilter  *string
	TagFilters    []TagFilter
	PageSize      int
	PageNumber    int
	SortOrder     SortOrder
}

// Validate checks pagination and filter input.
func (r SearchRequest) Validate() error {
	if r.PageSize < 1 {
		return Invalid("page_size", "must be at least 1, got %d", r.PageSize)
	}
	if r.PageNumber < 1 {
		return Invalid("page_number", "must be at least 1, got %d", r.PageNumber)
	}
	if r.PageNumber > math.MaxInt/r.PageSize {
		return Invalid("page_number", "page %d of size %d is out of range", r.PageNumber, r.PageSize)
	}
	if _, err := ParseSortOrder(string(r.SortOrder)); err != nil {
		return err
	}
	for _, f := range r.TagFilters {
		if strings.TrimSpace(f.Name) == "" {
			return Invalid("tag_filters", "tag filter name must not be empty")
		}
	}
	return nil
}

// Semantic reports whether the request carries a non-blank similarity query.
func (r SearchRequest) Semantic() bool {
	return r.SemanticQuery != nil && strings.TrimSpace(*r.SemanticQuery) != ""
}

// Offset is the zero-based index of the first item on the requested page.
// Only meaningful for a request that passed Validate.
func (r SearchRequest) Offset() int {
	return (r.PageNumber - 1) * r.PageSize
}

// SearchResponse is one page of search results.
type SearchResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	PageNumber int   `json:"page_number"`
	HasMore    bool  `json:"has_more"`
}

// NewSearchResponse assembles a page. Items is never nil.
func NewSearchResponse[T any](items []T, total int64, req SearchRequest) SearchResponse[T] {
	if items == nil {
		items = []T{}
	}
	return SearchResponse[T]{
		Items:      items,
		TotalCount: total,
		PageNumber: req.PageNumber,
		HasMore:    int64(req.PageNumber)*int64(req.PageSize) < total,
	}
}
