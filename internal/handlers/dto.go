package handlers

import (
	"time"
	"unicode/utf8"

	"bibliophage/internal/domain"
)

// snippetLength is the number of code points kept in a list item's content.
const snippetLength = 200

// SearchRequest is the JSON body of a search call.
type SearchRequest struct {
	TextQuery     *string            `json:"text_query"`
	SemanticQuery *string            `json:"semantic_query"`
	TypeFilter    *string            `json:"type_filter"`
	SystemFilter  *string            `json:"system_filter"`
	TagFilters    []domain.TagFilter `json:"tag_filters"`
	PageSize      int                `json:"page_size"`
	PageNumber    int                `json:"page_number"`
	SortOrder     string             `json:"sort_order"`
}

func (r SearchRequest) toDomain() (domain.SearchRequest, error) {
	order, err := domain.ParseSortOrder(r.SortOrder)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	return domain.SearchRequest{
		TextQuery:     r.TextQuery,
		SemanticQuery: r.SemanticQuery,
		TypeFilter:    r.TypeFilter,
		SystemFilter:  r.SystemFilter,
		TagFilters:    r.TagFilters,
		PageSize:      r.PageSize,
		PageNumber:    r.PageNumber,
		SortOrder:     order,
	}, nil
}

// SearchPage is one page of search results.
type SearchPage[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	PageNumber int   `json:"page_number"`
	HasMore    bool  `json:"has_more"`
}

func newSearchPage[S, T any](resp domain.SearchResponse[S], convert func(S) T) SearchPage[T] {
	items := make([]T, len(resp.Items))
	for i, item := range resp.Items {
		items[i] = convert(item)
	}
	return SearchPage[T]{
		Items:      items,
		TotalCount: resp.TotalCount,
		PageNumber: resp.PageNumber,
		HasMore:    resp.HasMore,
	}
}

// DocumentRequest is the JSON body for storing a document.
type DocumentRequest struct {
	Name    string       `json:"name"`
	Content string       `json:"content"`
	Type    string       `json:"type"`
	Tags    []domain.Tag `json:"tags"`
}

func (r DocumentRequest) toDomain() (domain.Document, error) {
	typ, err := domain.ParseDocumentType(r.Type)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Name: r.Name, Content: r.Content, Type: typ, Tags: r.Tags}, nil
}

// DocumentPatchRequest is the JSON body of a partial document update.
// Absent fields are left unchanged.
type DocumentPatchRequest struct {
	Name    *string       `json:"name"`
	Content *string       `json:"content"`
	Type    *string       `json:"type"`
	Tags    *[]domain.Tag `json:"tags"`
}

func (r DocumentPatchRequest) toDomain() (domain.DocumentPatch, error) {
	patch := domain.DocumentPatch{Name: r.Name, Content: r.Content, Tags: r.Tags}
	if r.Type != nil {
		typ, err := domain.ParseDocumentType(*r.Type)
		if err != nil {
			return domain.DocumentPatch{}, err
		}
		patch.Type = &typ
	}
	return patch, nil
}

// DocumentListItem is a search result; Content is cut to a snippet.
type DocumentListItem struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	ContentSnippet string              `json:"content_snippet"`
	Type           domain.DocumentType `json:"type"`
	Tags           []domain.Tag        `json:"tags"`
	CharacterCount int                 `json:"character_count"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func toDocumentListItem(doc domain.Document) DocumentListItem {
	return DocumentListItem{
		ID:             doc.ID,
		Name:           doc.Name,
		ContentSnippet: snippet(doc.Content),
		Type:           doc.Type,
		Tags:           nonNilTags(doc.Tags),
		CharacterCount: doc.CharacterCount,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

func snippet(s string) string {
	if utf8.RuneCountInString(s) <= snippetLength {
		return s
	}
	return string([]rune(s)[:snippetLength]) + "..."
}

func nonNilTags(tags []domain.Tag) []domain.Tag {
	if tags == nil {
		return []domain.Tag{}
	}
	return tags
}

// PdfMetadata is the "metadata" part of a PDF upload.
type PdfMetadata struct {
	Name           string                 `json:"name"`
	System         string                 `json:"system"`
	Type           string                 `json:"type"`
	OriginPath     string                 `json:"origin_path"`
	Tags           []domain.Tag           `json:"tags"`
	ChunkingConfig *domain.ChunkingConfig `json:"chunking_config"`
}

// PdfPatchRequest is the JSON body of a PDF metadata update.
type PdfPatchRequest struct {
	Name   *string       `json:"name"`
	System *string       `json:"system"`
	Type   *string       `json:"type"`
	Tags   *[]domain.Tag `json:"tags"`
}

func (r PdfPatchRequest) toDomain() domain.PdfPatch {
	return domain.PdfPatch{Name: r.Name, System: r.System, Type: r.Type, Tags: r.Tags}
}

// LoadResponse is the payload of a PDF load.
type LoadResponse struct {
	Pdf   domain.Pdf       `json:"pdf"`
	Job   domain.IngestJob `json:"job"`
	Stats any              `json:"stats,omitempty"`
}

// DeleteResponse reports how many records a delete removed.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}
