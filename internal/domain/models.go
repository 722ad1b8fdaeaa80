package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DocumentType classifies a free-form note.
type DocumentType string

const (
	DocumentTypeNote         DocumentType = "NOTE"
	DocumentTypeLoreFragment DocumentType = "LORE_FRAGMENT"
	DocumentTypeCharacter    DocumentType = "CHARACTER"
	DocumentTypeLocation     DocumentType = "LOCATION"
	DocumentTypeObject       DocumentType = "OBJECT"
	DocumentTypeQuest        DocumentType = "QUEST"
	DocumentTypeSessionLog   DocumentType = "SESSION_LOG"
)

var documentTypes = []DocumentType{
	DocumentTypeNote,
	DocumentTypeLoreFragment,
	DocumentTypeCharacter,
	DocumentTypeLocation,
	DocumentTypeObject,
	DocumentTypeQuest,
	DocumentTypeSessionLog,
}

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	for _, known := range documentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseDocumentType parses a document type name, case-insensitively.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", Invalid("type", "unknown document type %q", s)
	}
	return t, nil
}

// Kind identifies which record collection owns a chunk.
type Kind string

const (
	KindDocument Kind = "document"
	KindPdf      Kind = "pdf"
)

// PdfStatus tracks whether a Pdf record has finished ingestion.
type PdfStatus string

const (
	PdfStatusIngesting PdfStatus = "INGESTING"
	PdfStatusPersisted PdfStatus = "PERSISTED"
)

// Document is a free-form note.
type Document struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Content        string       `json:"content"`
	Type           DocumentType `json:"type"`
	Tags           []Tag        `json:"tags"`
	CharacterCount int          `json:"character_count"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// CountCharacters returns the number of code points in s.
func CountCharacters(s string) int {
	return utf8.RuneCountInString(s)
}

// DocumentPatch carries the fields of a partial document update. Nil fields are left unchanged.
type DocumentPatch struct {
	Name    *string
	Content *string
	Type    *DocumentType
	Tags    *[]Tag
}

// Empty reports whether the patch changes nothing.
func (p DocumentPatch) Empty() bool {
	return p.Name == nil && p.Content == nil && p.Type == nil && p.Tags == nil
}

// Apply returns doc with the patch applied. Timestamps are left to the store.
func (p DocumentPatch) Apply(doc Document) Document {
	if p.Name != nil {
		doc.Name = *p.Name
	}
	if p.Content != nil {
		doc.Content = *p.Content
		doc.CharacterCount = CountCharacters(doc.Content)
	}
	if p.Type != nil {
		doc.Type = *p.Type
	}
	if p.Tags != nil {
		doc.Tags = *p.Tags
	}
	return doc
}

// RestorePatch builds a patch that puts every mutable field of doc back.
func RestorePatch(doc Document) DocumentPatch {
	tags := doc.Tags
	return DocumentPatch{Name: &doc.Name, Content: &doc.Content, Type: &doc.Type, Tags: &tags}
}

// Pdf is the parent record of an ingested rulebook.
type Pdf struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	System     string    `json:"system"`
	Type       string    `json:"type"`
	PageCount  int       `json:"page_count"`
	OriginPath string    `json:"origin_path"`
	FileSize   int64     `json:"file_size"`
	ChunkCount int       `json:"chunk_count"`
	Tags       []Tag     `json:"tags"`
	Status     PdfStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PdfPatch carries the metadata fields of a partial Pdf update.
type PdfPatch struct {
	Name   *string
	System *string
	Type   *string
	Tags   *[]Tag
}

// Empty reports whether the patch changes nothing.
func (p PdfPatch) Empty() bool {
	return p.Name == nil && p.System == nil && p.Type == nil && p.Tags == nil
}

// Apply returns pdf with the patch applied.
func (p PdfPatch) Apply(pdf Pdf) Pdf {
	if p.Name != nil {
		pdf.Name = *p.Name
	}
	if p.System != nil {
		pdf.System = *p.System
	}
	if p.Type != nil {
		pdf.Type = *p.Type
	}
	if p.Tags != nil {
		pdf.Tags = *p.Tags
	}
	return pdf
}

// Chunk is an indexed text segment of a Document or Pdf.
type Chunk struct {
	ChunkID       string
	DocumentID    string
	Kind          Kind
	SequenceIndex int
	Text          string
	Vector        []float32
	CharStart     int
	CharEnd       int
}
