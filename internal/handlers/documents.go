package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bibliophage/internal/domain"
	"bibliophage/internal/service"
)

// maxJSONBytes caps JSON request bodies.
const maxJSONBytes = 8 << 20

// DocumentHandler handles HTTP requests for notes.
type DocumentHandler struct {
	documents service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documents service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Store handles POST /api/v1/documents.
func (h *DocumentHandler) Store(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req DocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, "Invalid request body")
		return
	}
	doc, err := req.toDomain()
	if err != nil {
		writeError(ctx, w, err, "Failed to store document")
		return
	}

	stored, err := h.documents.Store(ctx, doc)
	if err != nil {
		writeError(ctx, w, err, "Failed to store document")
		return
	}
	writeOK(ctx, w, http.StatusCreated, fmt.Sprintf("Document '%s' stored successfully", stored.Name), stored)
}

// Get handles GET /api/v1/documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.documents.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, err, "Failed to get document")
		return
	}
	writeOK(ctx, w, http.StatusOK, fmt.Sprintf("Document '%s' retrieved successfully", doc.Name), doc)
}

// Update handles PATCH /api/v1/documents/{id}.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req DocumentPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, "Invalid request body")
		return
	}
	patch, err := req.toDomain()
	if err != nil {
		writeError(ctx, w, err, "Failed to update document")
		return
	}

	doc, err := h.documents.Update(ctx, id, patch)
	if err != nil {
		writeError(ctx, w, err, "Failed to update document")
		return
	}
	writeOK(ctx, w, http.StatusOK, fmt.Sprintf("Document '%s' updated successfully", doc.Name), doc)
}

// Delete handles DELETE /api/v1/documents/{id}. Deleting a missing
// document succeeds with zero records removed.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	n, err := h.documents.Delete(ctx, id)
	if err != nil {
		writeError(ctx, w, err, "Failed to delete document")
		return
	}
	writeOK(ctx, w, http.StatusOK, fmt.Sprintf("Document with ID %s deleted successfully", id), DeleteResponse{Deleted: n})
}

// Search handles POST /api/v1/documents/search.
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body SearchRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeBadRequest(ctx, w, "Invalid request body")
		return
	}
	req, err := body.toDomain()
	if err == nil && req.TypeFilter != nil {
		var typ domain.DocumentType
		if typ, err = domain.ParseDocumentType(*req.TypeFilter); err == nil {
			t := string(typ)
			req.TypeFilter = &t
		}
	}
	if err != nil {
		writeError(ctx, w, err, "Failed to search documents")
		return
	}

	resp, err := h.documents.Search(ctx, req)
	if err != nil {
		writeError(ctx, w, err, "Failed to search documents")
		return
	}
	page := newSearchPage(resp, toDocumentListItem)
	writeOK(ctx, w, http.StatusOK, fmt.Sprintf("Found %d documents", resp.TotalCount), page)
}
