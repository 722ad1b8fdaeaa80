package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/indexer"
	"bibliophage/internal/service"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

// PdfHandler handles HTTP requests for PDFs and their ingestion jobs.
type PdfHandler struct {
	pdfs           service.PdfService
	maxUploadBytes int64
}

// NewPdfHandler creates a new PdfHandler. Uploads larger than
// maxUploadBytes are rejected.
func NewPdfHandler(pdfs service.PdfService, maxUploadBytes int64) *PdfHandler {
	return &PdfHandler{pdfs: pdfs, maxUploadBytes: maxUploadBytes}
}

// Load handles POST /api/v1/pdfs. The body is multipart with a "file" part
// and an optional "metadata" JSON part. With ?async=true the response is 202
// and carries the queued job.
func (h *PdfHandler) Load(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	async := false
	if v := r.URL.Query().Get("async"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(ctx, w, "Invalid async parameter")
			return
		}
		async = b
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(ctx, w, http.StatusRequestEntityTooLarge, Envelope{
				Message: fmt.Sprintf("File exceeds the %d byte limit", h.maxUploadBytes),
				Code:    domain.CodeInvalidArgument,
			})
			return
		}
		writeBadRequest(ctx, w, "Invalid multipart body")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	var meta PdfMetadata
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			writeBadRequest(ctx, w, "Invalid metadata")
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(ctx, w, "Missing file part")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeBadRequest(ctx, w, "Failed to read file")
		return
	}

	if meta.OriginPath == "" {
		meta.OriginPath = header.Filename
	}
	req := indexer.LoadRequest{
		Pdf: domain.Pdf{
			Name:       meta.Name,
			System:     meta.System,
			Type:       meta.Type,
			OriginPath: meta.OriginPath,
			Tags:       meta.Tags,
		},
		File:     data,
		Chunking: meta.ChunkingConfig,
	}

	res, err := h.pdfs.Load(ctx, req, async)
	if err != nil {
		writeError(ctx, w, err, "Failed to load PDF")
		return
	}

	payload := LoadResponse{Pdf: res.Pdf, Job: res.Job}
	if async {
		writeOK(ctx, w, http.StatusAccepted, fmt.Sprintf("PDF %s queued for ingestion", res.Pdf.Name), payload)
		return
	}
	payload.Stats = res.Stats
	writeOK(ctx, w, http.StatusCreated, fmt.Sprintf("PDF %s loaded successfully", res.Pdf.Name), payload)
}

// Get handles GET /api/v1/pdfs/{id}.
func (h *PdfHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pdf, err := h.pdfs.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, err, "Failed to get PDF")
		return
	}
	writeOK(ctx, w, http.StatusOK, fmt.Sprintf("PDF '%s' retrieved successfully", pdf.Name), pdf)
}

// Update handles PATCH /api/v1/pdfs/{id}.
func (h *PdfHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PdfPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, "Invalid request body")
		return
	}
	pdf, err := h.pdfs.Update(ctx, chi.URLParam(r, "id"), req.toDomain())
	if err != nil {
		writeError(ctx, w, err, "Failed to update PDF")
		return
	}
	writeOK(ctx, w, http.StatusOK, fmt.Sprintf("PDF '%s' updated successfully", pdf.Name), pdf)
}

// Delete handles DELETE /api/v1/pdfs/{id}.
func (h *PdfHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	n, err := h.pdfs.Delete(ctx, id)
	if err != nil {
		writeError(ctx, w, err, "Failed to delete PDF")
		return
	}
	writeOK(ctx, w, http.StatusOK, fmt.Sprintf("PDF with ID %s deleted successfully", id), DeleteResponse{Deleted: n})
}

// Search handles POST /api/v1/pdfs/search.
func (h *PdfHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body SearchRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeBadRequest(ctx, w, "Invalid request body")
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(ctx, w, err, "Failed to search PDFs")
		return
	}

	resp, err := h.pdfs.Search(ctx, req)
	if err != nil {
		writeError(ctx, w, err, "Failed to search PDFs")
		return
	}
	page := newSearchPage(resp, func(p domain.Pdf) domain.Pdf {
		p.Tags = nonNilTags(p.Tags)
		return p
	})
	writeOK(ctx, w, http.StatusOK, fmt.Sprintf("Found %d PDFs", resp.TotalCount), page)
}

// GetJob handles GET /api/v1/jobs/{id}.
func (h *PdfHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := h.pdfs.GetJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, err, "Failed to get job")
		return
	}
	writeOK(ctx, w, http.StatusOK, fmt.Sprintf("Job is %s", job.State), job)
}

// CancelJob handles POST /api/v1/jobs/{id}/cancel. The job rolls back
// asynchronously; poll GetJob for the FAILED state.
func (h *PdfHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := h.pdfs.CancelJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, err, "Failed to cancel job")
		return
	}
	writeOK(ctx, w, http.StatusAccepted, "Job cancellation requested", job)
}
