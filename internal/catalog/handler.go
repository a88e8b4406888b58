// internal/catalog/handler.go
package catalog

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campuslib/internal/blob"
	"campuslib/internal/httpx"
)

// maxCoverBytes caps cover uploads at 5 MiB.
const maxCoverBytes = 5 << 20

type Handler struct {
	service Service
	blobs   *blob.Client
}

// NewHandler creates a catalog handler. blobs may be nil, in which case
// cover uploads report the store as unavailable.
func NewHandler(service Service, blobs *blob.Client) *Handler {
	return &Handler{service: service, blobs: blobs}
}

func (h *Handler) HandleAddBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Author      string `json:"author"`
		Category    string `json:"category"`
		ISBN        string `json:"isbn"`
		Description string `json:"description"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	book, err := h.service.AddBook(r.Context(), req.Title, req.Author, req.Category, req.ISBN, req.Description)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, book)
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid book ID"})
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleRemoveBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid book ID"})
		return
	}

	if err := h.service.RemoveBook(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadCover streams the request body to the blob store and records
// the resulting URL. The book itself is untouched when the upload fails.
func (h *Handler) HandleUploadCover(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid book ID"})
		return
	}
	if h.blobs == nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"error": "blob store not configured"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxCoverBytes))
	if err != nil || len(data) == 0 {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "missing image body"})
		return
	}

	url, err := h.blobs.Upload(r.Context(), "covers/"+id.String(), data, r.Header.Get("Content-Type"))
	if err != nil {
		httpx.JSON(w, http.StatusBadGateway, map[string]string{"error": "cover upload failed"})
		return
	}

	book, err := h.service.SetCover(r.Context(), id, url)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAvailable(r.Context(), r.URL.Query().Get("q"), r.URL.Query().Get("category"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

func (h *Handler) HandleGrouped(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.Grouped(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, groups)
}

func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	books, err := h.service.Latest(r.Context(), n)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

func (h *Handler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "missing search query"})
		return
	}

	books, err := h.service.Suggest(r.Context(), query)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}
