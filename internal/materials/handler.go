// internal/materials/handler.go
package materials

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campuslib/internal/blob"
	"campuslib/internal/httpx"
)

const maxFileBytes = 25 << 20

type Handler struct {
	service Service
	blobs   *blob.Client
}

func NewHandler(service Service, blobs *blob.Client) *Handler {
	return &Handler{service: service, blobs: blobs}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Subject     string `json:"subject"`
		Description string `json:"description"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	material, err := h.service.AddMaterial(r.Context(), req.Title, req.Subject, req.Description)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, material)
}

// HandleUploadFile stores the request body in the blob store and attaches
// the resulting URL to the material. The material record survives a failed
// upload untouched.
func (h *Handler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid material ID"})
		return
	}
	if h.blobs == nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"error": "blob store not configured"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxFileBytes))
	if err != nil || len(data) == 0 {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "missing file body"})
		return
	}

	url, err := h.blobs.Upload(r.Context(), "materials/"+id.String(), data, r.Header.Get("Content-Type"))
	if err != nil {
		httpx.JSON(w, http.StatusBadGateway, map[string]string{"error": "file upload failed"})
		return
	}

	material, err := h.service.SetFile(r.Context(), id, url)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, material)
}
