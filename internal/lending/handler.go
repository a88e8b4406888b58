package lending

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campuslib/internal/httpx"
	"campuslib/internal/identity"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID uuid.UUID `json:"book_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	principal := identity.FromContext(r.Context())
	borrowing, err := h.service.BorrowDirect(r.Context(), req.BookID, principal.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, borrowing)
}

func (h *Handler) HandleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID uuid.UUID `json:"book_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	principal := identity.FromContext(r.Context())
	request, err := h.service.SubmitRequest(r.Context(), req.BookID, principal.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, request)
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request ID"})
		return
	}

	borrowing, err := h.service.ApproveRequest(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, borrowing)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request ID"})
		return
	}

	request, err := h.service.RejectRequest(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid borrowing ID"})
		return
	}

	borrowing, err := h.service.ReturnBook(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, borrowing)
}

func (h *Handler) HandleMyBorrowings(w http.ResponseWriter, r *http.Request) {
	principal := identity.FromContext(r.Context())
	borrowings, err := h.service.OpenBorrowings(r.Context(), principal.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, borrowings)
}

func (h *Handler) HandlePendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.PendingRequests(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, requests)
}

func (h *Handler) HandleOverdue(w http.ResponseWriter, r *http.Request) {
	overdue, err := h.service.Overdue(r.Context(), time.Now())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overdue)
}
