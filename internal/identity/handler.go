// internal/identity/handler.go
package identity

import (
	"errors"
	"net/http"

	"campuslib/internal/httpx"
	"campuslib/internal/store"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		FullName   string `json:"full_name"`
		CollegeID  string `json:"college_id"`
		Department string `json:"department"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	profile, err := h.service.Register(r.Context(), req.Email, req.Password, req.FullName, req.CollegeID, req.Department)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, profile)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	profile, token, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, store.ErrRateLimited) {
		httpx.Error(w, err)
		return
	}
	if err != nil {
		// Deliberately uniform: no hint whether the email exists.
		httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"profile": profile,
	})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal := FromContext(r.Context())
	profile, err := h.service.GetProfile(r.Context(), principal.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}
