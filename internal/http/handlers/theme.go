package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/seumatch/seumatch/internal/http/dto"
	"github.com/seumatch/seumatch/internal/http/helpers"
	"github.com/seumatch/seumatch/internal/theme"
)

// ThemeHandler persiste y sirve el tema de UI activo.
type ThemeHandler struct {
	Store      *theme.Store
	CookieName string
	Secure     bool
}

// Get maneja GET /v1/theme.
func (h *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.ThemeResponse{Theme: string(h.Store.Current(r.Context()))})
}

// Set maneja PUT /v1/theme.
func (h *ThemeHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req dto.ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}
	t, err := h.Store.Set(r.Context(), theme.Theme(req.Theme))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	http.SetCookie(w, theme.Cookie(h.CookieName, t, h.Secure))
	helpers.WriteJSON(w, http.StatusOK, dto.ThemeResponse{Theme: string(t)})
}

// Toggle maneja POST /v1/theme/toggle.
func (h *ThemeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.Toggle(r.Context())
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	http.SetCookie(w, theme.Cookie(h.CookieName, t, h.Secure))
	helpers.WriteJSON(w, http.StatusOK, dto.ThemeResponse{Theme: string(t)})
}
