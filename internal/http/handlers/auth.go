package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/seumatch/seumatch/internal/http/dto"
	"github.com/seumatch/seumatch/internal/http/helpers"
	"github.com/seumatch/seumatch/internal/identity"
	"github.com/seumatch/seumatch/internal/observability/logger"
	"github.com/seumatch/seumatch/internal/session"
)

// AuthHandler expone el session manager por HTTP.
type AuthHandler struct {
	Manager *session.Manager
}

// Register maneja POST /v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("email and password are required"))
		return
	}
	u, err := h.Manager.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		helpers.WriteError(w, helpers.FromSessionError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, map[string]string{"uid": u.UID, "email": u.Email})
}

// Login maneja POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}
	u, err := h.Manager.SignInPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		helpers.WriteError(w, helpers.FromSessionError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"uid": u.UID, "email": u.Email})
}

// SocialLogin maneja POST /v1/auth/social: el flujo popup. Retorna la
// sesión armada desde el resultado del popup, sin esperar el stream.
func (h *AuthHandler) SocialLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.SocialLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}
	providerID := req.ProviderID
	if providerID == "" {
		providerID = identity.GoogleProviderID
	}
	sess, err := h.Manager.SignInSocialPopup(r.Context(), &identity.Credential{
		ProviderID:  providerID,
		AccessToken: req.AccessToken,
		IDToken:     req.IDToken,
	})
	if err != nil {
		logger.From(r.Context()).Warn("social login rejected", logger.Err(err))
		helpers.WriteError(w, helpers.FromSessionError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewSessionView(sess))
}

// Logout maneja POST /v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.SignOut(r.Context()); err != nil {
		helpers.WriteError(w, helpers.FromSessionError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Session maneja GET /v1/auth/session: el snapshot vigente.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.NewSessionResponse(h.Manager.Snapshot()))
}

// Token maneja GET /v1/auth/token[?force=true].
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	snap := h.Manager.Snapshot()
	if snap.Session == nil {
		helpers.WriteError(w, helpers.FromSessionError(session.ErrNoActiveSession))
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	tok, err := snap.Session.Token(r.Context(), force)
	if err != nil {
		helpers.WriteError(w, helpers.FromSessionError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{Token: tok})
}

// UpdateProfile maneja PUT /v1/auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}
	err := h.Manager.UpdateProfile(r.Context(), identity.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		helpers.WriteError(w, helpers.FromSessionError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// VerifyEmail maneja POST /v1/auth/verify-email.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.RequestEmailVerification(r.Context()); err != nil {
		helpers.WriteError(w, helpers.FromSessionError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "verification_sent"})
}

// Reload maneja POST /v1/auth/reload: levanta cambios out-of-band del
// perfil (verificación, foto) y re-publica.
func (h *AuthHandler) Reload(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Manager.Reload(r.Context())
	if err != nil {
		helpers.WriteError(w, helpers.FromSessionError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewSessionView(sess))
}
