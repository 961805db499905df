// Package dto contiene los tipos de request/response de la API HTTP.
package dto

import (
	"github.com/seumatch/seumatch/internal/identity"
	"github.com/seumatch/seumatch/internal/session"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SocialLoginRequest lleva la credencial obtenida del popup del proveedor
// social en el navegador.
type SocialLoginRequest struct {
	ProviderID  string `json:"providerId"`
	AccessToken string `json:"accessToken,omitempty"`
	IDToken     string `json:"idToken,omitempty"`
}

type ProfileUpdateRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	PhotoURL    *string `json:"photoUrl,omitempty"`
}

// ProviderLink es un sub-perfil por proveedor en la respuesta.
type ProviderLink struct {
	ProviderID  string `json:"providerId"`
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

// SessionResponse es la vista pública del snapshot de sesión.
type SessionResponse struct {
	Loading bool         `json:"loading"`
	Session *SessionView `json:"session"`
}

type SessionView struct {
	UID           string         `json:"uid"`
	Email         string         `json:"email"`
	DisplayName   string         `json:"displayName,omitempty"`
	PhotoURL      string         `json:"photoUrl,omitempty"`
	EmailVerified bool           `json:"emailVerified"`
	ProviderLinks []ProviderLink `json:"providerLinks,omitempty"`
}

// NewSessionResponse arma la respuesta desde un snapshot del manager.
func NewSessionResponse(snap session.Snapshot) SessionResponse {
	return SessionResponse{
		Loading: snap.Loading,
		Session: NewSessionView(snap.Session),
	}
}

func NewSessionView(s *session.Session) *SessionView {
	if s == nil {
		return nil
	}
	v := &SessionView{
		UID:           s.UID,
		Email:         s.Email,
		DisplayName:   s.DisplayName,
		PhotoURL:      s.PhotoURL,
		EmailVerified: s.EmailVerified,
	}
	for _, p := range s.ProviderLinks {
		v.ProviderLinks = append(v.ProviderLinks, NewProviderLink(p))
	}
	return v
}

func NewProviderLink(p identity.ProviderProfile) ProviderLink {
	return ProviderLink{
		ProviderID:  p.ProviderID,
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
	}
}

type TokenResponse struct {
	Token string `json:"token"`
}
