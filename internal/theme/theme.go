// Package theme persiste el tema de UI activo. Un solo valor (light|dark),
// independiente de la sesión.
package theme

import (
	"context"
	"net/http"
	"time"

	"github.com/seumatch/seumatch/internal/cache"
)

// Theme es el nombre del tema activo.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

const storageKey = "theme"

// Valid indica si el valor es un tema conocido.
func Valid(t Theme) bool {
	return t == Light || t == Dark
}

// Store persiste la preferencia de tema en el cache local.
type Store struct {
	client  cache.Client
	fallbck Theme
}

func NewStore(c cache.Client, fallback Theme) *Store {
	if !Valid(fallback) {
		fallback = Light
	}
	return &Store{client: c, fallbck: fallback}
}

// Current retorna el tema persistido, o el fallback si no hay valor o el
// valor guardado es inválido.
func (s *Store) Current(ctx context.Context) Theme {
	v, err := s.client.Get(ctx, storageKey)
	if err != nil || !Valid(Theme(v)) {
		return s.fallbck
	}
	return Theme(v)
}

// Set persiste el tema. Valores inválidos caen al fallback.
func (s *Store) Set(ctx context.Context, t Theme) (Theme, error) {
	if !Valid(t) {
		t = s.fallbck
	}
	return t, s.client.Set(ctx, storageKey, string(t), 0)
}

// Toggle alterna light↔dark y persiste.
func (s *Store) Toggle(ctx context.Context) (Theme, error) {
	next := Light
	if s.Current(ctx) == Light {
		next = Dark
	}
	return s.Set(ctx, next)
}

// Cookie arma la cookie de tema para el round-trip con el navegador.
func Cookie(name string, t Theme, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    string(t),
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour).UTC(),
	}
}

// FromCookie lee el tema de la cookie del request, validado.
func FromCookie(r *http.Request, name string, fallback Theme) Theme {
	ck, err := r.Cookie(name)
	if err != nil || !Valid(Theme(ck.Value)) {
		if !Valid(fallback) {
			return Light
		}
		return fallback
	}
	return Theme(ck.Value)
}
