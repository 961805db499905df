package session

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/seumatch/seumatch/internal/identity"
)

// Normalizer repara el objeto de usuario crudo del proveedor y produce la
// sesión canónica. Transformación pura: sin efectos, seguro de llamar
// repetidamente. La capability de token que adjunta cierra sobre el
// proveedor, nunca sobre el objeto crudo (que puede venir sin método o
// quedar obsoleto).
type Normalizer struct {
	provider identity.Provider
}

func NewNormalizer(p identity.Provider) *Normalizer {
	return &Normalizer{provider: p}
}

// emailStrategy es una vía de resolución de email. Se evalúan en orden con
// short-circuit: la primera que produce un valor no vacío gana.
type emailStrategy struct {
	name string
	fn   func(*identity.User) string
}

var emailStrategies = []emailStrategy{
	{"direct", func(u *identity.User) string {
		return u.Email
	}},
	{"google_link", func(u *identity.User) string {
		for _, p := range u.ProviderData {
			if p.ProviderID == identity.GoogleProviderID && p.Email != "" {
				return p.Email
			}
		}
		return ""
	}},
	{"first_link", func(u *identity.User) string {
		if len(u.ProviderData) > 0 {
			return u.ProviderData[0].Email
		}
		return ""
	}},
	{"legacy", func(u *identity.User) string {
		return u.LegacyEmail
	}},
}

// ResolveEmail aplica las estrategias en orden y retorna el email y la vía
// que lo produjo. ok=false escala a la estrategia de espera acotada del
// manager.
func (n *Normalizer) ResolveEmail(raw *identity.User) (email, via string, ok bool) {
	if raw == nil {
		return "", "", false
	}
	for _, s := range emailStrategies {
		if v := strings.TrimSpace(s.fn(raw)); v != "" {
			return v, s.name, true
		}
	}
	return "", "", false
}

// Normalize construye la sesión canónica a partir del usuario crudo.
// email es el valor ya resuelto (puede diferir del campo directo del crudo).
func (n *Normalizer) Normalize(raw *identity.User, email string) *Session {
	s := &Session{
		UID:           raw.UID,
		Email:         email,
		DisplayName:   raw.DisplayName,
		PhotoURL:      raw.PhotoURL,
		EmailVerified: raw.EmailVerified,
		sf:            &singleflight.Group{},
	}

	// Display metadata: si el campo directo falta, el primer sub-perfil
	// con valor lo completa.
	for _, p := range raw.ProviderData {
		if s.DisplayName == "" && p.DisplayName != "" {
			s.DisplayName = p.DisplayName
		}
		if s.PhotoURL == "" && p.PhotoURL != "" {
			s.PhotoURL = p.PhotoURL
		}
	}

	// Copia defensiva: el valor publicado es inmutable.
	if len(raw.ProviderData) > 0 {
		s.ProviderLinks = make([]identity.ProviderProfile, len(raw.ProviderData))
		copy(s.ProviderLinks, raw.ProviderData)
	}

	provider := n.provider
	s.tokenFn = func(ctx context.Context, forceRefresh bool) (string, error) {
		if provider == nil || provider.CurrentUser() == nil {
			return "", ErrTokenUnavailable
		}
		tok, err := provider.Token(ctx, forceRefresh)
		if err != nil {
			if identity.CodeOf(err) == identity.CodeNoCurrentUser {
				return "", ErrTokenUnavailable
			}
			return "", err
		}
		return tok, nil
	}
	return s
}
