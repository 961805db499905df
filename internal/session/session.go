// Package session implementa el ciclo de vida de la sesión de autenticación:
// normalización del usuario crudo del proveedor, política de dominio
// institucional y publicación de un único valor de sesión consistente.
package session

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/seumatch/seumatch/internal/identity"
)

// State es el estado de la máquina del manager.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// TokenFunc resuelve un token vigente contra la sesión viva del proveedor.
type TokenFunc func(ctx context.Context, forceRefresh bool) (string, error)

// Session es el registro canónico publicado. Inmutable una vez entregado a
// los suscriptores: cada actualización publica un valor nuevo.
type Session struct {
	// UID es el identificador estable de la cuenta. No se reasigna: un
	// nuevo ciclo de login produce un Session nuevo.
	UID string

	// Email validado contra la política de dominio antes de publicarse.
	Email string

	DisplayName string
	PhotoURL    string

	// EmailVerified es autoritativo solo después de un Reload.
	EmailVerified bool

	// ProviderLinks son los sub-perfiles crudos por proveedor, en orden de
	// vinculación. Se conservan para reconciliación diagnóstica.
	ProviderLinks []identity.ProviderProfile

	tokenFn TokenFunc
	sf      *singleflight.Group
}

// Token retorna un token vigente para esta sesión. Siempre es invocable,
// sin importar cómo se construyó la sesión: la capability re-resuelve la
// sesión viva actual del proveedor, no el objeto crudo capturado. Llamadas
// concurrentes con el mismo forceRefresh se deduplican.
func (s *Session) Token(ctx context.Context, forceRefresh bool) (string, error) {
	if s == nil || s.tokenFn == nil {
		return "", ErrTokenUnavailable
	}
	key := "token:" + strconv.FormatBool(forceRefresh)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.tokenFn(ctx, forceRefresh)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Snapshot es el estado observable del manager.
// Loading queda en true desde el arranque hasta que el primer evento de
// autenticación (positivo o negativo) terminó de resolverse.
type Snapshot struct {
	Session *Session
	Loading bool
}
