package session

import (
	"errors"

	"github.com/seumatch/seumatch/internal/identity"
)

// Taxonomía de errores del session manager. Los cuatro errores de
// "resolución" (dominio, email, popup) se traducen aquí y siempre dejan el
// sistema en Unauthenticated; el resto de errores del proveedor pasa sin
// tocar al caller.
var (
	// ErrPopupBlocked: el navegador bloqueó la ventana de login social.
	ErrPopupBlocked = errors.New("sign-in window was blocked by the browser")

	// ErrPopupClosedByUser: el usuario cerró el popup antes de completar.
	ErrPopupClosedByUser = errors.New("sign-in window was closed before completing")

	// ErrConcurrentPopupRequest: ya hay un popup de login en curso.
	ErrConcurrentPopupRequest = errors.New("another sign-in attempt is already in progress")

	// ErrUnauthorizedDomain: el email resuelto no pertenece al dominio
	// institucional. Termina el intento de login con sign-out forzado.
	ErrUnauthorizedDomain = errors.New("only university email accounts are allowed")

	// ErrNoEmailResolved: ninguna estrategia produjo un email usable.
	// Termina el intento de login con sign-out forzado.
	ErrNoEmailResolved = errors.New("could not determine an email for this account")

	// ErrTokenUnavailable: la capability de token no encontró sesión viva.
	ErrTokenUnavailable = errors.New("no live session to issue a token")

	// ErrNoActiveSession: operación de perfil sin usuario vivo.
	ErrNoActiveSession = errors.New("no active session")
)

// mapProviderError traduce códigos conocidos del proveedor a la taxonomía.
// Errores no mapeados se devuelven sin cambios.
func mapProviderError(err error) error {
	switch identity.CodeOf(err) {
	case identity.CodePopupBlocked:
		return ErrPopupBlocked
	case identity.CodePopupClosedByUser:
		return ErrPopupClosedByUser
	case identity.CodeCancelledPopup:
		return ErrConcurrentPopupRequest
	case identity.CodeNoCurrentUser:
		return ErrNoActiveSession
	}
	return err
}

// errSuperseded señala que un intento de resolución fue invalidado por uno
// más nuevo. Nunca se publica ni llega al caller: el intento se abandona
// sin efectos.
var errSuperseded = errors.New("resolution attempt superseded")
