// Package identity define el contrato con el proveedor de identidad externo.
//
// El proveedor es un servicio gestionado opaco: verificación de credenciales,
// emisión/refresh de tokens y entrega de emails viven del otro lado. Este
// paquete solo modela la superficie que el resto de la aplicación consume.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// GoogleProviderID es el identificador del proveedor social soportado.
const GoogleProviderID = "google.com"

// PasswordProviderID identifica el login por email/password.
const PasswordProviderID = "password"

// ProviderProfile es un sub-perfil crudo asociado a la cuenta
// (ej: una identidad social vinculada). El orden de inserción refleja
// el orden en que se vincularon los proveedores.
type ProviderProfile struct {
	ProviderID  string `json:"providerId"`
	UID         string `json:"rawId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

// User es el objeto crudo que entrega el proveedor. Puede venir incompleto
// o inconsistente (en particular tras un login social): el normalizador de
// sesión es quien lo repara.
type User struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	ProviderData  []ProviderProfile

	// LegacyEmail es el campo alterno de email que algunos objetos del
	// proveedor aún traen poblado cuando Email llega vacío.
	LegacyEmail string
}

// Credential es la credencial de acceso que acompaña un login social.
type Credential struct {
	ProviderID  string
	AccessToken string
	IDToken     string
}

// PopupResult es el resultado de un login social tipo popup: el usuario
// crudo más la credencial del proveedor.
type PopupResult struct {
	User       *User
	Credential *Credential
}

// ProfileUpdate contiene los campos actualizables del perfil.
// Punteros nil significan "sin cambio".
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// Observer recibe cada cambio de estado de autenticación: el usuario
// actual o nil cuando no hay sesión.
type Observer func(*User)

// Provider es la superficie del servicio de identidad externo.
// Toda llamada que toca la red acepta un context.
type Provider interface {
	// Register crea una cuenta email/password y deja al usuario logueado.
	Register(ctx context.Context, email, password string) (*User, error)

	// SignInPassword autentica con email/password.
	SignInPassword(ctx context.Context, email, password string) (*User, error)

	// SignInIDP intercambia una credencial social (flujo popup) por una
	// sesión del proveedor.
	SignInIDP(ctx context.Context, cred *Credential) (*PopupResult, error)

	// SignOut cierra la sesión activa. Idempotente.
	SignOut(ctx context.Context) error

	// Observe registra un callback de cambios de estado y lo invoca de
	// inmediato con el estado actual. Retorna una función de cancelación.
	Observe(fn Observer) (cancel func())

	// Token retorna un ID token vigente para la sesión activa.
	Token(ctx context.Context, forceRefresh bool) (string, error)

	// UpdateProfile actualiza displayName/photoURL del usuario activo.
	UpdateProfile(ctx context.Context, up ProfileUpdate) error

	// SendVerificationEmail dispara el email de verificación.
	SendVerificationEmail(ctx context.Context) error

	// Reload re-consulta el usuario vivo en el proveedor.
	Reload(ctx context.Context) (*User, error)

	// CurrentUser retorna el usuario vivo actual, o nil.
	CurrentUser() *User
}

// ---- Errores del proveedor ----

// Códigos conocidos que el session manager traduce a su taxonomía.
const (
	CodePopupBlocked       = "auth/popup-blocked"
	CodePopupClosedByUser  = "auth/popup-closed-by-user"
	CodeCancelledPopup     = "auth/cancelled-popup-request"
	CodeNoCurrentUser      = "auth/no-current-user"
	CodeInvalidCredentials = "auth/invalid-credentials"
	CodeEmailInUse         = "auth/email-already-in-use"
	CodeUserDisabled       = "auth/user-disabled"
)

// Error es un error del proveedor con código estable.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extrae el código de proveedor de un error, o "".
func CodeOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
