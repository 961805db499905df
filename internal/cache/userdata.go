package cache

import (
	"context"
	"strings"
	"time"
)

// UserData es el store de datos locales por usuario (perfil cacheado,
// preferencias, borradores). Las keys se agrupan por email para que el
// logout pueda limpiar exactamente lo de ese usuario.
//
// Implementa el colaborador de limpieza que el session manager invoca en
// SignOut: ClearUserData(email) / ClearAll().
type UserData struct {
	client Client
}

const userDataPrefix = "userdata"

func NewUserData(c Client) *UserData {
	return &UserData{client: c}
}

func userKey(email, field string) string {
	return userDataPrefix + ":" + strings.ToLower(email) + ":" + field
}

// Get obtiene un campo cacheado del usuario. ErrNotFound si no existe.
func (u *UserData) Get(ctx context.Context, email, field string) (string, error) {
	return u.client.Get(ctx, userKey(email, field))
}

// Set guarda un campo cacheado del usuario.
func (u *UserData) Set(ctx context.Context, email, field, value string, ttl time.Duration) error {
	return u.client.Set(ctx, userKey(email, field), value, ttl)
}

// ClearUserData borra todo lo cacheado para un email.
func (u *UserData) ClearUserData(ctx context.Context, email string) error {
	_, err := u.client.DeletePrefix(ctx, userDataPrefix+":"+strings.ToLower(email)+":")
	return err
}

// ClearAll borra los datos cacheados de todos los usuarios.
func (u *UserData) ClearAll(ctx context.Context) error {
	_, err := u.client.DeletePrefix(ctx, userDataPrefix+":")
	return err
}
