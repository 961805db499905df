// Package push define el contrato de registro de notificaciones push.
// Se consume de forma independiente del session manager: no participa de
// la máquina de estados de autenticación.
package push

import (
	"context"
	"errors"
)

// Permission es el estado del permiso de notificaciones.
type Permission string

const (
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionDefault     Permission = "default"
	PermissionUnsupported Permission = "unsupported"
)

// Message es un payload recibido en primer plano.
type Message struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Registrar es la superficie del servicio de mensajería externo.
type Registrar interface {
	// IsSupported indica si push está disponible en esta instalación.
	IsSupported() bool

	// CurrentPermission retorna el estado de permiso vigente.
	CurrentPermission() Permission

	// RequestPermission solicita permiso y registra el dispositivo.
	// Retorna el token de registro, o "" sin error cuando el permiso fue
	// denegado.
	RequestPermission(ctx context.Context) (string, error)

	// OnForegroundMessage espera el próximo mensaje en primer plano.
	// One-shot: cada llamada consume a lo sumo un mensaje.
	OnForegroundMessage(ctx context.Context) (*Message, error)
}

// ErrUnsupported: push no disponible (deshabilitado por config).
var ErrUnsupported = errors.New("push: not supported")
