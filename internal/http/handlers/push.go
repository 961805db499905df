package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/seumatch/seumatch/internal/http/dto"
	"github.com/seumatch/seumatch/internal/http/helpers"
	"github.com/seumatch/seumatch/internal/push"
)

// PushHandler expone el registro de notificaciones push. Independiente de
// la máquina de estados de autenticación.
type PushHandler struct {
	Registrar push.Registrar

	// Deliverer recibe mensajes entrantes del webhook. Opcional.
	Deliverer interface{ Deliver(*push.Message) }
}

// Status maneja GET /v1/push/status.
func (h *PushHandler) Status(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.PushStatusResponse{
		Supported:  h.Registrar.IsSupported(),
		Permission: string(h.Registrar.CurrentPermission()),
	})
}

// Register maneja POST /v1/push/register: pide permiso y registra.
func (h *PushHandler) Register(w http.ResponseWriter, r *http.Request) {
	tok, err := h.Registrar.RequestPermission(r.Context())
	if err != nil {
		if err == push.ErrUnsupported {
			helpers.WriteJSON(w, http.StatusOK, dto.PushRegisterResponse{
				Permission: string(push.PermissionUnsupported),
			})
			return
		}
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.PushRegisterResponse{
		Permission: string(h.Registrar.CurrentPermission()),
		Token:      tok,
	})
}

// Next maneja GET /v1/push/next: espera (acotado) el próximo mensaje en
// primer plano. One-shot long-poll.
func (h *PushHandler) Next(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 25*time.Second)
	defer cancel()
	m, err := h.Registrar.OnForegroundMessage(ctx)
	if err != nil {
		if err == push.ErrUnsupported {
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("push not supported"))
			return
		}
		// timeout del long-poll: sin mensaje
		helpers.WriteJSON(w, http.StatusNoContent, nil)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, m)
}

// Incoming maneja POST /v1/push/incoming: webhook del servicio de
// mensajería hacia el buzón de primer plano.
func (h *PushHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	if h.Deliverer == nil {
		helpers.WriteError(w, helpers.ErrNotFound)
		return
	}
	var m push.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}
	h.Deliverer.Deliver(&m)
	helpers.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
