package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/seumatch/seumatch/internal/http/dto"
	"github.com/seumatch/seumatch/internal/http/helpers"
	"github.com/seumatch/seumatch/internal/mail"
	"github.com/seumatch/seumatch/internal/observability/logger"
)

// ContactHandler recibe los envíos del formulario de contacto del landing.
type ContactHandler struct {
	Mailer *mail.ContactMailer
}

// Submit maneja POST /v1/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Message) == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("name and message are required"))
		return
	}
	if h.Mailer == nil {
		helpers.WriteError(w, helpers.ErrNotFound.WithDetail("contact form disabled"))
		return
	}
	if err := h.Mailer.Send(mail.ContactMessage{Name: req.Name, Email: req.Email, Message: req.Message}); err != nil {
		logger.From(r.Context()).Error("contact mail failed", logger.Err(err))
		helpers.WriteError(w, helpers.ErrInternalServerError)
		return
	}
	helpers.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
