package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/seumatch/seumatch/internal/session"
)

// Standard Error Responses

var (
	ErrInvalidJSON         = &HTTPError{Code: "invalid_json", Message: "Invalid JSON format", Status: http.StatusBadRequest}
	ErrBadRequest          = &HTTPError{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrUnauthorized        = &HTTPError{Code: "unauthorized", Message: "Unauthorized", Status: http.StatusUnauthorized}
	ErrNotFound            = &HTTPError{Code: "not_found", Message: "Not found", Status: http.StatusNotFound}
	ErrInternalServerError = &HTTPError{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}
)

// HTTPError representa un error estándar de la API.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail retorna una copia del error con detalle.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	return &HTTPError{Code: e.Code, Message: e.Message, Detail: detail, Status: e.Status}
}

// FromSessionError traduce la taxonomía del session manager a errores HTTP.
// Los errores de resolución ya traen mensaje apto para el usuario.
func FromSessionError(err error) *HTTPError {
	switch {
	case errors.Is(err, session.ErrUnauthorizedDomain):
		return &HTTPError{Code: "unauthorized_domain", Message: err.Error(), Status: http.StatusForbidden}
	case errors.Is(err, session.ErrNoEmailResolved):
		return &HTTPError{Code: "no_email_resolved", Message: err.Error(), Status: http.StatusUnprocessableEntity}
	case errors.Is(err, session.ErrPopupBlocked):
		return &HTTPError{Code: "popup_blocked", Message: err.Error(), Status: http.StatusConflict}
	case errors.Is(err, session.ErrPopupClosedByUser):
		return &HTTPError{Code: "popup_closed", Message: err.Error(), Status: http.StatusConflict}
	case errors.Is(err, session.ErrConcurrentPopupRequest):
		return &HTTPError{Code: "concurrent_popup", Message: err.Error(), Status: http.StatusConflict}
	case errors.Is(err, session.ErrNoActiveSession):
		return &HTTPError{Code: "no_active_session", Message: err.Error(), Status: http.StatusUnauthorized}
	case errors.Is(err, session.ErrTokenUnavailable):
		return &HTTPError{Code: "token_unavailable", Message: err.Error(), Status: http.StatusUnauthorized}
	}
	return ErrUnauthorized.WithDetail(err.Error())
}

// WriteError escribe el error en la respuesta.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = ErrInternalServerError.WithDetail(err.Error())
	}
	WriteJSON(w, httpErr.Status, map[string]any{"error": httpErr})
}

// WriteJSON serializa v con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
