// Package handlers contiene los handlers HTTP de la aplicación.
package handlers

import (
	"context"
	"net/http"
	"time"
)

// contextWithTimeout acota el contexto del request a d.
func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}
