package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/seumatch/seumatch/internal/metrics"
)

// WithMetrics alimenta los contadores/histogramas HTTP de Prometheus.
// Las rutas de esta API son estáticas, así que el path no explota la
// cardinalidad.
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			path := r.URL.Path
			metrics.HTTPRequests.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
