package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Session/auth Prometheus metrics. Viven en un paquete standalone para
// evitar ciclos de import entre session y los paquetes HTTP.

var (
	SessionResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_resolutions_total",
		Help: "Intentos de resolución de sesión por resultado",
	}, []string{"outcome"}) // published | no_email | unauthorized_domain

	ResolutionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "session_resolution_duration_seconds",
		Help:    "Duración del pipeline de resolución de sesión",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	SignIns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sign_ins_total",
		Help: "Operaciones de sign-in por proveedor y resultado",
	}, []string{"provider", "outcome"})

	PushRegistrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_registrations_total",
		Help: "Registros de push por resultado de permiso",
	}, []string{"permission"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Requests HTTP por ruta y status",
	}, []string{"path", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duración de requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
)

// Register registra todas las métricas en el registry dado (o el default
// si es nil). Tolera doble registro.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		SessionResolutions,
		ResolutionDuration,
		SignIns,
		PushRegistrations,
		HTTPRequests,
		HTTPDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
