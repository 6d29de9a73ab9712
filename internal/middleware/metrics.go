package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"retailcast/internal/infrastructure"
)

// BusinessMetricsMiddleware counts requests by method and status class
func BusinessMetricsMiddleware(metrics *infrastructure.BusinessMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			metrics.RequestsTotal.Add(r.Context(), 1, metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.Int("status", ww.Status()),
			))
		})
	}
}
