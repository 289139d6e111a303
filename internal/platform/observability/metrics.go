package observability

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/matjar-app/api"

// MetricsMiddleware records request count and latency per route. The
// measurements go through the global meter provider, so without one
// installed they are no-ops.
func MetricsMiddleware() func(http.Handler) http.Handler {
	meter := otel.Meter(meterName)

	requests, _ := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Completed HTTP requests."),
	)
	latency, _ := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration."),
		metric.WithUnit("ms"),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := newResponseRecorder(w)
			next.ServeHTTP(recorder, r)

			attrs := metric.WithAttributes(
				attribute.String("http.route", routePattern(r)),
				attribute.String("http.method", r.Method),
				attribute.String("http.status", strconv.Itoa(recorder.Status())),
			)
			requests.Add(r.Context(), 1, attrs)
			latency.Record(r.Context(), float64(time.Since(start).Microseconds())/1000, attrs)
		})
	}
}
