package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Requests    *prometheus.CounterVec
	BadRequests *prometheus.CounterVec
}

func InitMetrics() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yamdb_requests_total",
				Help: "Total number of HTTP requests by method and status code",
			},
			[]string{"method", "code"},
		),
		BadRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yamdb_bad_requests_total",
				Help: "Total number of 4xx HTTP requests by method",
			},
			[]string{"method"},
		),
	}
	prometheus.MustRegister(m.Requests)
	prometheus.MustRegister(m.BadRequests)
	return m
}

// Middleware counts every request by method and response code.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		code := ww.Status()
		m.Requests.WithLabelValues(r.Method, strconv.Itoa(code)).Inc()
		if code >= 400 && code < 500 {
			m.BadRequests.WithLabelValues(r.Method).Inc()
		}
	})
}
