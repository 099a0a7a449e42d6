package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// slowRequestThreshold marks requests worth a warning log
const slowRequestThreshold = 1 * time.Second

// MetricsMiddleware times every request and feeds the route stats collector.
// The health and metrics endpoints themselves are left out so they do not
// drown the numbers.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/api/v1/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		elapsed := time.Since(start)
		stats.record(r.Method, path, recorder.status, elapsed)

		if elapsed > slowRequestThreshold {
			zap.S().Warnw("slow request",
				"method", r.Method,
				"path", path,
				"status", recorder.status,
				"duration", elapsed,
			)
		}
	})
}

// statusRecorder captures the status code written by the handler. It keeps
// http.Hijacker so the websocket upgrade still works behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}
