package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// QueryTimeout bounds a single entity-store operation. It is deliberately
// shorter than the request timeout so a hanging mongo call surfaces as a
// store error, not a dropped request.
const QueryTimeout = 10 * time.Second

// WithQueryTimeout derives a store-operation context from the request context
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// TimeoutMiddleware caps how long a request may run. Websocket upgrades are
// exempt since those connections are long lived on purpose.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			done := make(chan struct{})
			go func() {
				next.ServeHTTP(w, r)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					zap.S().Warnw("request timed out",
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout,
					)
					w.WriteHeader(http.StatusRequestTimeout)
					w.Write([]byte(`{"response": "request timed out"}`))
				}
			}
		})
	}
}
