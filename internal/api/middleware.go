// ABOUTME: Request context and admin key middleware
// ABOUTME: Every response carries x-request-id and x-process-time-ms
package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	headerRequestID   = "X-Request-Id"
	headerProcessTime = "X-Process-Time-Ms"
	headerAdminKey    = "X-Admin-Key"
)

// RequestContext propagates or assigns a request id, stamps the processing time on the
// response and logs one line per request.
func RequestContext(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if id == "" {
				id = uuid.New().String()
			}
			ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
			w.Header().Set(headerRequestID, id)

			tw := &timedWriter{ResponseWriter: w, start: time.Now(), status: http.StatusOK}
			next.ServeHTTP(tw, r.WithContext(ctx))

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", tw.status,
				"duration_ms", time.Since(tw.start).Milliseconds(),
				"request_id", id)
		})
	}
}

// timedWriter sets the processing time header just before the status line goes out
type timedWriter struct {
	http.ResponseWriter
	start       time.Time
	status      int
	wroteHeader bool
}

func (w *timedWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	elapsed := float64(time.Since(w.start).Microseconds()) / 1000
	w.Header().Set(headerProcessTime, fmt.Sprintf("%.2f", elapsed))
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// AdminKey rejects requests whose X-Admin-Key does not match. An empty key locks the routes.
func AdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(headerAdminKey)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				Error(w, http.StatusUnauthorized, "invalid admin API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
