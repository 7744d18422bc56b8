package bridge

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"dailies/internal/logging"
	"dailies/internal/services"
)

// RequestIDHeader carries the correlation identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// AuthMiddleware validates bearer tokens. An empty token disables authentication.
func AuthMiddleware(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "missing bearer token", CodeUnauthorized)
				return
			}
			if strings.TrimPrefix(auth, "Bearer ") != token {
				logging.WarnWithContext(logging.WithContext(r.Context(), logger), "rejected bridge request", "bridge_auth_failed",
					logging.String("path", r.URL.Path),
					logging.String(logging.FieldErrorHint, "check host.api_token on both sides"),
				)
				WriteError(w, http.StatusUnauthorized, "invalid token", CodeUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs one line per request at debug level.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logging.WithContext(r.Context(), logger).Debug("bridge request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", wrapped.status),
				logging.Duration("duration", time.Since(start)),
			)
		})
	}
}

// RecoveryMiddleware converts handler panics into 500 responses.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logging.ErrorWithContext(logging.WithContext(r.Context(), logger), "bridge handler panicked", "bridge_panic",
						logging.Any("panic", rec),
					)
					WriteError(w, http.StatusInternalServerError, "internal server error", CodeInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDMiddleware propagates the caller's request ID or assigns a new one.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()[:8]
			}
			w.Header().Set(RequestIDHeader, requestID)
			ctx := services.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// WriteError writes an ErrorResponse with the given status.
func WriteError(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// WriteJSON encodes data as the response body.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
