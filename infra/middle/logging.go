// Package middle provides HTTP middleware for the reference backend.
package middle

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paybridge/paybridge/infra/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// isPaymentEndpoint reports whether the path carries payment traffic worth a
// structured log entry.
func isPaymentEndpoint(path string) bool {
	for _, prefix := range []string{"/api/payments", "/api/braintree", "/api/integration", "/dev/braintree"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// gatewayFromPath derives a gateway label from the URL for log context.
func gatewayFromPath(path string) string {
	switch {
	case strings.Contains(path, "stripe"):
		return "Stripe"
	case strings.Contains(path, "braintree"):
		return "Braintree"
	default:
		return ""
	}
}

// RequestLogging logs payment requests with status, duration and redacted
// request fields. Card numbers and tokens never reach the log sink whole.
func RequestLogging(sl *logger.SystemLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isPaymentEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
				r.Header.Set("X-Request-ID", requestID)
			}

			var requestFields map[string]any
			if r.Body != nil {
				body, _ := io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(body))
				if len(body) > 0 {
					_ = json.Unmarshal(body, &requestFields)
				}
			}

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rw, r)

			fields := map[string]any{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rw.statusCode,
				"duration": time.Since(start).String(),
			}
			if requestFields != nil {
				fields["request"] = requestFields
			}

			ctx := logger.LogContext{
				Gateway:   gatewayFromPath(r.URL.Path),
				RequestID: requestID,
				Fields:    fields,
			}
			if rw.statusCode >= 400 {
				sl.Warn("payment request failed", ctx)
				return
			}
			sl.Info("payment request", ctx)
		})
	}
}
