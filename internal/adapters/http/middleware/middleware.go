// Package middleware holds the HTTP middleware shared by the site and API
// handlers.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dingerzone/pkg/logger"
	"github.com/okian/dingerzone/pkg/metrics"
)

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusGone            = 410
	statusTooManyRequests = 429
	statusInternalError   = 500

	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLength = 128
)

// Metrics wraps HTTP handlers to record Prometheus metrics under endpoint.
func Metrics(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		statusCode := wrapped.Status()
		statusCodeStr := strconv.Itoa(statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr, durationMs)

		if statusCode >= statusBadRequest {
			metrics.RecordError(endpoint, r.Method, ErrorType(statusCode), ErrorSeverity(statusCode))
		}
	}
}

// RequestID reuses a sane incoming X-Request-ID or generates one, echoes it on
// the response and stores it in the request context for logging.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > maxRequestIDLength || strings.ContainsAny(id, "\r\n") {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// Logging writes one access log entry per request.
func Logging(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)

			status := wrapped.Status()
			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", status),
				logger.Int("bytes", wrapped.bytes),
				logger.Int("duration_ms", int(time.Since(start).Milliseconds())),
			}
			if status >= statusInternalError {
				log.Warn(r.Context(), "http request", fields...)
				return
			}
			log.Info(r.Context(), "http request", fields...)
		})
	}
}

// Recover turns a handler panic into a 500 response. When onPanic is nil a
// plain-text body is written.
func Recover(log logger.Logger, onPanic http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrap(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				metrics.RecordHTTPPanic()
				log.Error(r.Context(), "handler panic",
					logger.String("path", r.URL.Path),
					logger.String("panic", fmt.Sprint(rec)),
					logger.String("stack", string(debug.Stack())),
				)
				if wrapped.wroteHeader {
					return
				}
				if onPanic != nil {
					onPanic(wrapped, r)
					return
				}
				http.Error(wrapped, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(wrapped, r)
		})
	}
}

// Chain applies middleware so that the first one listed runs outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ErrorType returns a standardized error type based on HTTP status code.
func ErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode == statusGone:
		return "expired"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// ErrorSeverity returns error severity based on HTTP status code.
func ErrorSeverity(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "high"
	case statusCode >= statusBadRequest:
		return "medium"
	default:
		return "low"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	bytes       int
}

func wrap(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// Status returns the status code written so far.
func (rw *responseWriter) Status() int { return rw.statusCode }

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
