package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestIDHeader is the header name for the request ID in responses.
const RequestIDHeader = "X-Request-ID"

// RequestIDResponse adds the X-Request-ID header to the response. It must be
// placed after chi's middleware.RequestID.
func RequestIDResponse(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set(RequestIDHeader, reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs each HTTP request after it completes.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// ContentTypeJSON sets a default application/json content type. Handlers may
// override it, e.g. for GeoJSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Recovery recovers from handler panics and returns a 500 error.
func Recovery(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					var errStr string
					switch v := rec.(type) {
					case error:
						errStr = v.Error()
					case string:
						errStr = v
					default:
						errStr = fmt.Sprintf("%v", v)
					}

					logger.Error("panic recovered",
						slog.String("request_id", middleware.GetReqID(r.Context())),
						slog.String("error", errStr),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
					)

					WriteInternalError(w, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
