package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Logger attaches a request-scoped logger carrying the request id and remote
// address to the context and writes one access log line per request.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := hlog.AccessHandler(accessLog)(next)
		h = hlog.RemoteAddrHandler("remote")(h)
		h = hlog.RequestIDHandler("request_id", "X-Request-Id")(h)
		return hlog.NewHandler(log)(h)
	}
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	log := hlog.FromRequest(r)
	ev := log.Info()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("bytes", size).
		Dur("duration", duration).
		Msg("http request")
}

// CORS allows any origin; CSV downloads expose their file name.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         300,
	})
}
