// Package middleware holds the agent's HTTP middlewares and thin chi adapters
package middleware

import (
	"net/http"
	"time"

	"codefill/internal/platform/logger"
	pnet "codefill/internal/platform/net"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow marks requests taking >= Slow as warn level, 0 disables slow marking
	Slow time.Duration
	// Log is the base logger; nil uses the request scoped root logger
	Log *logger.Logger
}

// captureWriter records status and bytes written
type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// AccessLog logs one line per request with status, elapsed and bytes
// The request id is copied onto the logger context so handler logs carry it too
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := pnet.RequestID(r.Context())
			r = r.WithContext(logger.WithRequest(r.Context(), reqID, ""))

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(cw, r)
			elapsed := time.Since(start)

			log := opt.Log
			if log == nil {
				log = logger.C(r.Context())
			} else if reqID != "" {
				l := log.With().Str("request_id", reqID).Logger()
				log = &l
			}
			evt := log.Info()
			switch {
			case cw.status >= http.StatusInternalServerError:
				evt = log.Error()
			case opt.Slow > 0 && elapsed >= opt.Slow:
				evt = log.Warn()
			}
			if cid := pnet.ClientID(r.Context()); cid != "" {
				evt = evt.Str("client_id", cid)
			}
			evt.Int("status", cw.status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", cw.bytes).
				Msg("request done")
		})
	}
}
