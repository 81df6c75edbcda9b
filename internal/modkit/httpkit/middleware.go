package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"codefill/internal/platform/config"
	phttp "codefill/internal/platform/net/http"
	"codefill/internal/platform/net/middleware"
)

// StackOptions tune the shared API middleware stack
type StackOptions struct {
	// Origins may call the agent cross-origin, typically the browser extension
	Origins []string
	// Timeout bounds a request; mailbox lookups are the slow path
	Timeout time.Duration
	// Slow marks access log lines as warnings
	Slow time.Duration
}

// StackFromConfig reads API_CORS_ORIGINS, API_TIMEOUT and API_SLOW under cfg's prefix
func StackFromConfig(cfg config.Conf) StackOptions {
	c := cfg.Prefix("API_")
	return StackOptions{
		Origins: c.MayCSV("CORS_ORIGINS", nil),
		Timeout: c.MayPositiveDuration("TIMEOUT", 30*time.Second),
		Slow:    c.MayPositiveDuration("SLOW", 2*time.Second),
	}
}

// CommonStack is the middleware every API route runs behind
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.Slow}),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.Origins}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}
