package middleware

import (
	"net/http"

	pnet "codefill/internal/platform/net"
)

// AuthPort identifies the API client making a request
type AuthPort interface {
	// Parse returns the client id or an error
	Parse(r *http.Request) (clientID string, err error)
}

// Auth rejects requests the port cannot identify; a nil port lets everything through
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			cid, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithRequest(r.Context(), pnet.RequestID(r.Context()), cid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
