// Package httpkit provides tiny HTTP helpers and adapters
package httpkit

import (
	"crypto/subtle"
	"net/http"

	perrs "codefill/internal/platform/errors"
	"codefill/internal/platform/net/middleware"
)

// TokenFunc maps a bearer token to a client id
type TokenFunc func(token string) (clientID string, err error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a simple parser function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// NewSecretPort accepts exactly one shared token and names its holder client
// An empty secret yields a nil port so the routes stay open
func NewSecretPort(secret, client string) middleware.AuthPort {
	if secret == "" {
		return nil
	}
	want := []byte(secret)
	return NewPortFunc(func(tok string) (string, error) {
		if subtle.ConstantTimeCompare([]byte(tok), want) != 1 {
			return "", perrs.Unauthorizedf("token mismatch")
		}
		return client, nil
	})
}

// Parse extracts the client id from an Authorization Bearer token
// returns unauthorized when the header is missing, malformed, or the parser returns an error
func (p *Port) Parse(r *http.Request) (string, error) {
	raw, err := Bearer(r)
	if err != nil {
		return "", err
	}
	if p.parse == nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}
	cid, err := p.parse(raw)
	if err != nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}
	return cid, nil
}
