package httpkit

import (
	"net/http"
	"strings"

	perrs "codefill/internal/platform/errors"
	pnet "codefill/internal/platform/net"
)

// Client returns the API client id the auth middleware put on the request
func Client(r *http.Request) (string, error) {
	cid := pnet.ClientID(r.Context())
	if cid == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return cid, nil
}

// Bearer returns the raw bearer token from the Authorization header
// The scheme is case-insensitive and spaces around the token are ignored
func Bearer(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}
