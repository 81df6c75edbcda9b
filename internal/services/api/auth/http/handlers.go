// Package http provides the sign-in endpoints
package http

import (
	stdhttp "net/http"

	"codefill/internal/modkit/httpkit"
	"codefill/internal/platform/net/middleware"
	"codefill/internal/services/api/auth/domain"
)

type handlers struct {
	a domain.Authenticator
}

// Register mounts the auth routes; guard covers all but the browser redirect
func Register(r httpkit.Router, a domain.Authenticator, guard middleware.AuthPort) {
	h := &handlers{a: a}
	httpkit.Get(r, "/callback", h.callback)
	httpkit.Protected(r, guard, func(pr httpkit.Router) {
		httpkit.Post(pr, "/", h.begin)
		httpkit.Get(pr, "/status", h.status)
		httpkit.Post(pr, "/signout", h.signout)
	})
}

// swagger:route POST /auth Auth authBegin
// @Summary Start a sign-in, or report the existing one
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]any "ok"
// @Router /auth [post]
func (h *handlers) begin(r *stdhttp.Request) (any, error) {
	return h.a.Begin(r.Context()), nil
}

// swagger:route GET /auth/status Auth authStatus
// @Summary Report whether a usable token is held
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]any "ok"
// @Router /auth/status [get]
func (h *handlers) status(*stdhttp.Request) (any, error) {
	return h.a.Status(), nil
}

// swagger:route GET /auth/callback Auth authCallback
// @Summary OAuth redirect target
// @Tags Auth
// @Produce json
// @Param state query string true "Sign-in state"
// @Param code query string false "Authorization code"
// @Param error query string false "Provider error"
// @Success 200 {object} domain.CallbackOutput "ok"
// @Failure 401 {object} map[string]any "sign-in refused or failed"
// @Router /auth/callback [get]
func (h *handlers) callback(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	if err := h.a.Callback(r.Context(), q.Get("state"), q.Get("code"), q.Get("error")); err != nil {
		return nil, err
	}
	return domain.CallbackOutput{Authenticated: true, Message: "Signed in. You can close this window."}, nil
}

// swagger:route POST /auth/signout Auth authSignOut
// @Summary Forget the stored token
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]any "ok"
// @Router /auth/signout [post]
func (h *handlers) signout(*stdhttp.Request) (any, error) {
	if err := h.a.SignOut(); err != nil {
		return nil, err
	}
	return h.a.Status(), nil
}
