// Package module wires the sign-in endpoints into the API
package module

import (
	"net/http"

	modkit "codefill/internal/modkit"
	"codefill/internal/modkit/httpkit"
	"codefill/internal/platform/net/middleware"
	str "codefill/internal/platform/strings"

	"codefill/internal/services/api/auth/domain"
	authhttp "codefill/internal/services/api/auth/http"
)

// Ports declares the injected sign-in service and the optional API token check
type Ports struct {
	Auth  domain.Authenticator
	Guard middleware.AuthPort
}

// Module implements the modkit.Module interface
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	ports  Ports
}

// New constructs the auth API module; it panics without an Authenticator
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("auth-api"),
		modkit.WithPrefix("/auth"),
	}, opts...)...)

	injected, _ := b.Ports.(Ports)
	if injected.Auth == nil {
		panic("auth API module requires an Authenticator port (from services/auth)")
	}
	return &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, ports: injected}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, str.MustPrefix(m.prefix), m.mws, func(sub httpkit.Router) {
		authhttp.Register(sub, m.ports.Auth, m.ports.Guard)
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "auth-api") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
