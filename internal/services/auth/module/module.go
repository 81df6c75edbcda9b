// Package module wires sign-in into the process
package module

import (
	"net/http"

	"codefill/internal/adapters/oauth"
	"codefill/internal/modkit"
	"codefill/internal/modkit/httpkit"
	"codefill/internal/services/auth/domain"
	"codefill/internal/services/auth/service"
)

// Inputs are optional overrides injected with modkit.WithPorts
// Without a Provider the module builds the Google OAuth client from config
type Inputs struct {
	Provider domain.Provider
	Opener   domain.Opener
}

// Ports exposed by the auth module
type Ports struct {
	Auth *service.Svc
	// HTTP signs mailbox requests with the current token; nil when the provider cannot sign
	HTTP *http.Client
}

// Module implements the auth module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
}

// New constructs the auth module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("auth")}, opts...)...)

	in, _ := b.Ports.(Inputs)
	if in.Provider == nil {
		o := FromConfig(deps.Cfg)
		in.Provider = oauth.NewClient(oauth.Options{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			RedirectURL:  o.RedirectURL,
			HTTP:         deps.Client(),
		}, oauth.NewFileStore(o.TokenFile))
	}

	ports := Ports{Auth: service.New(in.Provider, deps.Auth, in.Opener)}
	if a, ok := in.Provider.(domain.Authorizer); ok {
		ports.HTTP = a.HTTPClient(deps.Client())
	}
	return &Module{deps: deps, name: b.Name, ports: ports}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; routes live in the api auth module
func (m *Module) MountRoutes(httpkit.Router) {}
