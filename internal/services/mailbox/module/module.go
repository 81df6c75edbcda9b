// Package module wires the mailbox search
package module

import (
	"context"
	"net/http"

	"codefill/internal/adapters/gmail"
	"codefill/internal/modkit"
	"codefill/internal/modkit/httpkit"
	"codefill/internal/services/mailbox/domain"
	"codefill/internal/services/mailbox/service"
)

// Inputs are injected with modkit.WithPorts
// Without a Source the module builds a Gmail client over HTTP, which must carry the OAuth transport
type Inputs struct {
	Source domain.Source
	HTTP   *http.Client
}

// Ports exposed by the mailbox module
type Ports struct {
	Finder *service.Svc
}

// Module implements the mailbox module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
}

// New constructs the mailbox module; it panics when the Gmail client cannot be built
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("mailbox")}, opts...)...)
	o := FromConfig(deps.Cfg)

	in, _ := b.Ports.(Inputs)
	if in.Source == nil {
		if in.HTTP == nil {
			panic("mailbox module requires a Source or an authorized HTTP client")
		}
		c, err := gmail.NewClient(context.Background(), in.HTTP, gmail.Options{
			User:         o.User,
			Timeout:      o.Timeout,
			Endpoint:     o.Endpoint,
			HTMLFallback: o.HTMLFallback,
		})
		if err != nil {
			panic(err)
		}
		in.Source = gmailSource{c: c}
	}

	svc := service.New(o.service(), in.Source, deps.Auth, nil)
	return &Module{deps: deps, name: b.Name, ports: Ports{Finder: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; routes live in the api codes module
func (m *Module) MountRoutes(httpkit.Router) {}

// gmailSource adapts the Gmail client to the search port
type gmailSource struct{ c *gmail.Client }

func (g gmailSource) Latest(ctx context.Context, q string) (domain.Message, bool, error) {
	m, ok, err := g.c.Latest(ctx, q)
	if err != nil || !ok {
		return domain.Message{}, ok, err
	}
	return domain.Message{
		ID:       m.ID,
		From:     m.From,
		Subject:  m.Subject,
		Received: m.Received,
		Bodies:   m.Bodies,
	}, true, nil
}
