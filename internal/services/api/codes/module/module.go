// Package module wires the codes endpoints into the API
package module

import (
	"net/http"

	modkit "codefill/internal/modkit"
	"codefill/internal/modkit/httpkit"
	str "codefill/internal/platform/strings"

	"codefill/internal/services/api/codes/domain"
	codeshttp "codefill/internal/services/api/codes/http"
)

// Ports declares the injected mailbox search
type Ports struct {
	Finder domain.Finder
}

// Module implements the modkit.Module interface
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	finder domain.Finder
}

// New constructs the codes module; it panics without a Finder
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("codes"),
		modkit.WithPrefix("/codes"),
	}, opts...)...)

	injected, _ := b.Ports.(Ports)
	if injected.Finder == nil {
		panic("codes API module requires a Finder port (from services/mailbox)")
	}
	return &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, finder: injected.Finder}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.Prefix(), m.mws, func(sub httpkit.Router) {
		codeshttp.Register(sub, codeshttp.Deps{Finder: m.finder})
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "codes") }

// Prefix returns the mount prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
