// Package module wires the fields endpoints into the API
package module

import (
	"net/http"

	modkit "codefill/internal/modkit"
	"codefill/internal/modkit/httpkit"
	str "codefill/internal/platform/strings"

	fieldshttp "codefill/internal/services/api/fields/http"
)

// Module implements the modkit.Module interface
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
}

// New constructs the fields module
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("fields"),
		modkit.WithPrefix("/fields"),
	}, opts...)...)
	return &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, str.MustPrefix(m.prefix), m.mws, func(sub httpkit.Router) {
		fieldshttp.Register(sub, nil)
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "fields") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
