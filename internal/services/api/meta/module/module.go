// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"net/http"
	"time"

	modkit "codefill/internal/modkit"
	"codefill/internal/modkit/httpkit"
	registry "codefill/internal/modkit/module"
	str "codefill/internal/platform/strings"

	metahttp "codefill/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	deps   metahttp.Deps
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	now := clock(deps)
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		deps: metahttp.Deps{
			ServiceName: serviceName(deps),
			StartedAt:   now(),
			Auth:        deps.Auth,
			Now:         now,
			Modules:     registry.Names,
		},
	}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.Prefix(), m.mws, func(sub httpkit.Router) {
		metahttp.Register(sub, m.deps)
	})
}

// serviceName is CODEFILL_SERVICE_NAME, defaulting to the agent binary
func serviceName(deps modkit.Deps) string {
	return deps.Cfg.MayString("CODEFILL_SERVICE_NAME", "codefill-agent")
}

// clock reads time from the loop when one is wired so tests can drive it
func clock(deps modkit.Deps) func() time.Time {
	if deps.Sched != nil {
		return deps.Sched.Now
	}
	return time.Now
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Prefix implements the modkit.Module interface
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
