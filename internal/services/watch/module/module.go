// Package module wires the field watch coordinator
package module

import (
	"codefill/internal/modkit"
	"codefill/internal/modkit/httpkit"
	"codefill/internal/platform/logger"
	"codefill/internal/services/watch/domain"
	"codefill/internal/services/watch/service"
)

// Inputs are the collaborators the coordinator needs, injected with modkit.WithPorts
type Inputs struct {
	Finder domain.Finder
	Auth   domain.Authenticator
	Host   domain.Host
	UI     domain.Presenter
}

// Ports exposed by the watch module
type Ports struct {
	Coordinator *service.Svc
}

// Module implements the watch module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
}

// New constructs the watch module; it panics when an input is missing
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("watch")}, opts...)...)

	in, _ := b.Ports.(Inputs)
	switch {
	case in.Finder == nil:
		panic("watch module requires a Finder port")
	case in.Auth == nil:
		panic("watch module requires an Authenticator port")
	case in.Host == nil:
		panic("watch module requires a Host port")
	case in.UI == nil:
		panic("watch module requires a Presenter port")
	}
	if deps.Sched == nil {
		panic("watch module requires a scheduler")
	}

	sd := service.Deps{
		Sched:  deps.Sched,
		Finder: in.Finder,
		Auth:   in.Auth,
		Host:   in.Host,
		UI:     in.UI,
		Log:    logger.Named("watch"),
	}
	if deps.Auth != nil {
		sd.Flag = deps.Auth
	}
	svc := service.New(FromConfig(deps.Cfg).service(), sd)

	return &Module{deps: deps, name: b.Name, ports: Ports{Coordinator: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
