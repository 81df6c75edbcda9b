// Package module wires the page scanner
package module

import (
	"codefill/internal/modkit"
	"codefill/internal/modkit/httpkit"
	"codefill/internal/platform/logger"
	"codefill/internal/services/scan/domain"
	"codefill/internal/services/scan/service"
)

// Inputs are the page and the watcher, injected with modkit.WithPorts
type Inputs struct {
	Host    domain.Host
	Watcher domain.Watcher
}

// Ports exposed by the scan module
type Ports struct {
	Scanner *service.Svc
}

// Module implements the scan module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
}

// New constructs the scan module; it panics when an input is missing
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("scan")}, opts...)...)

	in, _ := b.Ports.(Inputs)
	switch {
	case in.Host == nil:
		panic("scan module requires a Host port")
	case in.Watcher == nil:
		panic("scan module requires a Watcher port")
	case deps.Sched == nil:
		panic("scan module requires a scheduler")
	}

	svc := service.New(FromConfig(deps.Cfg).service(), service.Deps{
		Sched:   deps.Sched,
		Host:    in.Host,
		Watcher: in.Watcher,
		Log:     logger.Named("scan"),
	})
	return &Module{deps: deps, name: b.Name, ports: Ports{Scanner: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the scanner has no HTTP surface
func (m *Module) MountRoutes(httpkit.Router) {}
