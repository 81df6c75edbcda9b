// Package module is the contract every agent module satisfies, plus port lookup
package module

import (
	phttp "codefill/internal/platform/net/http"
)

// Module mounts its routes and exposes the ports other modules are wired with
// It lives apart from modkit so a module can import it alongside its own ports type
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
