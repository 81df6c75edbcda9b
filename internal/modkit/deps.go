// Package modkit provides module wiring and core deps
package modkit

import (
	"net/http"

	"codefill/internal/core/authstate"
	"codefill/internal/platform/config"
	"codefill/internal/platform/logger"
	"codefill/internal/platform/loop"
)

// Deps holds core dependencies passed to modules
// Zero values are usable; consumers nil check Sched and Auth
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// Sched owns all field state; modules that keep state post onto it
	Sched loop.Scheduler
	// Auth is the process wide mailbox sign-in flag
	Auth *authstate.Flag
	// HTTP is the outbound client for provider calls; nil means http.DefaultClient
	HTTP *http.Client
}

// Client returns the outbound HTTP client
func (d Deps) Client() *http.Client {
	if d.HTTP != nil {
		return d.HTTP
	}
	return http.DefaultClient
}
