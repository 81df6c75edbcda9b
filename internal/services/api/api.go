// Package api provides the HTTP API for the agent
package api

import (
	"codefill/internal/platform/config"
	"codefill/internal/platform/logger"
	phttp "codefill/internal/platform/net/http"

	"codefill/internal/modkit"
	"codefill/internal/modkit/httpkit"
	"codefill/internal/modkit/module"
	"codefill/internal/modkit/swaggerkit"

	authapi "codefill/internal/services/api/auth/module"
	codesmod "codefill/internal/services/api/codes/module"
	fieldsmod "codefill/internal/services/api/fields/module"
	metamod "codefill/internal/services/api/meta/module"

	// Service modules (own the Auth and Finder ports)
	authmod "codefill/internal/services/auth/module"
	mailboxmod "codefill/internal/services/mailbox/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Logger         *logger.Logger
	Deps           modkit.Deps
	EnableSwagger  bool
	EnableProfiler bool

	// Auth and Mailbox override the injected service inputs; tests use fakes here
	Auth    *authmod.Inputs
	Mailbox *mailboxmod.Inputs
}

// Mount mounts the API service onto the given router and returns the service modules
// so the caller can run the startup auth check
func Mount(r phttp.Router, opt Options) (*authmod.Module, *mailboxmod.Module) {
	deps := opt.Deps
	deps.Cfg = opt.Config
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// Construct the auth service first and extract its ports
	var authOpts []modkit.Option
	if opt.Auth != nil {
		authOpts = append(authOpts, modkit.WithPorts(*opt.Auth))
	}
	auth := authmod.New(deps, authOpts...)
	ap := module.MustPortsOf[authmod.Ports](auth)
	if deps.Auth == nil {
		deps.Auth = ap.Auth.Flag()
	}

	// The mailbox signs its requests with the auth client
	mbIn := mailboxmod.Inputs{HTTP: ap.HTTP}
	if opt.Mailbox != nil {
		mbIn = *opt.Mailbox
	}
	mailbox := mailboxmod.New(deps, modkit.WithPorts(mbIn))
	finder := module.MustPortsOf[mailboxmod.Ports](mailbox).Finder

	// CODEFILL_API_TOKEN, when set, is the bearer every caller but the OAuth redirect must present
	guard := httpkit.NewSecretPort(opt.Config.Prefix("CODEFILL_API_").MayString("TOKEN", ""), "local")
	var guarded []modkit.Option
	if guard != nil {
		guarded = append(guarded, modkit.WithMiddlewares(httpkit.Auth(guard)))
	}

	mods := []module.Module{
		metamod.New(deps),
		auth,    // include services so their ports are registered
		mailbox, // routes for both live in the API modules below
		authapi.New(deps, modkit.WithPorts(authapi.Ports{Auth: ap.Auth, Guard: guard})),
		codesmod.New(deps, append(guarded, modkit.WithPorts(codesmod.Ports{Finder: finder}))...),
		fieldsmod.New(deps, guarded...),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(httpkit.StackFromConfig(opt.Config.Prefix("CODEFILL_"))), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
	return auth, mailbox
}
