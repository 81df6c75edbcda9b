// @title         codefill agent API
// @version       0.1.0
// @description   Local agent that finds verification codes in the linked mailbox

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codefill/internal/modkit"
	"codefill/internal/modkit/module"
	"codefill/internal/platform/config"
	"codefill/internal/platform/logger"
	phttp "codefill/internal/platform/net/http"

	"codefill/internal/services/api"
	authmod "codefill/internal/services/auth/module"
)

func main() {
	// service-scoped config for HTTP etc (CODEFILL_API_*)
	root := config.New()
	apiCfg := root.Prefix("CODEFILL_")

	// bring up logging early
	logger.Init(logger.ForBinary("codefill-agent", os.Stdout))
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// http server (reads CODEFILL_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	// mount our API; Config is the root view, modules add their own prefixes
	auth, _ := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Logger:         l,
			Deps:           modkit.Deps{HTTP: newHTTPClient(root)},
			EnableSwagger:  apiCfg.MayBool("API_SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("API_PROFILER", false),
		},
	)

	// non-interactive status check so the flag is right before the first request
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	module.MustPortsOf[authmod.Ports](auth).Auth.Check(cctx)
	cancel()

	// run
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
