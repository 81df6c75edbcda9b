// Command codefill-watch loads a page, watches its code fields and offers
// verification codes from the linked mailbox on the terminal
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codefill/internal/adapters/htmldoc"
	"codefill/internal/adapters/terminal"
	"codefill/internal/core/version"
	"codefill/internal/modkit"
	"codefill/internal/modkit/module"
	"codefill/internal/platform/config"
	"codefill/internal/platform/logger"
	"codefill/internal/platform/loop"
	phttp "codefill/internal/platform/net/http"

	"codefill/internal/services/api"
	authmod "codefill/internal/services/auth/module"
	mailboxmod "codefill/internal/services/mailbox/module"
	scanmod "codefill/internal/services/scan/module"
	watchdom "codefill/internal/services/watch/domain"
	watchmod "codefill/internal/services/watch/module"
)

func main() {
	var (
		pageURL     = flag.String("url", "", "page to fetch")
		file        = flag.String("file", "", "read the page from a local file instead of -url")
		origin      = flag.String("origin", "", "page URL used for the mailbox hint when reading -file")
		out         = flag.String("out", "", "write the filled page here on exit")
		inject      = flag.String("inject", "", "HTML fragment appended to the body after -inject-after")
		injectAfter = flag.Duration("inject-after", 2*time.Second, "delay before -inject")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version.Info("codefill-watch"))
		return
	}
	if (*pageURL == "") == (*file == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -url or -file is required")
		os.Exit(2)
	}

	// the prompt owns stdout
	logger.Init(logger.ForBinary("codefill-watch", os.Stderr))
	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hc := newHTTPClient(root)
	doc, err := loadPage(ctx, hc, *pageURL, *file, *origin)
	if err != nil {
		l.Fatal().Err(err).Msg("load page")
	}

	lp := loop.New(logger.Named("loop"))
	term := terminal.New(os.Stdin, os.Stdout)
	deps := modkit.Deps{Cfg: root, Log: *l, Sched: lp, HTTP: hc}

	// the API serves the OAuth redirect for interactive sign-in
	srv := phttp.NewServer(root.Prefix("CODEFILL_"))
	auth, mailbox := api.Mount(srv.Router(), api.Options{
		Config: root,
		Logger: l,
		Deps:   deps,
		Auth:   &authmod.Inputs{Opener: term.Open},
	})
	ap := module.MustPortsOf[authmod.Ports](auth)
	deps.Auth = ap.Auth.Flag()

	// Build the coordinator with ports injected from the service modules
	wm := watchmod.New(deps, modkit.WithPorts(watchmod.Inputs{
		Finder: module.MustPortsOf[mailboxmod.Ports](mailbox).Finder,
		Auth:   ap.Auth,
		Host:   doc,
		UI:     term,
	}))
	coord := module.MustPortsOf[watchmod.Ports](wm).Coordinator

	sm := scanmod.New(deps, modkit.WithPorts(scanmod.Inputs{Host: doc, Watcher: coord}))
	scanner := module.MustPortsOf[scanmod.Ports](sm).Scanner
	coord.SetRescanner(scanner)

	// Register ports
	module.Register(wm.Name(), wm.Ports())
	module.Register(sm.Name(), sm.Ports())

	wlog := logger.Named("watch")
	coord.Observe(func(t watchdom.Transition) {
		wlog.Debug().Str("field", t.Field).Stringer("from", t.From).Stringer("to", t.To).
			Str("outcome", string(t.Outcome)).Msg("transition")
	})

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	ap.Auth.Check(cctx)
	cancel()

	lp.Go(func(ctx context.Context) {
		if err := srv.Run(ctx); err != nil {
			l.Error().Err(err).Msg("http server stopped")
		}
	})
	lp.Go(func(ctx context.Context) {
		if err := term.Run(ctx); err != nil {
			l.Debug().Err(err).Msg("terminal closed")
		}
	})
	if *inject != "" {
		lp.AfterFunc(*injectAfter, func() {
			if _, err := doc.Insert("", *inject); err != nil {
				l.Warn().Err(err).Msg("inject")
			}
		})
	}

	coord.Start()
	scanner.Start()
	// stop on the loop so the callbacks they post still run
	lp.OnStop(scanner.Stop)
	lp.OnStop(coord.Stop)
	if err := lp.Run(ctx); err != nil {
		l.Error().Err(err).Msg("loop stopped")
	}

	if *out != "" {
		if err := writePage(doc, *out); err != nil {
			l.Fatal().Err(err).Msg("write page")
		}
	}
}

func loadPage(ctx context.Context, hc *http.Client, pageURL, file, origin string) (*htmldoc.Doc, error) {
	if pageURL != "" {
		return htmldoc.Fetch(ctx, hc, pageURL)
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return htmldoc.Parse(f, origin)
}

func writePage(doc *htmldoc.Doc, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := doc.Render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
