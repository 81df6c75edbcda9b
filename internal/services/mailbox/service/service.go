// Package service finds the newest verification code in the linked mailbox
package service

import (
	"context"
	"time"

	"codefill/internal/core/authstate"
	"codefill/internal/core/extract"
	"codefill/internal/core/normalize"
	perr "codefill/internal/platform/errors"
	"codefill/internal/platform/logger"
	"codefill/internal/services/mailbox/domain"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Config holds the search settings
type Config struct {
	// Window is how far back a message may be
	Window time.Duration
	// RPS and Burst pace searches across all fields
	RPS   float64
	Burst int
	// Timeout bounds one shared search, independent of any single caller
	Timeout time.Duration
}

// DefaultConfig returns the stock settings
func DefaultConfig() Config {
	return Config{Window: 10 * time.Minute, RPS: 2, Burst: 2, Timeout: 15 * time.Second}
}

// Svc searches the mailbox; it is safe for concurrent use
type Svc struct {
	cfg     Config
	src     domain.Source
	flag    *authstate.Flag
	ex      *extract.Extractor
	norm    *normalize.Normalizer
	limiter *rate.Limiter
	group   singleflight.Group
	log     *logger.Logger
	now     func() time.Time
}

// New builds the service; a nil extractor uses the built in rules
func New(cfg Config, src domain.Source, flag *authstate.Flag, ex *extract.Extractor) *Svc {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.RPS <= 0 {
		cfg.RPS = def.RPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if flag == nil {
		flag = authstate.New()
	}
	if ex == nil {
		ex = extract.Default()
	}
	return &Svc{
		cfg:     cfg,
		src:     src,
		flag:    flag,
		ex:      ex,
		norm:    normalize.New(),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		log:     logger.Named("mailbox"),
		now:     time.Now,
	}
}

// FindCode returns the code in the newest relevant message
func (s *Svc) FindCode(ctx context.Context, hint string) (extract.Candidate, bool, error) {
	r, ok, err := s.Find(ctx, hint)
	if err != nil || !ok {
		return extract.Candidate{}, false, err
	}
	return extract.Candidate{Code: r.Code, Rule: r.Rule, RuleID: r.RuleID}, true, nil
}

// Find is FindCode with the message details
// Without a session it fails with an Unauthorized error and makes no request
// Concurrent searches for the same hint share one request. The shared request is
// not tied to whichever caller started it: a caller that gives up gets a Canceled
// error while the others still get the answer
func (s *Svc) Find(ctx context.Context, hint string) (domain.Result, bool, error) {
	if !s.flag.Present() {
		return domain.Result{}, false, perr.ErrNotAuthenticated
	}
	if err := ctx.Err(); err != nil {
		return domain.Result{}, false, perr.Wrap(err, perr.ErrorCodeCanceled, "search abandoned")
	}
	q := Query(hint, s.cfg.Window)

	ch := s.group.DoChan(q, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
		defer cancel()
		r, ok, err := s.search(sctx, q)
		return found{r, ok}, err
	})
	select {
	case <-ctx.Done():
		return domain.Result{}, false, perr.Wrap(ctx.Err(), perr.ErrorCodeCanceled, "search abandoned")
	case res := <-ch:
		if res.Err != nil {
			return domain.Result{}, false, res.Err
		}
		f := res.Val.(found)
		if res.Shared {
			s.log.Debug().Str("hint", hint).Bool("ok", f.ok).Msg("search shared")
		}
		return f.r, f.ok, nil
	}
}

type found struct {
	r  domain.Result
	ok bool
}

func (s *Svc) search(ctx context.Context, q string) (domain.Result, bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return domain.Result{}, false, perr.Wrap(ctx.Err(), perr.ErrorCodeCanceled, "search abandoned")
		}
		return domain.Result{}, false, perr.Wrap(err, perr.ErrorCodeTooManyRequests, "search paced out")
	}

	msg, ok, err := s.src.Latest(ctx, q)
	switch {
	case perr.NotAuthenticated(err):
		s.flag.Clear()
		s.log.Info().Msg("mailbox rejected the session")
		return domain.Result{}, false, err
	case err != nil:
		if _, typed := perr.As(err); !typed {
			err = perr.Wrap(err, perr.ErrorCodeUnavailable, "mailbox search failed")
		}
		s.log.Warn().Err(err).Str("query", q).Msg("mailbox search failed")
		return domain.Result{}, false, err
	case !ok:
		return domain.Result{}, false, nil
	}

	// the provider's age filter is coarse; hold the window here too
	if !msg.Received.IsZero() && msg.Received.Before(s.now().Add(-s.cfg.Window)) {
		s.log.Debug().Str("id", msg.ID).Time("received", msg.Received).Msg("newest message outside window")
		return domain.Result{}, false, nil
	}

	c, ok := s.ex.Extract(s.norm.Join(msg.Bodies))
	if !ok {
		s.log.Debug().Str("id", msg.ID).Msg("no code in newest message")
		return domain.Result{}, false, nil
	}
	s.log.Info().Str("id", msg.ID).Str("rule", c.RuleID).Msg("code found")
	return domain.Result{
		Code:      c.Code,
		Rule:      c.Rule,
		RuleID:    c.RuleID,
		MessageID: msg.ID,
		Subject:   msg.Subject,
		Received:  msg.Received,
	}, true, nil
}
