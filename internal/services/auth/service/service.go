// Package service signs the user in and keeps the process wide auth flag honest
package service

import (
	"context"

	"codefill/internal/core/authstate"
	perr "codefill/internal/platform/errors"
	"codefill/internal/platform/logger"
	"codefill/internal/services/auth/domain"
)

// Svc composes the provider with the auth flag
type Svc struct {
	p    domain.Provider
	flag *authstate.Flag
	open domain.Opener
	log  *logger.Logger
}

// New builds the service; open may be nil when no interactive surface exists
func New(p domain.Provider, flag *authstate.Flag, open domain.Opener) *Svc {
	if flag == nil {
		flag = authstate.New()
	}
	return &Svc{p: p, flag: flag, open: open, log: logger.Named("auth")}
}

// Flag returns the flag this service maintains
func (s *Svc) Flag() *authstate.Flag { return s.flag }

// Check looks for a usable token without prompting and updates the flag
func (s *Svc) Check(ctx context.Context) bool {
	if _, err := s.p.Token(ctx); err != nil {
		s.flag.Clear()
		s.log.Info().Msg("not signed in")
		return false
	}
	s.flag.Set()
	s.log.Info().Msg("signed in")
	return true
}

// Authenticate obtains a token, prompting only when interactive is true
// Non-interactive failure is an Unauthorized error; interactive failure is AuthFailed
func (s *Svc) Authenticate(ctx context.Context, interactive bool) error {
	if _, err := s.p.Token(ctx); err == nil {
		s.flag.Set()
		return nil
	}
	if !interactive {
		s.flag.Clear()
		return perr.ErrNotAuthenticated
	}
	if s.open == nil {
		return perr.AuthFailedf("interactive sign-in is not available")
	}

	authURL, state := s.p.Begin()
	if err := s.open(ctx, authURL); err != nil {
		return perr.Wrap(err, perr.ErrorCodeAuthFailed, "could not show the consent page")
	}
	if _, err := s.p.Wait(ctx, state); err != nil {
		s.log.Warn().Err(err).Msg("sign-in failed")
		return authFailed(err)
	}
	s.flag.Set()
	s.log.Info().Msg("sign-in complete")
	return nil
}

// Begin reports the current token or starts a sign-in the caller completes out of band
func (s *Svc) Begin(ctx context.Context) domain.SignIn {
	if _, err := s.p.Token(ctx); err == nil {
		s.flag.Set()
		return domain.SignIn{Authenticated: true}
	}
	authURL, state := s.p.Begin()
	return domain.SignIn{AuthURL: authURL, State: state}
}

// Callback answers a sign-in from the provider redirect
// reason is the provider's error parameter and wins over code when set
func (s *Svc) Callback(ctx context.Context, state, code, reason string) error {
	if state == "" {
		return perr.InvalidArgf("missing state")
	}
	if reason != "" {
		return s.p.Fail(state, reason)
	}
	if code == "" {
		return perr.InvalidArgf("missing code")
	}
	if _, err := s.p.Complete(ctx, state, code); err != nil {
		return authFailed(err)
	}
	s.flag.Set()
	return nil
}

// Status reports the flag
func (s *Svc) Status() domain.Status {
	st := domain.Status{Authenticated: s.flag.Present()}
	if ch := s.flag.Changed(); !ch.IsZero() {
		st.Changed = &ch
	}
	return st
}

// SignOut drops the token and clears the flag
func (s *Svc) SignOut() error {
	s.flag.Clear()
	if err := s.p.SignOut(); err != nil {
		return perr.WithOp(err, "auth.signout")
	}
	s.log.Info().Msg("signed out")
	return nil
}

// authFailed keeps caller mistakes as they are and turns everything else into AuthFailed
func authFailed(err error) error {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeAuthFailed, perr.ErrorCodeInvalidArgument:
		return err
	}
	return perr.Wrap(err, perr.ErrorCodeAuthFailed, "sign-in failed")
}
