package service

import (
	"context"
	"errors"
	"testing"

	"codefill/internal/core/authstate"
	perr "codefill/internal/platform/errors"

	"golang.org/x/oauth2"
)

type fakeProvider struct {
	tok      *oauth2.Token
	waitErr  error
	began    int
	complete func(code string) error
	failed   []string
	signOuts int
}

func (f *fakeProvider) Token(context.Context) (*oauth2.Token, error) {
	if f.tok == nil {
		return nil, perr.ErrNotAuthenticated
	}
	return f.tok, nil
}

func (f *fakeProvider) Begin() (string, string) {
	f.began++
	return "https://consent.test/?state=s1", "s1"
}

func (f *fakeProvider) Wait(context.Context, string) (*oauth2.Token, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	f.tok = &oauth2.Token{AccessToken: "at"}
	return f.tok, nil
}

func (f *fakeProvider) Complete(_ context.Context, _, code string) (*oauth2.Token, error) {
	if f.complete != nil {
		if err := f.complete(code); err != nil {
			return nil, err
		}
	}
	f.tok = &oauth2.Token{AccessToken: code}
	return f.tok, nil
}

func (f *fakeProvider) Fail(state, reason string) error {
	f.failed = append(f.failed, state+":"+reason)
	return perr.AuthFailedf("refused: %s", reason)
}

func (f *fakeProvider) SignOut() error {
	f.signOuts++
	f.tok = nil
	return nil
}

func TestCheck_SetsAndClearsFlag(t *testing.T) {
	p := &fakeProvider{}
	flag := authstate.New()
	flag.Set()
	s := New(p, flag, nil)

	if s.Check(context.Background()) || flag.Present() {
		t.Fatalf("Check without token should clear the flag")
	}
	p.tok = &oauth2.Token{AccessToken: "x"}
	if !s.Check(context.Background()) || !flag.Present() {
		t.Fatalf("Check with token should set the flag")
	}
}

func TestAuthenticate_NonInteractiveNeverPrompts(t *testing.T) {
	p := &fakeProvider{}
	opened := 0
	s := New(p, nil, func(context.Context, string) error { opened++; return nil })

	err := s.Authenticate(context.Background(), false)
	if !perr.NotAuthenticated(err) {
		t.Fatalf("err = %v", err)
	}
	if opened != 0 || p.began != 0 {
		t.Fatalf("non-interactive prompted: opened=%d began=%d", opened, p.began)
	}
}

func TestAuthenticate_InteractiveSuccess(t *testing.T) {
	p := &fakeProvider{}
	var url string
	s := New(p, nil, func(_ context.Context, u string) error { url = u; return nil })

	if err := s.Authenticate(context.Background(), true); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if url == "" || !s.Flag().Present() {
		t.Fatalf("url=%q present=%v", url, s.Flag().Present())
	}
	// a second call reuses the token
	if err := s.Authenticate(context.Background(), true); err != nil || p.began != 1 {
		t.Fatalf("second Authenticate err=%v began=%d", err, p.began)
	}
}

func TestAuthenticate_InteractiveFailures(t *testing.T) {
	cases := []struct {
		name string
		p    *fakeProvider
		open func(context.Context, string) error
	}{
		{"no opener", &fakeProvider{}, nil},
		{"opener fails", &fakeProvider{}, func(context.Context, string) error { return errors.New("no browser") }},
		{"wait times out", &fakeProvider{waitErr: context.DeadlineExceeded}, func(context.Context, string) error { return nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(tc.p, nil, tc.open)
			err := s.Authenticate(context.Background(), true)
			if !perr.IsCode(err, perr.ErrorCodeAuthFailed) {
				t.Fatalf("err = %v (%v)", err, perr.CodeOf(err))
			}
			if s.Flag().Present() {
				t.Fatalf("flag set after failure")
			}
		})
	}
}

func TestBeginAndCallback(t *testing.T) {
	p := &fakeProvider{}
	s := New(p, nil, nil)

	si := s.Begin(context.Background())
	if si.Authenticated || si.AuthURL == "" || si.State != "s1" {
		t.Fatalf("Begin = %+v", si)
	}
	if err := s.Callback(context.Background(), "s1", "code-1", ""); err != nil {
		t.Fatalf("Callback: %v", err)
	}
	if !s.Status().Authenticated || s.Status().Changed == nil {
		t.Fatalf("status = %+v", s.Status())
	}
	if si := s.Begin(context.Background()); !si.Authenticated || si.AuthURL != "" {
		t.Fatalf("Begin when signed in = %+v", si)
	}
}

func TestCallback_Errors(t *testing.T) {
	p := &fakeProvider{complete: func(string) error { return errors.New("exchange 400") }}
	s := New(p, nil, nil)

	if err := s.Callback(context.Background(), "", "c", ""); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing state err = %v", err)
	}
	if err := s.Callback(context.Background(), "s1", "", ""); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing code err = %v", err)
	}
	if err := s.Callback(context.Background(), "s1", "c", ""); !perr.IsCode(err, perr.ErrorCodeAuthFailed) {
		t.Fatalf("exchange err = %v", err)
	}
	if err := s.Callback(context.Background(), "s1", "c", "access_denied"); !perr.IsCode(err, perr.ErrorCodeAuthFailed) {
		t.Fatalf("refused err = %v", err)
	}
	if len(p.failed) != 1 || p.failed[0] != "s1:access_denied" {
		t.Fatalf("failed = %v", p.failed)
	}
	if s.Flag().Present() {
		t.Fatalf("flag set after failures")
	}
}

func TestSignOut(t *testing.T) {
	p := &fakeProvider{tok: &oauth2.Token{AccessToken: "x"}}
	s := New(p, nil, nil)
	s.Check(context.Background())

	if err := s.SignOut(); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if s.Flag().Present() || p.signOuts != 1 {
		t.Fatalf("present=%v signOuts=%d", s.Flag().Present(), p.signOuts)
	}
}
