// Package domain holds the sign-in ports and payloads
package domain

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Provider runs the identity provider side of sign-in
type Provider interface {
	// Token returns a usable token without prompting
	Token(ctx context.Context) (*oauth2.Token, error)
	// Begin starts an interactive sign-in
	Begin() (authURL, state string)
	// Wait blocks until the sign-in for state ends
	Wait(ctx context.Context, state string) (*oauth2.Token, error)
	// Complete answers a sign-in with the provider's authorization code
	Complete(ctx context.Context, state, code string) (*oauth2.Token, error)
	// Fail answers a sign-in the user refused
	Fail(state, reason string) error
	SignOut() error
}

// Authorizer is implemented by providers that can sign outbound requests
type Authorizer interface {
	HTTPClient(base *http.Client) *http.Client
}

// Opener shows the consent page to the user
type Opener func(ctx context.Context, authURL string) error

// Status is the current sign-in state
type Status struct {
	Authenticated bool       `json:"authenticated" example:"true"`
	Changed       *time.Time `json:"changed,omitempty"`
}

// SignIn is the answer to a sign-in request
// AuthURL is set when the user still has to visit the consent page
type SignIn struct {
	Authenticated bool   `json:"authenticated" example:"false"`
	AuthURL       string `json:"auth_url,omitempty" example:"https://accounts.google.com/o/oauth2/auth?..."`
	State         string `json:"state,omitempty" example:"6f1c2a7e-0d7b-4a51-9b1e-3f0f3c1d2e4a"`
}
