// Package domain holds the sign-in API port
package domain

import (
	"context"

	adomain "codefill/internal/services/auth/domain"
)

// Authenticator is the sign-in surface the API drives
type Authenticator interface {
	Begin(ctx context.Context) adomain.SignIn
	Callback(ctx context.Context, state, code, reason string) error
	Status() adomain.Status
	SignOut() error
}

// CallbackOutput is returned to the browser after the provider redirect
type CallbackOutput struct {
	Authenticated bool   `json:"authenticated" example:"true"`
	Message       string `json:"message" example:"Signed in. You can close this window."`
}
