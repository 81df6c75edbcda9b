package domain

import (
	"context"

	"codefill/internal/core/extract"
)

// Finder looks up the most recent verification code for a domain hint
// A NotAuthenticated error (perr.ErrorCodeUnauthorized) parks the watch behind a sign-in
// prompt; any other error is treated as transient and the watch keeps polling
type Finder interface {
	FindCode(ctx context.Context, domainHint string) (extract.Candidate, bool, error)
}

// Authenticator establishes a mailbox session
// interactive=false must never prompt the user
type Authenticator interface {
	Authenticate(ctx context.Context, interactive bool) error
}

// Host is the part of the page a watch touches
type Host interface {
	Attached(handle string) bool
	// Fill sets the field value and fires the page's input change notification
	Fill(handle, value string) error
}

// SuggestionCallbacks are wired into a suggestion widget
// Only the first call across both is honoured
type SuggestionCallbacks struct {
	Accept  func()
	Dismiss func()
}

// AuthCallbacks are wired into a sign-in prompt
type AuthCallbacks struct {
	Authenticate func()
	Dismiss      func()
}

// Widget is a visible suggestion
type Widget interface {
	Close()
}

// AuthWidget is a visible sign-in prompt
type AuthWidget interface {
	Close()
	// Failed shows that the last sign-in attempt did not succeed; the prompt stays open
	Failed(err error)
}

// Presenter renders suggestions and prompts anchored to a field
type Presenter interface {
	ShowSuggestion(field, code string, cb SuggestionCallbacks) Widget
	ShowAuthPrompt(field string, cb AuthCallbacks) AuthWidget
}

// Rescanner hands fields back to the page scanner
// release drops the scanner's classified record so the field is evaluated again
type Rescanner interface {
	Rescan(release ...string)
}

// AuthFlag is the process-wide session presence flag
type AuthFlag interface {
	Present() bool
	Subscribe(fn func(present bool)) func()
}
