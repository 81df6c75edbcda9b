// Package domain holds the codes API payloads and ports
package domain

import (
	"context"

	"codefill/internal/core/extract"
	mdomain "codefill/internal/services/mailbox/domain"
)

// Finder searches the mailbox for a code
type Finder interface {
	Find(ctx context.Context, hint string) (mdomain.Result, bool, error)
}

// FindInput asks for the newest code sent by a site
type FindInput struct {
	Domain string `json:"domain" validate:"omitempty,hostname_rfc1123,max=253" example:"login.acme.test"`
}

// FindOutput carries the code when one was found
type FindOutput struct {
	Found  bool            `json:"found"            example:"true"`
	Result *mdomain.Result `json:"result,omitempty"`
}

// ExtractInput is a message body to run the code rules over
type ExtractInput struct {
	Body string `json:"body" validate:"required,max=262144" example:"Your verification code is 482913."`
	// All lists the first hit of every rule, not just the winner
	All bool `json:"all" example:"false"`
}

// ExtractOutput is the winning code and, on request, every rule's hit
type ExtractOutput struct {
	Found     bool                `json:"found"               example:"true"`
	Candidate *extract.Candidate  `json:"candidate,omitempty"`
	All       []extract.Candidate `json:"all,omitempty"`
}
