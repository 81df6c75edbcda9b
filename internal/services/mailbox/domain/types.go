// Package domain holds the mailbox search port and results
package domain

import (
	"context"
	"time"
)

// Message is the newest message a search returned
type Message struct {
	ID       string
	From     string
	Subject  string
	Received time.Time
	Bodies   []string
}

// Source runs a mailbox search and returns the newest hit
type Source interface {
	Latest(ctx context.Context, query string) (Message, bool, error)
}

// Result is a code found in the mailbox with where it came from
type Result struct {
	Code      string    `json:"code"       example:"482913"`
	Rule      int       `json:"rule"       example:"1"`
	RuleID    string    `json:"rule_id"    example:"keyword_prefixed"`
	MessageID string    `json:"message_id" example:"18c2f0a9d3b4e5f6"`
	Subject   string    `json:"subject"    example:"Your verification code"`
	Received  time.Time `json:"received"`
}
