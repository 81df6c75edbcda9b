package main

import (
	"net/http"
	"time"

	"codefill/internal/platform/config"
)

// newHTTPClient is the outbound client for the page, the identity provider and the mailbox
func newHTTPClient(root config.Conf) *http.Client {
	c := root.Prefix("CODEFILL_HTTP_")
	return &http.Client{Timeout: c.MayPositiveDuration("TIMEOUT", 30*time.Second)}
}
