package main

import (
	"net/http"
	"time"

	"codefill/internal/platform/config"
)

// newHTTPClient is the outbound client for the identity provider and the mailbox
func newHTTPClient(root config.Conf) *http.Client {
	c := root.Prefix("CODEFILL_HTTP_")
	return &http.Client{
		Timeout: c.MayPositiveDuration("TIMEOUT", 30*time.Second),
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: c.MayInt("MAX_IDLE_PER_HOST", 4),
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
