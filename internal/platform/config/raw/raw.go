// Package raw reads environment variables before the logger exists
// config logs through logger, and logger is configured from the environment,
// so logger reads its own settings here
package raw

import (
	"os"
	"strings"
)

// Conf is a prefixed view over the environment, like config.Conf without logging
type Conf struct{ prefix string }

// New returns the unprefixed view
func New() Conf { return Conf{} }

// Prefix returns a view whose keys are prefixed with p
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) lookup(key string) string {
	return strings.TrimSpace(os.Getenv(c.prefix + key))
}

// Has reports whether key is set to something other than blanks
func (c Conf) Has(key string) bool { return c.lookup(key) != "" }

// Get returns the trimmed value of key, or def when it is blank
func (c Conf) Get(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// GetBool treats 1, true, yes and on as true, any other non-blank value as false
func (c Conf) GetBool(key string, def bool) bool {
	switch v := strings.ToLower(c.lookup(key)); v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
