// Package config reads agent and watcher settings from environment variables
//
// Every getter takes a default. A blank value means the default; a malformed
// value is logged and also means the default, so a bad variable degrades a
// setting instead of stopping the agent
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"codefill/internal/platform/logger"
)

// Conf is a namespaced view over environment variables (e.g., "CODEFILL_", "CODEFILL_GMAIL_")
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("API_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) value(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// may parses key with parse, falling back to def when blank or malformed
func may[T any](c Conf, key string, def T, kind string, parse func(string) (T, error)) T {
	s := c.value(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Interface("default", def).
			Msgf("invalid %s; using default", kind)
		return def
	}
	return v
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	if v := c.value(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value as an int
func (c Conf) MayInt(key string, def int) int {
	return may(c, key, def, "int", strconv.Atoi)
}

// MayFloat64 returns the value as a float64
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, def, "float", func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool returns the value as a bool (strconv.ParseBool syntax)
func (c Conf) MayBool(key string, def bool) bool {
	return may(c, key, def, "bool", strconv.ParseBool)
}

// MayDuration returns the value as a duration (e.g., 250ms, 2s, 1h)
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, "duration", time.ParseDuration)
}

// MayPositiveDuration is MayDuration that also rejects zero and negative values
// Interval settings use it so a typo cannot turn a poll loop into a busy loop
func (c Conf) MayPositiveDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, "positive duration", func(s string) (time.Duration, error) {
		d, err := time.ParseDuration(s)
		if err == nil && d <= 0 {
			err = strconv.ErrRange
		}
		return d, err
	})
}

// MayURL returns the value when it parses as an absolute URL
func (c Conf) MayURL(key, def string) string {
	return may(c, key, def, "absolute URL", func(s string) (string, error) {
		u, err := url.Parse(s)
		if err == nil && !u.IsAbs() {
			err = url.InvalidHostError(s)
		}
		return s, err
	})
}

// MayCSV returns a slice of strings from a comma-separated env var; def if missing/empty
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.value(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
