package service

import (
	"strconv"
	"strings"
	"time"
)

// Query builds the mailbox search for a domain hint
// The from clause is omitted when the hint has nothing usable in it
func Query(hint string, window time.Duration) string {
	var b strings.Builder
	if d := cleanHint(hint); d != "" {
		b.WriteString("from:(")
		b.WriteString(d)
		b.WriteString(") OR ")
	}
	b.WriteString("subject:(verification code) OR subject:(security code) OR subject:(authentication) newer_than:")
	b.WriteString(windowTerm(window))
	return b.String()
}

// cleanHint keeps host name characters so a hint cannot reshape the query
func cleanHint(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "www.")
	var b strings.Builder
	for _, r := range h {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".-")
}

// windowTerm renders the window in whole minutes, at least one
func windowTerm(d time.Duration) string {
	m := int(d / time.Minute)
	if m < 1 {
		m = 1
	}
	return strconv.Itoa(m) + "m"
}
