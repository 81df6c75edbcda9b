// Package strings holds the case-folding matchers the classifier and scanner share
package strings

import std "strings"

// IfEmpty returns def if in is empty, otherwise returns in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// ContainsAnyFold returns the first needle found in s ignoring case, if any
// Empty needles never match
func ContainsAnyFold(s string, needles []string) (string, bool) {
	if s == "" {
		return "", false
	}
	ls := std.ToLower(s)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if std.Contains(ls, std.ToLower(n)) {
			return n, true
		}
	}
	return "", false
}

// EqualAnyFold reports whether s equals any of the candidates ignoring case and surrounding space
func EqualAnyFold(s string, candidates ...string) bool {
	s = std.TrimSpace(s)
	for _, c := range candidates {
		if std.EqualFold(s, c) {
			return true
		}
	}
	return false
}

// MustString returns s if it has non whitespace content otherwise panics
// name is used in the panic message so you can tell what was missing
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes and asserts a mount path like /auth or /codes
// ensures a single leading slash and no trailing slash; panics on an empty or root path
func MustPrefix(s string) string {
	s = "/" + std.Trim(s, " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
