// Package extract pulls a verification code out of a message body
//
// Rules are tried in pack order and the first rule that matches anywhere in the
// body wins; later rules are never consulted. A capture outside 4..8 ASCII digits
// is not a match for that rule
package extract

import (
	"sync"

	"codefill/internal/core/rulepack"
)

const (
	// MinDigits is the shortest code ever returned
	MinDigits = 4
	// MaxDigits is the longest code ever returned
	MaxDigits = 8
)

// Candidate is a code together with the rule that produced it
type Candidate struct {
	Code   string `json:"code"`
	Rule   int    `json:"rule"`
	RuleID string `json:"rule_id"`
}

// Extractor applies an ordered list of code rules
type Extractor struct {
	rules []rulepack.CodeRule
}

// New builds an Extractor over the pack's code rules
func New(p *rulepack.Pack) *Extractor {
	return &Extractor{rules: p.Codes}
}

var (
	defOnce sync.Once
	def     *Extractor
)

// Default returns the Extractor over the embedded pack
func Default() *Extractor {
	defOnce.Do(func() { def = New(rulepack.Default()) })
	return def
}

// Extract runs the default Extractor
func Extract(body string) (Candidate, bool) { return Default().Extract(body) }

// Extract returns the code from the first matching rule
func (e *Extractor) Extract(body string) (Candidate, bool) {
	if body == "" {
		return Candidate{}, false
	}
	for i := range e.rules {
		if c, ok := e.try(i, body); ok {
			return c, true
		}
	}
	return Candidate{}, false
}

// All reports the candidate every rule would produce on its own, in rule order
// Used for diagnostics; Extract is the only decision path
func (e *Extractor) All(body string) []Candidate {
	if body == "" {
		return nil
	}
	var out []Candidate
	for i := range e.rules {
		if c, ok := e.try(i, body); ok {
			out = append(out, c)
		}
	}
	return out
}

// Rules lists the rule ids in evaluation order
func (e *Extractor) Rules() []string {
	ids := make([]string, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.ID
	}
	return ids
}

func (e *Extractor) try(i int, body string) (Candidate, bool) {
	r := e.rules[i]
	m := r.Re.FindStringSubmatch(body)
	if m == nil || r.Group >= len(m) {
		return Candidate{}, false
	}
	code := m[r.Group]
	if !isCode(code) {
		return Candidate{}, false
	}
	return Candidate{Code: code, Rule: i + 1, RuleID: r.ID}, true
}

func isCode(s string) bool {
	if len(s) < MinDigits || len(s) > MaxDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
