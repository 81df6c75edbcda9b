// Package rulepack loads and compiles the embedded rules.json: the ordered
// verification code patterns and the one-time-code field heuristics
package rulepack

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

//go:embed rules.json
var embedded []byte

type rawCodeRule struct {
	ID       string   `json:"id"`
	Pattern  string   `json:"pattern"`
	Group    int      `json:"group,omitempty"`
	Examples []string `json:"examples,omitempty"`
}

type rawAttrRule struct {
	Attr     string   `json:"attr"`
	Contains []string `json:"contains"`
}

type rawNumeric struct {
	Types      []string `json:"types"`
	InputModes []string `json:"inputmodes"`
	MaxLength  int      `json:"max_length"`
}

type rawRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type rawFields struct {
	Autocomplete []string      `json:"autocomplete"`
	Attributes   []rawAttrRule `json:"attributes"`
	Numeric      rawNumeric    `json:"numeric"`
	MaxLength    rawRange      `json:"max_length"`
	Context      []string      `json:"context"`
}

type rawPack struct {
	Version int                 `json:"version"`
	Meta    map[string]any      `json:"meta"`
	Slots   map[string][]string `json:"slots"`
	Codes   []rawCodeRule       `json:"codes"`
	Fields  rawFields           `json:"fields"`
}

// CodeRule is one compiled extraction pattern; Group is the capture holding the digits
type CodeRule struct {
	ID       string
	Pattern  string
	Re       *regexp.Regexp
	Group    int
	Examples []string
}

// AttrRule matches when the named attribute contains any of the tokens
type AttrRule struct {
	Attr     string
	Contains []string
}

// NumericRule matches numeric-looking inputs with an exact maxlength
type NumericRule struct {
	Types      []string
	InputModes []string
	MaxLength  int
}

// FieldRules drives the field classifier
type FieldRules struct {
	Autocomplete []string
	Attributes   []AttrRule
	Numeric      NumericRule
	MinLength    int
	MaxLength    int
	Context      []string
}

// Pack is a compiled rule pack. Codes keeps file order: evaluation order is rule priority
type Pack struct {
	Version int
	Meta    map[string]any
	Codes   []CodeRule
	Fields  FieldRules
}

// Load returns the compiled pack from the embedded rules.json
func Load() (*Pack, error) { return Parse(embedded) }

var (
	defaultOnce sync.Once
	defaultPack *Pack
	defaultErr  error
)

// Default returns the embedded pack, compiled once per process
// It panics if the embedded file is broken, which tests catch at build time
func Default() *Pack {
	defaultOnce.Do(func() { defaultPack, defaultErr = Load() })
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultPack
}

// Parse compiles a rules.json document
func Parse(data []byte) (*Pack, error) {
	var rp rawPack
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, fmt.Errorf("rulepack: parse rules.json: %w", err)
	}
	if rp.Version != 1 {
		return nil, fmt.Errorf("rulepack: unsupported rules.json version %d (want 1)", rp.Version)
	}
	if len(rp.Codes) == 0 {
		return nil, fmt.Errorf("rulepack: no code rules")
	}

	p := &Pack{Version: rp.Version, Meta: rp.Meta}

	seen := make(map[string]struct{}, len(rp.Codes))
	for i, c := range rp.Codes {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			id = fmt.Sprintf("rule_%d", i+1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("rulepack: duplicate rule id %q", id)
		}
		seen[id] = struct{}{}

		exp := expandSlots(c.Pattern, rp.Slots)
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("rulepack: compile %s %q: %w", id, exp, err)
		}
		group := c.Group
		if group == 0 {
			group = 1
		}
		if group > re.NumSubexp() {
			return nil, fmt.Errorf("rulepack: rule %s has %d groups, wants group %d", id, re.NumSubexp(), group)
		}
		p.Codes = append(p.Codes, CodeRule{
			ID:       id,
			Pattern:  exp,
			Re:       re,
			Group:    group,
			Examples: c.Examples,
		})
	}

	f := rp.Fields
	if f.MaxLength.Min > f.MaxLength.Max {
		return nil, fmt.Errorf("rulepack: max_length min %d > max %d", f.MaxLength.Min, f.MaxLength.Max)
	}
	p.Fields = FieldRules{
		Autocomplete: lowerAll(f.Autocomplete),
		Numeric: NumericRule{
			Types:      lowerAll(f.Numeric.Types),
			InputModes: lowerAll(f.Numeric.InputModes),
			MaxLength:  f.Numeric.MaxLength,
		},
		MinLength: f.MaxLength.Min,
		MaxLength: f.MaxLength.Max,
		Context:   lowerAll(f.Context),
	}
	for _, a := range f.Attributes {
		attr := strings.ToLower(strings.TrimSpace(a.Attr))
		if attr == "" {
			continue
		}
		p.Fields.Attributes = append(p.Fields.Attributes, AttrRule{Attr: attr, Contains: lowerAll(a.Contains)})
	}
	return p, nil
}

// lowerAll trims and lowercases, dropping empties and keeping order
func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// expandSlots replaces {NAME} with a non-capturing group of OR'ed, regex-quoted values.
// Slot value order is kept. Unknown {NAME} and regex quantifiers like {4,8} are left as-is
func expandSlots(pattern string, slots map[string][]string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	rest := pattern
	for {
		i := strings.IndexByte(rest, '{')
		if i < 0 {
			b.WriteString(rest)
			break
		}
		j := strings.IndexByte(rest[i:], '}')
		if j < 0 {
			b.WriteString(rest)
			break
		}
		j += i
		name := rest[i+1 : j]
		values, ok := slots[name]
		if !ok || len(values) == 0 {
			b.WriteString(rest[:j+1])
			rest = rest[j+1:]
			continue
		}
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, regexp.QuoteMeta(v))
		}
		b.WriteString(rest[:i])
		b.WriteString(strings.Join(parts, "|"))
		rest = rest[j+1:]
	}
	return b.String()
}
