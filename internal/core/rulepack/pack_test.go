package rulepack

import (
	"strings"
	"testing"
)

func TestLoad_OrderAndShape(t *testing.T) {
	p, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	wantIDs := []string{"keyword_prefixed", "bare_six_digits", "verification_code", "security_code", "one_time_code"}
	if len(p.Codes) != len(wantIDs) {
		t.Fatalf("got %d code rules, want %d", len(p.Codes), len(wantIDs))
	}
	for i, id := range wantIDs {
		if p.Codes[i].ID != id {
			t.Fatalf("rule %d = %s, want %s (order is priority)", i, p.Codes[i].ID, id)
		}
		if p.Codes[i].Re == nil || p.Codes[i].Group != 1 {
			t.Fatalf("rule %s not compiled with group 1", id)
		}
	}
	if got := p.Codes[0].Pattern; got != `(?i)(?:code|pin|passcode|verification|auth)[^\d]*(\d{4,8})[^\d]` {
		t.Fatalf("slot expansion = %q", got)
	}
	if p.Fields.MinLength != 4 || p.Fields.MaxLength != 8 || p.Fields.Numeric.MaxLength != 6 {
		t.Fatalf("field ranges = %+v", p.Fields)
	}
	if len(p.Fields.Attributes) != 3 || p.Fields.Attributes[2].Attr != "aria-label" {
		t.Fatalf("attribute rules = %+v", p.Fields.Attributes)
	}
}

func TestLoad_ExamplesMatchTheirRule(t *testing.T) {
	p := Default()
	for _, r := range p.Codes {
		for _, ex := range r.Examples {
			m := r.Re.FindStringSubmatch(ex)
			if m == nil {
				t.Fatalf("rule %s does not match its example %q", r.ID, ex)
			}
			if n := len(m[r.Group]); n < 4 || n > 8 {
				t.Fatalf("rule %s example %q captured %q", r.ID, ex, m[r.Group])
			}
		}
	}
}

func TestDefault_Memoized(t *testing.T) {
	if Default() != Default() {
		t.Fatalf("Default should return the same pack")
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"bad json":      `{`,
		"bad version":   `{"version":2,"codes":[{"pattern":"(\\d{4})"}]}`,
		"no codes":      `{"version":1}`,
		"bad regex":     `{"version":1,"codes":[{"pattern":"(\\d{4}"}]}`,
		"dup id":        `{"version":1,"codes":[{"id":"a","pattern":"(\\d)"},{"id":"a","pattern":"(\\d)"}]}`,
		"no group":      `{"version":1,"codes":[{"id":"a","pattern":"\\d{6}"}]}`,
		"bad range":     `{"version":1,"codes":[{"pattern":"(\\d)"}],"fields":{"max_length":{"min":9,"max":4}}}`,
		"group too big": `{"version":1,"codes":[{"pattern":"(\\d)","group":2}]}`,
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParse_DefaultsIDs(t *testing.T) {
	p, err := Parse([]byte(`{"version":1,"codes":[{"pattern":"(\\d{4})"},{"pattern":"x(\\d{5})"}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Codes[0].ID != "rule_1" || p.Codes[1].ID != "rule_2" {
		t.Fatalf("ids = %s %s", p.Codes[0].ID, p.Codes[1].ID)
	}
}

func TestExpandSlots(t *testing.T) {
	got := expandSlots("(?:{WHO}) says {NOPE} \\d{4,8}", map[string][]string{
		"WHO": {"c++", "go"},
	})
	if got != `(?:c\+\+|go) says {NOPE} \d{4,8}` {
		t.Fatalf("unexpected expansion: %q", got)
	}
	if !strings.Contains(expandSlots("{", nil), "{") {
		t.Fatalf("unbalanced brace lost")
	}
}
