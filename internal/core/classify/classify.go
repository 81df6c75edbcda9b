// Package classify decides whether an input element looks like a one-time-code field
//
// Checks run in order and stop at the first hit:
// signature attributes, then a 4..8 maxlength, then keywords in the surrounding text
package classify

import (
	"strconv"
	"strings"
	"sync"

	"codefill/internal/core/rulepack"
	pstrings "codefill/internal/platform/strings"
)

// Descriptor is the attribute view of one input element
// MaxLength <= 0 means the attribute is absent or unparsable
type Descriptor struct {
	Tag          string            `json:"tag,omitempty"`
	Type         string            `json:"type,omitempty"`
	Name         string            `json:"name,omitempty"`
	ID           string            `json:"id,omitempty"`
	Placeholder  string            `json:"placeholder,omitempty"`
	AriaLabel    string            `json:"aria_label,omitempty"`
	Autocomplete string            `json:"autocomplete,omitempty"`
	InputMode    string            `json:"inputmode,omitempty"`
	MaxLength    int               `json:"maxlength,omitempty"`
	Context      string            `json:"context,omitempty"`
	Attrs        map[string]string `json:"attrs,omitempty"`
}

// Attr returns the named attribute, looking at the typed fields first
func (d Descriptor) Attr(name string) string {
	switch strings.ToLower(name) {
	case "type":
		return d.Type
	case "name":
		return d.Name
	case "id":
		return d.ID
	case "placeholder":
		return d.Placeholder
	case "aria-label":
		return d.AriaLabel
	case "autocomplete":
		return d.Autocomplete
	case "inputmode":
		return d.InputMode
	case "maxlength":
		if d.MaxLength > 0 {
			return strconv.Itoa(d.MaxLength)
		}
		return ""
	}
	return d.Attrs[strings.ToLower(name)]
}

// Reason names the check that fired
type Reason string

const (
	// ReasonNone means no check fired
	ReasonNone Reason = ""
	// ReasonAutocomplete is autocomplete="one-time-code"
	ReasonAutocomplete Reason = "autocomplete"
	// ReasonAttribute is a name, placeholder or aria-label token
	ReasonAttribute Reason = "attribute"
	// ReasonNumeric is a numeric input with the exact code length
	ReasonNumeric Reason = "numeric"
	// ReasonMaxLength is a maxlength within the code length range
	ReasonMaxLength Reason = "max_length"
	// ReasonContext is a keyword in the text around the field
	ReasonContext Reason = "context"
)

// Verdict is the classification result with the evidence behind it
type Verdict struct {
	Match  bool   `json:"match"`
	Reason Reason `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Signature reports whether the verdict came from the signature stage
func (v Verdict) Signature() bool {
	switch v.Reason {
	case ReasonAutocomplete, ReasonAttribute, ReasonNumeric:
		return true
	}
	return false
}

// Classifier applies the field rules of a pack
type Classifier struct {
	rules rulepack.FieldRules
}

// New builds a Classifier from the pack's field rules
func New(p *rulepack.Pack) *Classifier { return &Classifier{rules: p.Fields} }

var (
	defOnce sync.Once
	def     *Classifier
)

// Default returns the Classifier over the embedded pack
func Default() *Classifier {
	defOnce.Do(func() { def = New(rulepack.Default()) })
	return def
}

// IsTFAField runs the default Classifier
func IsTFAField(d Descriptor) bool { return Default().Classify(d).Match }

// IsTFAField reports whether d looks like a one-time-code field
func (c *Classifier) IsTFAField(d Descriptor) bool { return c.Classify(d).Match }

// Classify runs the checks in order and reports the first that fired
func (c *Classifier) Classify(d Descriptor) Verdict {
	if v, ok := c.signature(d); ok {
		return v
	}
	r := c.rules
	if d.MaxLength > 0 && d.MaxLength >= r.MinLength && d.MaxLength <= r.MaxLength {
		return Verdict{Match: true, Reason: ReasonMaxLength, Detail: strconv.Itoa(d.MaxLength)}
	}
	if kw, ok := pstrings.ContainsAnyFold(d.Context, r.Context); ok {
		return Verdict{Match: true, Reason: ReasonContext, Detail: kw}
	}
	return Verdict{}
}

func (c *Classifier) signature(d Descriptor) (Verdict, bool) {
	r := c.rules
	if d.Autocomplete != "" && pstrings.EqualAnyFold(d.Autocomplete, r.Autocomplete...) {
		return Verdict{Match: true, Reason: ReasonAutocomplete, Detail: strings.ToLower(strings.TrimSpace(d.Autocomplete))}, true
	}
	for _, a := range r.Attributes {
		if tok, ok := pstrings.ContainsAnyFold(d.Attr(a.Attr), a.Contains); ok {
			return Verdict{Match: true, Reason: ReasonAttribute, Detail: a.Attr + "~" + tok}, true
		}
	}
	n := r.Numeric
	if n.MaxLength > 0 && d.MaxLength == n.MaxLength {
		if pstrings.EqualAnyFold(d.Type, n.Types...) {
			return Verdict{Match: true, Reason: ReasonNumeric, Detail: "type=" + strings.ToLower(d.Type)}, true
		}
		if pstrings.EqualAnyFold(d.InputMode, n.InputModes...) {
			return Verdict{Match: true, Reason: ReasonNumeric, Detail: "inputmode=" + strings.ToLower(d.InputMode)}, true
		}
	}
	return Verdict{}, false
}

// ParseMaxLength turns a maxlength attribute into the Descriptor form
func ParseMaxLength(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
