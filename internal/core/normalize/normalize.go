// Package normalize turns raw message bodies into the text the code extractor scans
// Pipeline order
// 1 Sanitize drop NUL and control bytes, repair UTF-8
// 2 Unicode NFKC normalization (fullwidth and other compatibility digits become ASCII)
// 3 Remove format characters (zero-width joiners, BOM, soft hyphen)
// 4 Width fold remaining fullwidth forms to ASCII
// 5 Collapse whitespace runs, keeping line breaks and the edges
//
// Letters keep their case and digits are never remapped; the extractor relies on both
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalizer is concurrency safe when used with the pool below
type Normalizer struct{}

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// New constructs a Normalizer
func New() *Normalizer { return &Normalizer{} }

var std = New()

// Body normalizes s with the shared Normalizer
func Body(s string) string { return std.Normalize(s) }

// Normalize returns the normalized form of s following the pipeline described above
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = Sanitize(s)
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = s
	}

	return collapseSpaces(ns)
}

// Join normalizes each part and joins them with a line break so digits from
// neighbouring parts never fuse into one number
func (n *Normalizer) Join(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = n.Normalize(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// collapseSpaces converts whitespace runs to a single ASCII space, but preserves line breaks.
// Runs that contain any newline are collapsed to a single newline. Edges are kept as one
// separator so a code at the very end of a body is still followed by a non-digit
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	sawNL := false
	flush := func() {
		if !inWS {
			return
		}
		if sawNL {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
		inWS = false
		sawNL = false
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			if r == '\n' || r == '\r' {
				sawNL = true
			}
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}
