// Package domain holds the page scanner types and the host page port
package domain

import (
	"iter"

	"codefill/internal/core/classify"
)

// Element is one input on the page with its attribute view
type Element struct {
	Handle     string
	Descriptor classify.Descriptor
}

// CandidateField is the scanner's record of an observed input
// Only Classified changes after creation; the record goes away with the element
type CandidateField struct {
	Handle     string `json:"handle"`
	MaxLength  *int   `json:"max_length,omitempty"`
	Context    string `json:"context,omitempty"`
	Classified bool   `json:"classified"`
}

// Detection is a field that classified on this pass, with the evidence
type Detection struct {
	CandidateField
	Verdict classify.Verdict `json:"verdict"`
}

// MutationKind says what happened to the document
type MutationKind uint8

const (
	// Inserted means elements were added
	Inserted MutationKind = iota + 1
	// Removed means elements left the document
	Removed
	// ValueChanged means a field's value was written, as by an input event
	ValueChanged
)

// Mutation is a batch of document changes
type Mutation struct {
	Kind    MutationKind
	Handles []string
}

// Host is the page the scanner walks
type Host interface {
	// Domain is the page's host name, used as the mailbox search hint
	Domain() string
	// Elements yields the page's inputs in document order
	Elements() iter.Seq[Element]
	// Subscribe delivers mutations until the returned func is called
	Subscribe(fn func(Mutation)) (cancel func())
}

// Watcher starts and ends field watches
type Watcher interface {
	Watch(handle, domainHint string)
	Detach(handle string)
}
