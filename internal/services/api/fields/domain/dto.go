// Package domain holds the fields API payloads
package domain

import "codefill/internal/core/classify"

// ClassifyInput is a batch of input descriptors
type ClassifyInput struct {
	Fields []classify.Descriptor `json:"fields" validate:"required,min=1,max=200"`
}

// Verdict is the classification of one descriptor, in request order
type Verdict struct {
	Index  int             `json:"index"  example:"0"`
	Match  bool            `json:"match"  example:"true"`
	Reason classify.Reason `json:"reason,omitempty" example:"autocomplete"`
	Detail string          `json:"detail,omitempty" example:"one-time-code"`
}

// ClassifyOutput lists one verdict per field
type ClassifyOutput struct {
	Verdicts []Verdict `json:"verdicts"`
	Matches  int       `json:"matches" example:"1"`
}
