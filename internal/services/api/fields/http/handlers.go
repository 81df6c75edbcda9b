// Package http provides the field classification endpoint
package http

import (
	stdhttp "net/http"

	"codefill/internal/core/classify"
	"codefill/internal/modkit/httpkit"
	"codefill/internal/services/api/fields/domain"
)

type handlers struct {
	c *classify.Classifier
}

// Register mounts the fields routes; a nil classifier uses the built in rules
func Register(r httpkit.Router, c *classify.Classifier) {
	if c == nil {
		c = classify.Default()
	}
	h := &handlers{c: c}
	httpkit.PostJSON[domain.ClassifyInput](r, "/classify", h.classify)
}

// swagger:route POST /fields/classify Fields fieldsClassify
// @Summary Classify input descriptors as one-time-code fields
// @Tags Fields
// @Accept json
// @Produce json
// @Param payload body domain.ClassifyInput true "Classify"
// @Success 200 {object} domain.ClassifyOutput "ok"
// @Router /fields/classify [post]
func (h *handlers) classify(_ *stdhttp.Request, in domain.ClassifyInput) (any, error) {
	out := domain.ClassifyOutput{Verdicts: make([]domain.Verdict, len(in.Fields))}
	for i, d := range in.Fields {
		v := h.c.Classify(d)
		out.Verdicts[i] = domain.Verdict{Index: i, Match: v.Match, Reason: v.Reason, Detail: v.Detail}
		if v.Match {
			out.Matches++
		}
	}
	return out, nil
}
