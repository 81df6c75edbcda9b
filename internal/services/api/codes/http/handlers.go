// Package http provides the codes endpoints
package http

import (
	stdhttp "net/http"

	"codefill/internal/core/extract"
	"codefill/internal/core/normalize"
	"codefill/internal/modkit/httpkit"
	"codefill/internal/services/api/codes/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Finder    domain.Finder
	Extractor *extract.Extractor
}

type handlers struct {
	deps Deps
}

// Register mounts the codes routes
func Register(r httpkit.Router, d Deps) {
	if d.Extractor == nil {
		d.Extractor = extract.Default()
	}
	h := &handlers{deps: d}
	httpkit.PostJSON[domain.FindInput](r, "/find", h.find)
	httpkit.PostJSON[domain.ExtractInput](r, "/extract", h.extract)
}

// swagger:route POST /codes/find Codes codesFind
// @Summary Newest verification code from the linked mailbox
// @Tags Codes
// @Accept json
// @Produce json
// @Param payload body domain.FindInput true "Find"
// @Success 200 {object} domain.FindOutput "ok"
// @Failure 401 {object} httpkit.Envelope "not authenticated"
// @Router /codes/find [post]
func (h *handlers) find(r *stdhttp.Request, in domain.FindInput) (any, error) {
	res, ok, err := h.deps.Finder.Find(r.Context(), in.Domain)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.FindOutput{}, nil
	}
	return domain.FindOutput{Found: true, Result: &res}, nil
}

// swagger:route POST /codes/extract Codes codesExtract
// @Summary Run the code rules over a message body
// @Tags Codes
// @Accept json
// @Produce json
// @Param payload body domain.ExtractInput true "Extract"
// @Success 200 {object} domain.ExtractOutput "ok"
// @Router /codes/extract [post]
func (h *handlers) extract(_ *stdhttp.Request, in domain.ExtractInput) (any, error) {
	body := normalize.Body(in.Body)
	out := domain.ExtractOutput{}
	if c, ok := h.deps.Extractor.Extract(body); ok {
		out.Found = true
		out.Candidate = &c
	}
	if in.All {
		out.All = h.deps.Extractor.All(body)
	}
	return out, nil
}
