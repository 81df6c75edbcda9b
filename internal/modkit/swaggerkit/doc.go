package swaggerkit

import (
	"encoding/json"
	"net/http"
	"sync"

	"codefill/internal/core/version"
	"codefill/internal/platform/logger"
)

// Op describes one documented route
type Op struct {
	Method  string
	Path    string
	Tag     string
	Summary string
	Body    string // request schema name, empty when the route takes no body
	Public  bool   // served without the local API token
}

// Ops lists the agent's routes under /api/v1
var Ops = []Op{
	{Method: "post", Path: "/codes/find", Tag: "Codes", Summary: "Newest verification code from the linked mailbox", Body: "FindInput"},
	{Method: "post", Path: "/codes/extract", Tag: "Codes", Summary: "Run the code rules over a message body", Body: "ExtractInput"},
	{Method: "post", Path: "/fields/classify", Tag: "Fields", Summary: "Classify input descriptors as one-time-code fields", Body: "ClassifyInput"},
	{Method: "post", Path: "/auth", Tag: "Auth", Summary: "Start a sign-in, or report the existing one"},
	{Method: "get", Path: "/auth/status", Tag: "Auth", Summary: "Report whether a usable token is held"},
	{Method: "get", Path: "/auth/callback", Tag: "Auth", Summary: "OAuth redirect target", Public: true},
	{Method: "post", Path: "/auth/signout", Tag: "Auth", Summary: "Forget the stored token"},
	{Method: "get", Path: "/meta/health", Tag: "Meta", Summary: "Health check", Public: true},
	{Method: "get", Path: "/meta/ready", Tag: "Meta", Summary: "Readiness; degraded until the mailbox is signed in", Public: true},
	{Method: "get", Path: "/meta/version", Tag: "Meta", Summary: "Build and version info", Public: true},
	{Method: "get", Path: "/meta/service", Tag: "Meta", Summary: "Service info, uptime and mounted modules", Public: true},
}

var (
	docOnce  sync.Once
	docBytes []byte
)

// Document builds the OpenAPI 3 document for ops
func Document(ops []Op) map[string]any {
	paths := map[string]any{}
	for _, op := range ops {
		item, _ := paths[op.Path].(map[string]any)
		if item == nil {
			item = map[string]any{}
			paths[op.Path] = item
		}
		item[op.Method] = operation(op)
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "codefill agent API",
			"version": version.Info("codefill-agent").Version,
		},
		"servers": []any{map[string]any{"url": "/api/v1"}},
		"paths":   paths,
		"components": map[string]any{
			"schemas": map[string]any{"ErrorResponse": errorSchema()},
			"securitySchemes": map[string]any{
				"LocalToken": map[string]any{"type": "http", "scheme": "bearer"},
			},
		},
	}
}

func operation(op Op) map[string]any {
	responses := map[string]any{
		"200":     map[string]any{"description": "OK"},
		"default": errorRef("Unexpected error"),
	}
	out := map[string]any{
		"tags":      []string{op.Tag},
		"summary":   op.Summary,
		"responses": responses,
	}
	if op.Body != "" {
		out["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"type": "object", "title": op.Body},
				},
			},
		}
		responses["400"] = errorRef("Bad request")
	}
	if !op.Public {
		out["security"] = []any{map[string]any{"LocalToken": []string{}}}
		responses["401"] = errorRef("Missing or wrong local token")
	}
	return out
}

func errorRef(desc string) map[string]any {
	return map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
			},
		},
	}
}

func errorSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
	}
}

func serveDocJSON() http.HandlerFunc {
	docOnce.Do(func() {
		b, err := json.Marshal(Document(Ops))
		if err != nil {
			logger.Named("swagger").Error().Err(err).Msg("failed to encode api document")
			b = []byte(`{"openapi":"3.0.3","info":{"title":"codefill agent API","version":"0.0.0"},"paths":{}}`)
		}
		docBytes = b
	})
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(docBytes)
	}
}
