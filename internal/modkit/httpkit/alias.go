// Package httpkit is what API modules mount with
// Modules use it instead of importing internal/platform/net/http directly
package httpkit

import (
	phttp "codefill/internal/platform/net/http"
)

type (
	// Envelope is the response body of every endpoint
	Envelope = phttp.Envelope

	// Response is the return-style handler result
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is a re-export of the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }
