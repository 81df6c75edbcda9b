package httpkit

import (
	"codefill/internal/platform/net/middleware"
)

// Protected groups routes behind the bearer check; a nil port leaves them open
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		if p != nil {
			gr.Use(Auth(p))
		}
		fn(gr)
	})
}
