package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "codefill/internal/platform/net/http"
	"codefill/internal/platform/net/middleware"

	"github.com/go-chi/chi/v5"
)

func protectedMux(p middleware.AuthPort) http.Handler {
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	Protected(r, p, func(gr Router) {
		Get(gr, "/secret", func(r *http.Request) (any, error) {
			cid, err := Client(r)
			return map[string]string{"client": cid}, err
		})
	})
	Get(r, "/open", func(*http.Request) (any, error) { return "ok", nil })
	return mux
}

func status(h http.Handler, path, authz string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestProtected_RequiresToken(t *testing.T) {
	t.Parallel()
	h := protectedMux(NewSecretPort("s3cret", "extension"))

	if got := status(h, "/secret", ""); got != http.StatusUnauthorized {
		t.Fatalf("no token: %d", got)
	}
	if got := status(h, "/secret", "Bearer nope"); got != http.StatusUnauthorized {
		t.Fatalf("wrong token: %d", got)
	}
	if got := status(h, "/secret", "bearer  s3cret "); got != http.StatusOK {
		t.Fatalf("good token: %d", got)
	}
	if got := status(h, "/open", ""); got != http.StatusOK {
		t.Fatalf("open route: %d", got)
	}
}

func TestProtected_NilPortLeavesRoutesOpen(t *testing.T) {
	t.Parallel()
	if NewSecretPort("", "extension") != nil {
		t.Fatalf("empty secret should give a nil port")
	}
	h := protectedMux(nil)
	// no client on the context, so the handler reports unauthorized itself
	if got := status(h, "/secret", ""); got != http.StatusUnauthorized {
		t.Fatalf("open secret route: %d", got)
	}
	if got := status(h, "/open", ""); got != http.StatusOK {
		t.Fatalf("open route: %d", got)
	}
}
