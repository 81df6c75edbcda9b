package httpkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	phttp "codefill/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type hintIn struct {
	Domain string `json:"domain" validate:"omitempty,hostname_rfc1123"`
}

func apiMux(t *testing.T) http.Handler {
	t.Helper()
	mux := chi.NewRouter()
	tagged := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Module", "codes")
			next.ServeHTTP(w, r)
		})
	}
	MountAPIV1(phttp.AdaptChi(mux), nil, func(api Router) {
		MountUnder(api, "/codes", []func(http.Handler) http.Handler{tagged}, func(r Router) {
			PostJSON(r, "/find", func(_ *http.Request, in hintIn) (any, error) {
				return map[string]string{"hint": in.Domain}, nil
			})
			Post(r, "/noop", func(*http.Request) (any, error) { return NoContent(), nil })
		})
		Get(api, "/meta/health", func(*http.Request) (any, error) { return OK("ok"), nil })
	})
	return mux
}

func call(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMountAPIV1(t *testing.T) {
	h := apiMux(t)

	rr := call(h, http.MethodPost, "/api/v1/codes/find", `{"domain":"acme.test"}`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"hint":"acme.test"`) {
		t.Fatalf("find: %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Module") != "codes" {
		t.Fatalf("module middleware not applied")
	}
	if rr := call(h, http.MethodPost, "/api/v1/codes/find", `{"domain":"bad host"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid hint: %d", rr.Code)
	}
	if rr := call(h, http.MethodPost, "/api/v1/codes/noop", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("noop: %d", rr.Code)
	}

	rr = call(h, http.MethodGet, "/api/v1/meta/health", "")
	if rr.Code != http.StatusOK || rr.Header().Get("X-Module") != "" {
		t.Fatalf("health: %d %v", rr.Code, rr.Header())
	}
	if rr := call(h, http.MethodGet, "/codes/find", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unversioned path served: %d", rr.Code)
	}
}

func TestErrorResponse(t *testing.T) {
	mux := chi.NewRouter()
	Get(phttp.AdaptChi(mux), "/x", func(*http.Request) (any, error) {
		return Error(http.ErrNoCookie), nil
	})
	if rr := call(mux, http.MethodGet, "/x", ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rr.Code)
	}
}
