package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "codefill/internal/platform/errors"
)

type hintIn struct {
	Domain string `json:"domain" validate:"required,hostname_rfc1123"`
}

func do(h Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestJSONHandler(t *testing.T) {
	var got string
	h := JSONHandler(func(_ *http.Request, in hintIn) (any, error) {
		got = in.Domain
		return map[string]string{"code": "482913"}, nil
	})

	rr := do(h, `{"domain":"acme.test"}`)
	if rr.Code != http.StatusOK || got != "acme.test" || !strings.Contains(rr.Body.String(), `"code":"482913"`) {
		t.Fatalf("code=%d got=%q body=%s", rr.Code, got, rr.Body.String())
	}

	got = ""
	if rr := do(h, `{`); rr.Code != http.StatusBadRequest || got != "" {
		t.Fatalf("bad JSON: code=%d called=%v", rr.Code, got != "")
	}
	if rr := do(h, `{"domain":"no spaces allowed"}`); rr.Code != http.StatusBadRequest || got != "" {
		t.Fatalf("invalid hint: code=%d called=%v", rr.Code, got != "")
	}
}

func TestJSONHandler_ErrorsAndResponses(t *testing.T) {
	h := JSONHandler(func(_ *http.Request, _ hintIn) (any, error) {
		return nil, perr.ErrNotAuthenticated
	})
	if rr := do(h, `{"domain":"acme.test"}`); rr.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rr.Code)
	}

	h = JSONHandler(func(_ *http.Request, _ hintIn) (any, error) {
		return NoContent(), nil
	})
	if rr := do(h, `{"domain":"acme.test"}`); rr.Code != http.StatusNoContent {
		t.Fatalf("code = %d", rr.Code)
	}
}

func TestCallHandler(t *testing.T) {
	ok := CallHandler(func(*http.Request) (any, error) { return map[string]bool{"authenticated": true}, nil })
	if rr := do(ok, ""); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "authenticated") {
		t.Fatalf("code=%d body=%s", rr.Code, rr.Body.String())
	}
	fail := CallHandler(func(*http.Request) (any, error) { return nil, errors.New("boom") })
	if rr := do(fail, ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rr.Code)
	}
}
