package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codefill/internal/platform/config"
	perr "codefill/internal/platform/errors"
	phttp "codefill/internal/platform/net/http"

	"codefill/internal/modkit/module"
	authmod "codefill/internal/services/auth/module"
	mdomain "codefill/internal/services/mailbox/domain"
	mailboxmod "codefill/internal/services/mailbox/module"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

type stubProvider struct{ token *oauth2.Token }

func (p *stubProvider) Token(context.Context) (*oauth2.Token, error) {
	if p.token == nil {
		return nil, perr.ErrNotAuthenticated
	}
	return p.token, nil
}

func (p *stubProvider) Begin() (string, string) { return "https://consent.test/?state=s1", "s1" }

func (p *stubProvider) Wait(context.Context, string) (*oauth2.Token, error) {
	return nil, perr.AuthFailedf("not in tests")
}

func (p *stubProvider) Complete(_ context.Context, _, code string) (*oauth2.Token, error) {
	p.token = &oauth2.Token{AccessToken: "at-" + code}
	return p.token, nil
}

func (p *stubProvider) Fail(string, string) error { return perr.AuthFailedf("sign-in refused") }

func (p *stubProvider) SignOut() error {
	p.token = nil
	return nil
}

type stubSource struct{ body string }

func (s stubSource) Latest(context.Context, string) (mdomain.Message, bool, error) {
	return mdomain.Message{ID: "m1", Subject: "Your code", Received: time.Now(), Bodies: []string{s.body}}, true, nil
}

func mount(t *testing.T, p *stubProvider) http.Handler {
	t.Helper()
	module.Reset()
	t.Cleanup(module.Reset)

	mux := chi.NewRouter()
	auth, _ := Mount(phttp.AdaptChi(mux), Options{
		Config:  config.New(),
		Auth:    &authmod.Inputs{Provider: p},
		Mailbox: &mailboxmod.Inputs{Source: stubSource{body: "Your verification code is 482913. It expires soon."}},
	})
	module.MustPortsOf[authmod.Ports](auth).Auth.Check(context.Background())
	return mux
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env struct {
		Data map[string]any `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env.Data
}

func TestMount_SignedOutFlow(t *testing.T) {
	p := &stubProvider{}
	h := mount(t, p)

	if code, data := call(t, h, http.MethodGet, "/api/v1/auth/status", ""); code != http.StatusOK || data["authenticated"] != false {
		t.Fatalf("status %d %v", code, data)
	}
	if code, _ := call(t, h, http.MethodPost, "/api/v1/codes/find", `{"domain":"acme.test"}`); code != http.StatusUnauthorized {
		t.Fatalf("find while signed out = %d", code)
	}

	code, data := call(t, h, http.MethodPost, "/api/v1/auth", "")
	if code != http.StatusOK || data["state"] != "s1" {
		t.Fatalf("begin %d %v", code, data)
	}
	if code, _ := call(t, h, http.MethodGet, "/api/v1/auth/callback?state=s1&code=xyz", ""); code != http.StatusOK {
		t.Fatalf("callback = %d", code)
	}

	code, data = call(t, h, http.MethodPost, "/api/v1/codes/find", `{"domain":"acme.test"}`)
	if code != http.StatusOK || data["found"] != true {
		t.Fatalf("find %d %v", code, data)
	}
	res, _ := data["result"].(map[string]any)
	if res["code"] != "482913" {
		t.Fatalf("result = %v", res)
	}
}

func TestMount_MetaAndFields(t *testing.T) {
	h := mount(t, &stubProvider{token: &oauth2.Token{AccessToken: "at"}})

	if code, data := call(t, h, http.MethodGet, "/api/v1/meta/ready", ""); code != http.StatusOK || data["status"] != "ok" {
		t.Fatalf("ready %d %v", code, data)
	}
	code, data := call(t, h, http.MethodPost, "/api/v1/fields/classify",
		`{"fields":[{"tag":"input","type":"text","autocomplete":"one-time-code"}]}`)
	if code != http.StatusOK || data["matches"] != float64(1) {
		t.Fatalf("classify %d %v", code, data)
	}
	if code, _ := call(t, h, http.MethodPost, "/api/v1/auth/signout", ""); code != http.StatusOK {
		t.Fatalf("signout = %d", code)
	}
	if _, data := call(t, h, http.MethodGet, "/api/v1/meta/ready", ""); data["status"] != "degraded" {
		t.Fatalf("ready after signout %v", data)
	}
}

func TestMount_APITokenGuardsAllButCallback(t *testing.T) {
	t.Setenv("CODEFILL_API_TOKEN", "s3cret")
	h := mount(t, &stubProvider{})

	if code, _ := call(t, h, http.MethodGet, "/api/v1/auth/status", ""); code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", code)
	}
	if code, _ := call(t, h, http.MethodPost, "/api/v1/fields/classify", `{"fields":[{"type":"text"}]}`); code != http.StatusUnauthorized {
		t.Fatalf("classify without token = %d", code)
	}
	if code, _ := call(t, h, http.MethodGet, "/api/v1/auth/callback?state=s1&code=xyz", ""); code != http.StatusOK {
		t.Fatalf("callback = %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"authenticated":true`) {
		t.Fatalf("status with token = %d %s", rec.Code, rec.Body.String())
	}
}
