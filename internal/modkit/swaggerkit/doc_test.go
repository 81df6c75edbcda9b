package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"codefill/internal/platform/config"
	phttp "codefill/internal/platform/net/http"
)

func TestDocument_GuardsPrivateRoutes(t *testing.T) {
	doc := Document(Ops)
	paths := doc["paths"].(map[string]any)

	find := paths["/codes/find"].(map[string]any)["post"].(map[string]any)
	if _, ok := find["security"]; !ok {
		t.Fatalf("/codes/find should require the local token")
	}
	resp := find["responses"].(map[string]any)
	for _, code := range []string{"200", "400", "401", "default"} {
		if _, ok := resp[code]; !ok {
			t.Fatalf("/codes/find missing %s response", code)
		}
	}

	cb := paths["/auth/callback"].(map[string]any)["get"].(map[string]any)
	if _, ok := cb["security"]; ok {
		t.Fatalf("oauth callback must stay public")
	}
}

func TestMount(t *testing.T) {
	r := phttp.NewServer(config.New()).Router()
	Mount(r, true)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Fatalf("openapi=%v", doc["openapi"])
	}

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("redirect status=%d", rec.Code)
	}
}

func TestMount_Disabled(t *testing.T) {
	r := phttp.NewServer(config.New()).Router()
	Mount(r, false)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}
