package httpkit

import (
	"errors"
	"net/http"
	"testing"

	perrs "codefill/internal/platform/errors"
)

func reqWith(authz string) *http.Request {
	r := newReq()
	if authz != "" {
		r.Header.Set("Authorization", authz)
	}
	return r
}

func TestPort_Parse(t *testing.T) {
	p := NewPortFunc(func(tok string) (string, error) {
		if tok != "good" {
			return "", errors.New("bad")
		}
		return "cli", nil
	})

	if _, err := p.Parse(reqWith("")); !perrs.IsCode(err, perrs.ErrorCodeUnauthorized) {
		t.Fatalf("missing header err = %v", err)
	}
	if _, err := p.Parse(reqWith("Bearer bad")); !perrs.IsCode(err, perrs.ErrorCodeUnauthorized) {
		t.Fatalf("bad token err = %v", err)
	}
	got, err := p.Parse(reqWith("Bearer good"))
	if err != nil || got != "cli" {
		t.Fatalf("Parse = %q, %v", got, err)
	}
}

func TestPort_Parse_NilParser(t *testing.T) {
	p := NewPortFunc(nil)
	if _, err := p.Parse(reqWith("Bearer x")); err == nil {
		t.Fatalf("expected error with nil parser")
	}
}

func TestSecretPort(t *testing.T) {
	p := NewSecretPort("s3cret", "extension")
	if got, err := p.Parse(reqWith("Bearer s3cret")); err != nil || got != "extension" {
		t.Fatalf("Parse = %q, %v", got, err)
	}
	if _, err := p.Parse(reqWith("Bearer s3cre")); err == nil {
		t.Fatalf("prefix of the secret accepted")
	}
}
