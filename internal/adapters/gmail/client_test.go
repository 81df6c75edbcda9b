package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "codefill/internal/platform/errors"
	kit "codefill/internal/platform/testkit"
)

func b64(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

type fakeGmail struct {
	listStatus int
	listBody   string
	getStatus  int
	getBody    any
	gotQuery   string
	gets       int
}

func (f *fakeGmail) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		f.gotQuery = r.URL.Query().Get("q")
		if r.URL.Query().Get("maxResults") != "1" {
			t.Errorf("maxResults = %q", r.URL.Query().Get("maxResults"))
		}
		w.Header().Set("Content-Type", "application/json")
		if f.listStatus != 0 {
			w.WriteHeader(f.listStatus)
		}
		_, _ = w.Write([]byte(f.listBody))
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.gets++
		if got := r.URL.Query().Get("format"); got != "full" {
			t.Errorf("format = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if f.getStatus != 0 {
			w.WriteHeader(f.getStatus)
		}
		_ = json.NewEncoder(w).Encode(f.getBody)
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeGmail, o Options) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	o.Endpoint = srv.URL + "/"
	c, err := NewClient(context.Background(), srv.Client(), o)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func apiError(code int, reason string) string {
	return fmt.Sprintf(`{"error":{"code":%d,"message":"nope","errors":[{"reason":%q}]}}`, code, reason)
}

func TestLatest_MultipartPlainParts(t *testing.T) {
	f := &fakeGmail{
		listBody: `{"messages":[{"id":"m2"},{"id":"m1"}]}`,
		getBody: map[string]any{
			"id":           "m2",
			"internalDate": "1772323200000",
			"payload": map[string]any{
				"mimeType": "multipart/mixed",
				"headers": []map[string]string{
					{"name": "From", "value": "Acme <no-reply@acme.test>"},
					{"name": "subject", "value": "Your verification code"},
				},
				"parts": []map[string]any{
					{
						"mimeType": "multipart/alternative",
						"parts": []map[string]any{
							{"partId": "0.0", "mimeType": "text/plain; charset=UTF-8", "body": map[string]any{"data": b64("Your code is 482913.\n")}},
							{"partId": "0.1", "mimeType": "text/html", "body": map[string]any{"data": b64("<p>Your code is <b>482913</b></p>")}},
						},
					},
					{"partId": "1", "mimeType": "text/plain", "body": map[string]any{"data": b64("Footer")}},
				},
			},
		},
	}
	c := newTestClient(t, f, Options{})

	m, ok, err := c.Latest(context.Background(), "from:(acme.test) newer_than:10m")
	if err != nil || !ok {
		t.Fatalf("Latest = ok %v err %v", ok, err)
	}
	if f.gotQuery != "from:(acme.test) newer_than:10m" {
		t.Fatalf("query = %q", f.gotQuery)
	}
	if m.ID != "m2" || m.Subject != "Your verification code" || !strings.Contains(m.From, "acme.test") {
		t.Fatalf("headers = %+v", m)
	}
	if m.Received.IsZero() || m.Received.Year() != 2026 {
		t.Fatalf("received = %v", m.Received)
	}
	if len(m.Bodies) != 2 || m.Bodies[0] != "Your code is 482913.\n" || m.Bodies[1] != "Footer" {
		t.Fatalf("bodies = %q", m.Bodies)
	}
}

func TestLatest_NoMessages(t *testing.T) {
	f := &fakeGmail{listBody: `{"resultSizeEstimate":0}`}
	c := newTestClient(t, f, Options{})

	_, ok, err := c.Latest(context.Background(), "q")
	if err != nil || ok {
		t.Fatalf("Latest = ok %v err %v", ok, err)
	}
	if f.gets != 0 {
		t.Fatalf("fetched a message with an empty listing")
	}
}

func TestLatest_SinglePartPlainText(t *testing.T) {
	f := &fakeGmail{
		listBody: `{"messages":[{"id":"x"}]}`,
		getBody: map[string]any{"id": "x", "payload": map[string]any{
			"mimeType": "text/plain; charset=UTF-8",
			"body":     map[string]any{"data": b64("Code: 1234")},
		}},
	}
	c := newTestClient(t, f, Options{})

	m, ok, err := c.Latest(context.Background(), "q")
	if err != nil || !ok || len(m.Bodies) != 1 || m.Bodies[0] != "Code: 1234" {
		t.Fatalf("Latest = %+v ok %v err %v", m, ok, err)
	}
}

func TestLatest_SinglePartHTMLFollowsFallback(t *testing.T) {
	body := map[string]any{"id": "x", "payload": map[string]any{
		"mimeType": "text/html",
		"body": map[string]any{"data": b64(
			`<html><head><style>p{color:#333333}</style></head><body><p style="color:#333333">Code: 1234</p></body></html>`)},
	}}

	off := newTestClient(t, &fakeGmail{listBody: `{"messages":[{"id":"x"}]}`, getBody: body}, Options{})
	m, ok, err := off.Latest(context.Background(), "q")
	if err != nil || !ok || len(m.Bodies) != 0 {
		t.Fatalf("fallback off = %q ok %v err %v", m.Bodies, ok, err)
	}

	on := newTestClient(t, &fakeGmail{listBody: `{"messages":[{"id":"x"}]}`, getBody: body}, Options{HTMLFallback: true})
	m, ok, err = on.Latest(context.Background(), "q")
	if err != nil || !ok || len(m.Bodies) != 1 {
		t.Fatalf("fallback on = %q ok %v err %v", m.Bodies, ok, err)
	}
	kit.MustContain(t, m.Bodies[0], "Code: 1234")
	if strings.Contains(m.Bodies[0], "333333") {
		t.Fatalf("markup leaked into the body: %q", m.Bodies[0])
	}
}

func TestLatest_HTMLFallback(t *testing.T) {
	body := map[string]any{"id": "h", "payload": map[string]any{
		"mimeType": "multipart/alternative",
		"parts": []map[string]any{
			{"mimeType": "text/html", "body": map[string]any{"data": b64(
				"<html><head><style>p{}</style></head><body><p>Security code</p><p>774411</p><script>var x=1</script></body></html>")}},
		},
	}}

	off := newTestClient(t, &fakeGmail{listBody: `{"messages":[{"id":"h"}]}`, getBody: body}, Options{})
	m, ok, err := off.Latest(context.Background(), "q")
	if err != nil || !ok || len(m.Bodies) != 0 {
		t.Fatalf("fallback off = %q ok %v err %v", m.Bodies, ok, err)
	}

	on := newTestClient(t, &fakeGmail{listBody: `{"messages":[{"id":"h"}]}`, getBody: body}, Options{HTMLFallback: true})
	m, ok, err = on.Latest(context.Background(), "q")
	if err != nil || !ok || len(m.Bodies) != 1 {
		t.Fatalf("fallback on = %q ok %v err %v", m.Bodies, ok, err)
	}
	kit.MustContain(t, m.Bodies[0], "Security code")
	kit.MustContain(t, m.Bodies[0], "774411\n")
	if strings.Contains(m.Bodies[0], "var x") || strings.Contains(m.Bodies[0], "p{}") {
		t.Fatalf("script or style leaked: %q", m.Bodies[0])
	}
}

func TestLatest_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		reason string
		want   perr.ErrorCode
	}{
		{"unauthorized", http.StatusUnauthorized, "authError", perr.ErrorCodeUnauthorized},
		{"rate limited", http.StatusTooManyRequests, "rateLimitExceeded", perr.ErrorCodeTooManyRequests},
		{"quota 403", http.StatusForbidden, "userRateLimitExceeded", perr.ErrorCodeTooManyRequests},
		{"scope 403", http.StatusForbidden, "insufficientPermissions", perr.ErrorCodeForbidden},
		{"server", http.StatusInternalServerError, "backendError", perr.ErrorCodeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeGmail{listStatus: tc.status, listBody: apiError(tc.status, tc.reason)}
			c := newTestClient(t, f, Options{})
			_, ok, err := c.Latest(context.Background(), "q")
			if ok || perr.CodeOf(err) != tc.want {
				t.Fatalf("code = %v ok %v err %v, want %v", perr.CodeOf(err), ok, err, tc.want)
			}
		})
	}
}

func TestLatest_MessageGoneIsNoMatch(t *testing.T) {
	f := &fakeGmail{
		listBody:  `{"messages":[{"id":"gone"}]}`,
		getStatus: http.StatusNotFound,
		getBody:   map[string]any{"error": map[string]any{"code": 404, "message": "Requested entity was not found."}},
	}
	c := newTestClient(t, f, Options{})
	_, ok, err := c.Latest(context.Background(), "q")
	if err != nil || ok {
		t.Fatalf("Latest = ok %v err %v", ok, err)
	}
}

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestLatest_TokenMissingIsNotAuthenticated(t *testing.T) {
	hc := &http.Client{Transport: rtFunc(func(*http.Request) (*http.Response, error) {
		return nil, perr.ErrNotAuthenticated
	})}
	c, err := NewClient(context.Background(), hc, Options{Endpoint: "http://127.0.0.1:1/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, _, err = c.Latest(context.Background(), "q")
	if !perr.NotAuthenticated(err) {
		t.Fatalf("err = %v, want not authenticated", err)
	}
}

func TestDecodeData_PaddedAndRaw(t *testing.T) {
	for _, in := range []string{"Y29kZSAxMjM0", "Y29kZSAxMjM0NQ==", "Y29kZSAxMjM0NQ"} {
		if _, err := decodeData(in); err != nil {
			t.Fatalf("decodeData(%q): %v", in, err)
		}
	}
	if _, err := decodeData("!!"); err == nil {
		t.Fatalf("decodeData accepted garbage")
	}
}
