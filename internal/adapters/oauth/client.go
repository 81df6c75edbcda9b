// Package oauth signs the user in to Google with the OAuth2 authorization code flow
//
// The client keeps at most one token. Refreshed tokens are written back to the store so a
// restart picks up where the last run left off
package oauth

import (
	"context"
	"net/http"
	"sync"
	"time"

	perr "codefill/internal/platform/errors"
	"codefill/internal/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

// pendingTTL bounds how long an unanswered sign-in stays claimable
const pendingTTL = 10 * time.Minute

// Options configures the Client
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Endpoint defaults to Google; tests point it at httptest
	Endpoint oauth2.Endpoint

	// HTTP is used for token exchange and refresh
	HTTP *http.Client
}

type result struct {
	tok *oauth2.Token
	err error
}

type pending struct {
	verifier string
	created  time.Time
	claimed  bool
	done     chan result
}

// Client runs sign-in flows and serves the current token
type Client struct {
	cfg   *oauth2.Config
	store *FileStore
	base  context.Context
	log   logger.Logger
	now   func() time.Time

	mu      sync.Mutex
	src     oauth2.TokenSource
	pending map[string]*pending
}

// NewClient builds a client; the stored token, if any, is picked up lazily
func NewClient(o Options, store *FileStore) *Client {
	if len(o.Scopes) == 0 {
		o.Scopes = []string{gmailapi.GmailReadonlyScope}
	}
	if o.Endpoint.TokenURL == "" {
		o.Endpoint = google.Endpoint
	}
	if store == nil {
		store = NewFileStore("")
	}
	base := context.Background()
	if o.HTTP != nil {
		base = context.WithValue(base, oauth2.HTTPClient, o.HTTP)
	}
	return &Client{
		cfg: &oauth2.Config{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			RedirectURL:  o.RedirectURL,
			Scopes:       o.Scopes,
			Endpoint:     o.Endpoint,
		},
		store:   store,
		base:    base,
		log:     *logger.Named("oauth"),
		now:     time.Now,
		pending: make(map[string]*pending),
	}
}

// Token returns a valid token without user interaction
// It refreshes when needed and fails with an Unauthorized error when no usable token exists
func (c *Client) Token(_ context.Context) (*oauth2.Token, error) {
	src, err := c.source()
	if err != nil {
		return nil, err
	}
	tok, err := src.Token()
	if err != nil {
		c.log.Debug().Err(err).Msg("token refresh failed")
		c.drop()
		return nil, perr.Wrap(err, perr.ErrorCodeUnauthorized, "Not authenticated")
	}
	return tok, nil
}

// Begin starts an interactive sign-in and returns the consent URL and its state
func (c *Client) Begin() (authURL, state string) {
	state = uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	c.mu.Lock()
	c.expire()
	c.pending[state] = &pending{verifier: verifier, created: c.now(), done: make(chan result, 1)}
	c.mu.Unlock()

	authURL = c.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)
	c.log.Debug().Str("state", state).Msg("sign-in started")
	return authURL, state
}

// Wait blocks until the sign-in for state completes or ctx ends
func (c *Client) Wait(ctx context.Context, state string) (*oauth2.Token, error) {
	c.mu.Lock()
	p, ok := c.pending[state]
	c.mu.Unlock()
	if !ok {
		return nil, perr.InvalidArgf("unknown sign-in state")
	}
	defer func() {
		c.mu.Lock()
		delete(c.pending, state)
		c.mu.Unlock()
	}()
	select {
	case r := <-p.done:
		return r.tok, r.err
	case <-ctx.Done():
		return nil, perr.Wrap(ctx.Err(), perr.ErrorCodeAuthFailed, "sign-in not completed")
	}
}

// Complete exchanges the authorization code for state and stores the token
// The outcome is also handed to Wait, whether it is already waiting or arrives later
func (c *Client) Complete(ctx context.Context, state, code string) (*oauth2.Token, error) {
	p, err := c.claim(state)
	if err != nil {
		return nil, err
	}

	tok, err := c.exchange(ctx, p, code)
	p.done <- result{tok: tok, err: err}
	return tok, err
}

// Fail ends the sign-in for state with the provider's error, e.g. access_denied
func (c *Client) Fail(state, reason string) error {
	p, err := c.claim(state)
	if err != nil {
		return err
	}
	err = perr.AuthFailedf("sign-in refused: %s", reason)
	p.done <- result{err: err}
	return err
}

// SignOut forgets the token in memory and on disk
func (c *Client) SignOut() error {
	c.drop()
	return c.store.Clear()
}

// TokenSource follows the client's current token across sign-in and sign-out
func (c *Client) TokenSource() oauth2.TokenSource { return liveSource{c: c} }

// HTTPClient returns a client that authorizes every request with the current token
func (c *Client) HTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: c.TokenSource(), Base: base.Transport},
		Timeout:   base.Timeout,
	}
}

// claim marks a sign-in as answered so a replayed callback cannot answer it twice
func (c *Client) claim(state string) (*pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[state]
	if !ok || p.claimed {
		return nil, perr.InvalidArgf("unknown sign-in state")
	}
	p.claimed = true
	return p, nil
}

func (c *Client) exchange(ctx context.Context, p *pending, code string) (*oauth2.Token, error) {
	if v, ok := c.base.Value(oauth2.HTTPClient).(*http.Client); ok {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, v)
	}
	tok, err := c.cfg.Exchange(ctx, code, oauth2.VerifierOption(p.verifier))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeAuthFailed, "code exchange failed")
	}
	if err := c.store.Save(tok); err != nil {
		c.log.Warn().Err(err).Msg("token not persisted")
	}
	c.mu.Lock()
	c.src = c.wrap(tok)
	c.mu.Unlock()
	c.log.Info().Time("expiry", tok.Expiry).Msg("signed in")
	return tok, nil
}

// source returns the live token source, loading the stored token on first use
func (c *Client) source() (oauth2.TokenSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src != nil {
		return c.src, nil
	}
	tok, err := c.store.Load()
	if err != nil {
		c.log.Warn().Err(err).Msg("stored token unreadable")
		return nil, perr.Wrap(err, perr.ErrorCodeUnauthorized, "Not authenticated")
	}
	if tok == nil {
		return nil, perr.ErrNotAuthenticated
	}
	c.src = c.wrap(tok)
	return c.src, nil
}

func (c *Client) wrap(tok *oauth2.Token) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(tok, &savingSource{
		inner: c.cfg.TokenSource(c.base, tok),
		store: c.store,
		last:  tok.AccessToken,
		log:   c.log,
	})
}

func (c *Client) drop() {
	c.mu.Lock()
	c.src = nil
	c.mu.Unlock()
}

// expire drops sign-ins nobody completed; call with mu held
func (c *Client) expire() {
	cutoff := c.now().Add(-pendingTTL)
	for k, p := range c.pending {
		if p.created.Before(cutoff) {
			delete(c.pending, k)
		}
	}
}

// savingSource writes refreshed tokens back to the store
type savingSource struct {
	inner oauth2.TokenSource
	store *FileStore
	log   logger.Logger

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.inner.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(tok); err != nil {
			s.log.Warn().Err(err).Msg("refreshed token not persisted")
		}
	}
	return tok, nil
}

type liveSource struct{ c *Client }

func (l liveSource) Token() (*oauth2.Token, error) { return l.c.Token(context.Background()) }
