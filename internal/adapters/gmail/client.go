// Package gmail reads the most recent matching message from a linked Gmail mailbox
package gmail

import (
	"context"
	"errors"
	"net/http"
	"time"

	perr "codefill/internal/platform/errors"
	"codefill/internal/platform/logger"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	defaultUser    = "me"
	defaultTimeout = 15 * time.Second
	defaultUA      = "codefill"
)

// Options configures the Client
type Options struct {
	// User is the mailbox owner; "me" is the signed in account
	User      string
	Timeout   time.Duration
	UserAgent string

	// Endpoint overrides the API base URL, tests point it at httptest
	Endpoint string

	// HTMLFallback reads text/html parts when a message has no text/plain part
	HTMLFallback bool
}

// Message is the slice of a Gmail message the code search needs
type Message struct {
	ID       string
	From     string
	Subject  string
	Received time.Time
	// Bodies are the decoded text parts in payload order
	Bodies []string
}

// Client wraps the Gmail users.messages API
type Client struct {
	svc  *gmailapi.Service
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient builds a client over hc; hc carries the OAuth2 transport
func NewClient(ctx context.Context, hc *http.Client, o Options) (*Client, error) {
	if o.User == "" {
		o.User = defaultUser
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if hc == nil {
		hc = http.DefaultClient
	}

	copts := []option.ClientOption{
		option.WithHTTPClient(hc),
		option.WithUserAgent(o.UserAgent),
	}
	if o.Endpoint != "" {
		copts = append(copts, option.WithEndpoint(o.Endpoint))
	}
	svc, err := gmailapi.NewService(ctx, copts...)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "gmail service init failed")
	}
	return &Client{svc: svc, opts: o, log: *logger.Named("gmail"), now: time.Now}, nil
}

// Latest returns the newest message matching query
// ok is false when nothing matches or the message vanished between list and get
func (c *Client) Latest(ctx context.Context, query string) (Message, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := c.now()
	list, err := c.svc.Users.Messages.List(c.opts.User).
		Q(query).
		MaxResults(1).
		Fields(googleapi.Field("messages(id)")).
		Context(ctx).
		Do()
	if err != nil {
		return Message{}, false, mapErr(err, "gmail list failed")
	}
	if len(list.Messages) == 0 {
		c.log.Debug().Str("query", query).Dur("latency", c.now().Sub(start)).Msg("gmail no messages")
		return Message{}, false, nil
	}

	id := list.Messages[0].Id
	raw, err := c.svc.Users.Messages.Get(c.opts.User, id).Format("full").Context(ctx).Do()
	if err != nil {
		err = mapErr(err, "gmail get failed")
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			c.log.Debug().Str("id", id).Msg("gmail message gone before fetch")
			return Message{}, false, nil
		}
		return Message{}, false, err
	}

	msg := c.decode(raw)
	c.log.Debug().
		Str("id", msg.ID).
		Str("subject", msg.Subject).
		Int("parts", len(msg.Bodies)).
		Dur("latency", c.now().Sub(start)).
		Msg("gmail message fetched")
	return msg, true, nil
}

// mapErr folds transport and API failures onto the platform codes
func mapErr(err error, msg string) error {
	if perr.NotAuthenticated(err) {
		return perr.Wrap(err, perr.ErrorCodeUnauthorized, msg)
	}
	if errors.Is(err, context.Canceled) {
		return perr.Wrap(err, perr.ErrorCodeCanceled, msg)
	}

	var ge *googleapi.Error
	if errors.As(err, &ge) {
		switch ge.Code {
		case http.StatusUnauthorized:
			return perr.Wrap(err, perr.ErrorCodeUnauthorized, msg)
		case http.StatusTooManyRequests:
			return perr.Wrap(err, perr.ErrorCodeTooManyRequests, msg)
		case http.StatusForbidden:
			if rateLimited(ge) {
				return perr.Wrap(err, perr.ErrorCodeTooManyRequests, msg)
			}
			return perr.Wrap(err, perr.ErrorCodeForbidden, msg)
		case http.StatusNotFound:
			return perr.Wrap(err, perr.ErrorCodeNotFound, msg)
		}
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
}

// rateLimited reports the 403 flavours Gmail uses for quota
func rateLimited(ge *googleapi.Error) bool {
	for _, item := range ge.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
			return true
		}
	}
	return false
}
