package client

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/devilmonastery/clubhouse/internal/pkg/idgen"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
)

// attempt travels with one dispatch of a request.
type attempt struct {
	retries int
	// token overrides the store's credential on resubmission
	token string
	// sentWith is filled in by the dispatcher
	sentWith string
	// release tells the gateway's drain this resubmission has been dispatched
	release func()
}

func (a *attempt) dispatched() {
	if a.release != nil {
		a.release()
	}
}

type attemptKey struct{}

func withAttempt(ctx context.Context, a *attempt) context.Context {
	return context.WithValue(ctx, attemptKey{}, a)
}

func attemptFrom(ctx context.Context) *attempt {
	a, _ := ctx.Value(attemptKey{}).(*attempt)
	return a
}

// attachCredential is the request dispatcher: it sets the bearer header from the
// attempt's override or the session store, and tags the request with an ID.
func (c *Client) attachCredential(_ *resty.Client, r *resty.Request) error {
	at := attemptFrom(r.Context())

	var token string
	if at != nil && at.token != "" {
		token = at.token
	} else if c.store != nil {
		token, _ = c.store.Token()
	}

	if token != "" {
		cred := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
		r.SetHeader("Authorization", cred.Type()+" "+cred.AccessToken)
	}

	requestID := idgen.RequestID()
	r.SetHeader("X-Request-ID", requestID)

	if at != nil {
		at.sentWith = token
		if at.retries > 0 {
			c.log.Debug("resubmitting request with refreshed token",
				slog.String("request_id", requestID),
				slog.String("token_prefix", logger.TokenPrefix(token)))
		}
		at.dispatched()
	}
	return nil
}
