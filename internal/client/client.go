package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/devilmonastery/clubhouse/internal/pkg/idgen"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
	"github.com/devilmonastery/clubhouse/internal/pkg/metrics"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultRefreshPath = "/api/auth/refresh"

	// maxRetries is how many times one request may be resubmitted after a refresh
	maxRetries = 1
)

// Config configures a Client.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RefreshPath    string
	RefreshTimeout time.Duration
	UserAgent      string
	// Transport is the base round tripper; http.DefaultTransport when nil.
	Transport http.RoundTripper
	// OnSessionExpired runs after a failed refresh cleared the credential.
	OnSessionExpired func()
	Logger           *slog.Logger
}

// Request is one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	// Body is sent as JSON when set and Files is empty
	Body any
	// Files makes the request multipart/form-data, with Form as extra fields
	Files []File
	Form  map[string]string
	// SkipRefresh propagates a 401 as-is. Used for calls where 401 means bad
	// user input rather than an expired credential, such as login.
	SkipRefresh bool
}

// File is one multipart file part. Data is held in memory so the request can be resubmitted.
type File struct {
	Param string
	Name  string
	Data  []byte
}

// Response is a successful backend reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Client sends backend requests with the session credential attached and
// recovers from expired credentials through its Gateway.
type Client struct {
	http        *resty.Client
	bare        *resty.Client
	store       TokenStore
	gateway     *Gateway
	baseURL     string
	refreshPath string
	log         *slog.Logger
}

// NewClient creates a backend client.
// If store is nil, requests are sent without credentials and 401s are not recovered.
func NewClient(cfg Config, store TokenStore) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = DefaultRefreshPath
	}

	log := logger.WithComponent(cfg.Logger, "client")
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	transport := metrics.NewBackendTransport(cfg.Transport)

	authed := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetTransport(transport).
		SetLogger(restyLogger{log})

	// The refresh call bypasses the interceptor but shares the cookie jar,
	// which holds the refresh cookie.
	bare := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetTransport(transport).
		SetCookieJar(authed.GetClient().Jar).
		SetLogger(restyLogger{log})

	if cfg.UserAgent != "" {
		authed.SetHeader("User-Agent", cfg.UserAgent)
		bare.SetHeader("User-Agent", cfg.UserAgent)
	}

	c := &Client{
		http:        authed,
		bare:        bare,
		store:       store,
		baseURL:     baseURL,
		refreshPath: cfg.RefreshPath,
		log:         log,
	}
	authed.OnBeforeRequest(c.attachCredential)

	if store != nil {
		c.gateway = NewGateway(store, c.refreshToken, GatewayConfig{
			RefreshTimeout: cfg.RefreshTimeout,
			OnTeardown:     cfg.OnSessionExpired,
			Logger:         cfg.Logger,
		})
	}

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Gateway returns the refresh coordinator, nil for unauthenticated clients.
func (c *Client) Gateway() *Gateway {
	return c.gateway
}

// RefreshCookies returns the cookies that would be sent with a refresh call.
func (c *Client) RefreshCookies() []*http.Cookie {
	u, err := url.Parse(c.baseURL + c.refreshPath)
	if err != nil {
		return nil
	}
	return c.http.GetClient().Jar.Cookies(u)
}

// RestoreRefreshCookies seeds the jar with cookies saved by an earlier process.
func (c *Client) RestoreRefreshCookies(cookies []*http.Cookie) {
	u, err := url.Parse(c.baseURL + c.refreshPath)
	if err != nil || len(cookies) == 0 {
		return
	}
	c.http.GetClient().Jar.SetCookies(u, cookies)
}

// Store returns the credential store (nil for unauthenticated clients)
func (c *Client) Store() TokenStore {
	return c.store
}

// Do sends req. Non-2xx replies are returned as *StatusError, a 401 on the
// first attempt is recovered through the gateway and the request resubmitted once.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.gateway != nil {
		if err := c.gateway.admit(ctx); err != nil {
			return nil, err
		}
	}
	return c.send(ctx, req, &attempt{})
}

func (c *Client) send(ctx context.Context, req *Request, at *attempt) (*Response, error) {
	resp, err := c.execute(ctx, req, at)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.gateway != nil && !req.SkipRefresh && at.retries < maxRetries {
		token, release, err := c.gateway.Recover(ctx, at.sentWith)
		if err != nil {
			return nil, err
		}
		resp, err := c.send(ctx, req, &attempt{retries: at.retries + 1, token: token, release: release})
		metrics.RecordRetry(err)
		return resp, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(req.Method, req.Path, resp.StatusCode, resp.Body)
	}
	return resp, nil
}

func (c *Client) execute(ctx context.Context, req *Request, at *attempt) (*Response, error) {
	// Whatever happens, a queued caller must not hold up the drain.
	defer at.dispatched()

	r := c.http.R().SetContext(withAttempt(ctx, at))
	for key, values := range req.Header {
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	switch {
	case len(req.Files) > 0:
		for _, f := range req.Files {
			r.SetFileReader(f.Param, f.Name, bytes.NewReader(f.Data))
		}
		if len(req.Form) > 0 {
			r.SetFormData(req.Form)
		}
	case req.Body != nil:
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// refreshToken calls the refresh endpoint on the bare client.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	resp, err := c.bare.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", idgen.RequestID()).
		Execute(http.MethodPost, c.refreshPath)
	if err != nil {
		return "", &TransportError{Method: http.MethodPost, Path: c.refreshPath, Err: err}
	}
	if !resp.IsSuccess() {
		return "", newStatusError(http.MethodPost, c.refreshPath, resp.StatusCode(), resp.Body())
	}

	token := gjson.GetBytes(resp.Body(), "token").String()
	if token == "" {
		return "", errors.New("refresh response carried no token")
	}
	return token, nil
}

// restyLogger routes resty's own diagnostics into slog
type restyLogger struct {
	log *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}
