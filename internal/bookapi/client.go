package bookapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/credential"
)

// ErrUnauthorized matches any APIError carrying status 401.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the library service.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && IsUnauthorized(e.Status)
}

// IsUnauthorized reports whether status means the credential was rejected.
func IsUnauthorized(status int) bool {
	return status == http.StatusUnauthorized
}

// UnauthorizedHandler performs the side effect of a rejected credential,
// typically dropping the session and routing to the login screen.
type UnauthorizedHandler interface {
	Unauthorized()
}

// UnauthorizedFunc adapts a plain function to UnauthorizedHandler.
type UnauthorizedFunc func()

// Unauthorized calls f.
func (f UnauthorizedFunc) Unauthorized() { f() }

// Client is the single gateway to the library service. Every call carries the
// stored credential and is inspected for 401 responses.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	creds     credential.Store
	log       logrus.FieldLogger

	mu             sync.RWMutex
	onUnauthorized UnauthorizedHandler
}

const (
	DefaultBaseURL   = "http://localhost:8080/api"
	defaultUserAgent = "shelf/0.1"
	requestTimeout   = 30 * time.Second
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithUnauthorizedHandler installs the 401 side effect.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) {
		c.onUnauthorized = h
	}
}

// NewClient builds a Client for baseURL that reads its bearer token from creds.
func NewClient(baseURL string, creds credential.Store, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("credential store is nil")
	}
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
		creds:     creds,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised service address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetUnauthorizedHandler replaces the 401 side effect. It exists so the
// session, which depends on the client, can be wired in after construction.
func (c *Client) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = h
}

// call describes one request.
type call struct {
	method string
	path   string
	query  url.Values
	body   Body
	// public calls skip the bearer header; 401 inspection still applies.
	public bool
}

// Request issues exactly one call to base+path, decoding a JSON response into
// dest when dest is non-nil.
func (c *Client) Request(ctx context.Context, method, path string, body Body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.send(ctx, call{method: method, path: path, body: body}, dest)
}

func (c *Client) send(ctx context.Context, cl call, dest any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if cl.body != nil {
		r, ct, err := cl.body.encode()
		if err != nil {
			return err
		}
		reader, contentType = r, ct
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.endpoint(cl.path, cl.query), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.shapeRequest(req, cl.public)

	log := c.log.WithFields(logrus.Fields{
		"method":     cl.method,
		"path":       cl.path,
		"request_id": req.Header.Get("X-Request-ID"),
	})
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(started).String(),
	}).Debug("request complete")

	if err := c.inspectResponse(cl.path, resp); err != nil {
		return err
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// shapeRequest is the outgoing step: fixed headers plus the bearer token when
// one is stored.
func (c *Client) shapeRequest(req *http.Request, public bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if public {
		return
	}
	if token, ok := c.creds.Get(); ok && strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// inspectResponse is the incoming step. A 401 clears the stored credential and
// fires the handler before the failure is returned to the caller.
func (c *Client) inspectResponse(path string, resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Path:    path,
		Message: readErrorMessage(resp.Body),
	}
	if IsUnauthorized(resp.StatusCode) {
		if err := c.creds.Clear(); err != nil {
			c.log.WithError(err).Error("clear credential after 401")
		}
		c.log.WithField("path", path).Warn("credential rejected, signing out")
		c.mu.RLock()
		handler := c.onUnauthorized
		c.mu.RUnlock()
		if handler != nil {
			handler.Unauthorized()
		}
	}
	return apiErr
}

func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
