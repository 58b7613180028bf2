// Package client is the Go data layer for the tree-survey API. Reads go
// through a key-addressed response cache; mutations invalidate the keys
// whose data they change.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"treewatch/utils"
)

const sessionCookie = "token"

// Doer sends one HTTP request. *fasthttp.Client satisfies it.
type Doer interface {
	Do(req *fasthttp.Request, resp *fasthttp.Response) error
}

// APIError is a non-2xx response
type APIError struct {
	Status  int
	Message string
	Details []utils.FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err means the caller must sign in again
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusNotFound
}

type Client struct {
	baseURL string
	doer    Doer
	cache   Cache
	logger  *logrus.Entry

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithDoer replaces the default fasthttp client
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithCache replaces the default in-memory cache
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithToken starts the client with an existing session token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer: &fasthttp.Client{
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		cache:  NewMemoryCache(0),
		logger: logrus.WithField("component", "client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token, empty when signed out
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

type response struct {
	status   int
	body     []byte
	token    string
	hasToken bool
}

func (c *Client) send(ctx context.Context, r request) (*response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req.SetRequestURI(target)
	req.Header.SetMethod(r.method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if token := c.Token(); token != "" {
		req.Header.SetCookie(sessionCookie, token)
	}
	if r.body != nil {
		req.Header.SetContentType(r.contentType)
		req.SetBody(r.body)
	}

	if err := c.doer.Do(req, resp); err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}

	out := &response{
		status: resp.StatusCode(),
		body:   append([]byte(nil), resp.Body()...),
	}
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(sessionCookie)
	if resp.Header.Cookie(cookie) {
		out.token = string(cookie.Value())
		out.hasToken = true
	}

	if out.status < 200 || out.status >= 400 {
		return nil, decodeError(out.status, out.body)
	}
	return out, nil
}

func decodeError(status int, body []byte) error {
	var payload struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = fasthttp.StatusMessage(status)
		}
		return apiErr
	}

	apiErr.Message = payload.Error
	if apiErr.Message == "" {
		apiErr.Message = payload.Message
	}
	if len(payload.Details) > 0 {
		// details is either a field list or a plain message
		_ = json.Unmarshal(payload.Details, &apiErr.Details)
	}
	return apiErr
}

// get reads through the cache
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	key := CacheKey(path, query)
	if raw, ok := c.cache.Get(ctx, key); ok {
		if err := json.Unmarshal(raw, out); err == nil {
			return nil
		}
		c.logger.WithField("key", key).Warn("Dropping undecodable cache entry")
		c.cache.InvalidatePrefix(ctx, key)
	}

	resp, err := c.send(ctx, request{method: fasthttp.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	c.cache.Set(ctx, key, resp.body)
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out interface{}) (*response, error) {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return nil, err
		}
	}
	resp, err := c.send(ctx, request{method: method, path: path, body: body, contentType: "application/json"})
	if err != nil {
		return nil, err
	}
	if out != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp, nil
}

func (c *Client) invalidate(ctx context.Context, prefixes ...string) {
	for _, p := range prefixes {
		c.cache.InvalidatePrefix(ctx, p)
	}
}

func jsonUnmarshal(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
