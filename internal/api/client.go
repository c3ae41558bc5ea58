// Package api is the pulpe REST API client. It implements the gateway the
// mutation coordinator persists changes through.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/h0rv/pulp/internal/optimistic"
)

// ErrNotFound matches a *StatusError with status 404.
var ErrNotFound = errors.New("not found")

// maxErrorBody caps how much of a failed response is kept.
const maxErrorBody = 64 << 10

var _ optimistic.Gateway = (*Client)(nil)

// StatusError is returned for every non-2xx response.
type StatusError struct {
	StatusCode int
	// Message is the "err" field of the JSON error body, if any.
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(string(e.Body))
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, msg)
}

// Is reports whether target is ErrNotFound and the status is 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type errorBody struct {
	Err string `json:"err"`
}

// Client talks to a pulpe server.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
	log     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:4000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// endpoint builds the URL of /api/<segments...>. Segments are escaped.
func (c *Client) endpoint(segments ...string) string {
	elems := make([]string, 0, len(segments)+1)
	elems = append(elems, "api")
	for _, s := range segments {
		elems = append(elems, url.PathEscape(s))
	}
	return c.baseURL.JoinPath(elems...).String()
}

// do sends a JSON request and decodes the JSON response into out.
// in and out may be nil.
func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := sonic.ConfigStd.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, req.URL.Path, err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &StatusError{StatusCode: resp.StatusCode, Body: b}

	var eb errorBody
	if len(b) > 0 && sonic.ConfigStd.Unmarshal(b, &eb) == nil {
		se.Message = eb.Err
	}
	return se
}
