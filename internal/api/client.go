// Package api is the HTTP client for the remote job board API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "jobboard-client/1.0"

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// ErrNoToken is returned by calls that need a bearer token when none is held.
var ErrNoToken = errors.New("no auth token found")

// Error represents a failed API call.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.StatusCode != 0 {
		sb.WriteString(fmt.Sprintf(": %d", e.StatusCode))
	}
	if e.Message != "" {
		sb.WriteString(" " + e.Message)
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Client talks to the job board API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    logrus.FieldLogger
}

// New creates a Client. Zero options fall back to defaults.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		logger:    opts.Logger.WithField("component", "api"),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// bearer returns an HTTP client that authorizes every request with token.
func (c *Client) bearer(token string) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &http.Client{
		Timeout:   c.http.Timeout,
		Transport: &oauth2.Transport{Source: src, Base: c.http.Transport},
	}
}

// request describes one JSON call.
type request struct {
	op     string
	method string
	path   string
	token  string
	body   any
	// allowNotFound makes a 404 a success with no decoded body.
	allowNotFound bool
}

// do executes req and decodes a successful JSON body into out. It reports
// false when allowNotFound is set and the API answered 404.
func (c *Client) do(ctx context.Context, req request, out any) (bool, error) {
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return false, &Error{Op: req.op, Message: "failed to encode request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return false, &Error{Op: req.op, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	client := c.http
	if req.token != "" {
		client = c.bearer(req.token)
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return false, &Error{Op: req.op, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.WithFields(logrus.Fields{
		"method":   req.method,
		"path":     req.path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("api call")

	if req.allowNotFound && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, responseError(req.op, resp)
	}
	if out == nil {
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, &Error{Op: req.op, StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	return true, nil
}

// responseError builds an Error from a non-2xx response, extracting a readable
// message from JSON or HTML bodies.
func responseError(op string, resp *http.Response) *Error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &Error{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(resp.Header.Get("Content-Type"), data),
	}
}

func errorMessage(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if strings.Contains(contentType, "json") || trimmed[0] == '{' {
		if msg := detailMessage(trimmed); msg != "" {
			return msg
		}
	}
	if strings.Contains(contentType, "html") || trimmed[0] == '<' {
		if text, err := htmlText(string(trimmed)); err == nil && text != "" {
			return text
		}
	}
	return string(trimmed)
}

// detailMessage reads the "detail" field FastAPI-style backends put on errors.
// Validation failures carry a list of {loc, msg} entries instead of a string.
func detailMessage(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if len(it.Loc) > 0 {
					msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
				} else {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return envelope.Message
}
