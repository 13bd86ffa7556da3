// Package httpclient is the single outbound HTTP path of the portal. Every
// call to the loan backend and the identity provider goes through a Client,
// which attaches the bearer token, enforces the timeout and maps transport
// and status failures onto the domain error taxonomy.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/metrics"
)

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 4 << 20

// TokenSource yields the current bearer token, refreshing it if needed
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Mode selects how a request treats the bearer token
type Mode int

const (
	// Public attaches the token when one is available
	Public Mode = iota
	// Credentialed requires a token and fails without a network call otherwise
	Credentialed
)

// Config configures a Client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RPS        float64
	Burst      int
	HTTPClient *http.Client
}

// Client wraps net/http with token attachment and error mapping
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// New creates a Client. A zero RPS disables rate limiting.
func New(cfg Config, log logrus.FieldLogger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	} else if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RPS) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		limiter: limiter,
		log:     log,
	}
}

// Caller issues requests in one Mode with one TokenSource
type Caller struct {
	client *Client
	mode   Mode
	tokens TokenSource
}

// Public returns a Caller that attaches a token only if tokens has one
func (c *Client) Public(tokens TokenSource) *Caller {
	return &Caller{client: c, mode: Public, tokens: tokens}
}

// Credentialed returns a Caller that requires a token
func (c *Client) Credentialed(tokens TokenSource) *Caller {
	return &Caller{client: c, mode: Credentialed, tokens: tokens}
}

func (cl *Caller) Get(ctx context.Context, path string, out any) error {
	return cl.client.do(ctx, cl.mode, cl.tokens, http.MethodGet, path, nil, out)
}

func (cl *Caller) Post(ctx context.Context, path string, body, out any) error {
	return cl.client.do(ctx, cl.mode, cl.tokens, http.MethodPost, path, body, out)
}

func (cl *Caller) Patch(ctx context.Context, path string, body, out any) error {
	return cl.client.do(ctx, cl.mode, cl.tokens, http.MethodPatch, path, body, out)
}

func (cl *Caller) Delete(ctx context.Context, path string, out any) error {
	return cl.client.do(ctx, cl.mode, cl.tokens, http.MethodDelete, path, nil, out)
}

// WithQuery appends query parameters to path
func WithQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// ResponseError keeps the raw status and body of a rejected request next to
// the mapped domain error, for callers that decode provider-specific codes.
type ResponseError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *ResponseError) Error() string { return e.Err.Error() }

func (e *ResponseError) Unwrap() error { return e.Err }

func (c *Client) do(ctx context.Context, mode Mode, tokens TokenSource, method, path string, body, out any) error {
	token, err := resolveToken(ctx, mode, tokens)
	if err != nil {
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return classify(ctx, err)
		}
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		mapped := classify(ctx, err)
		metrics.RecordBackend(method, outcome(mapped), time.Since(start))
		c.log.WithFields(logrus.Fields{"method": method, "path": req.URL.Path}).WithError(err).Warn("⚠️  Request failed")
		return mapped
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		mapped := classify(ctx, err)
		metrics.RecordBackend(method, outcome(mapped), time.Since(start))
		return mapped
	}

	if resp.StatusCode >= http.StatusBadRequest {
		mapped := statusError(resp.StatusCode, data)
		metrics.RecordBackend(method, outcome(mapped), time.Since(start))
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   req.URL.Path,
			"status": resp.StatusCode,
		}).Debug("Request rejected")
		return &ResponseError{Status: resp.StatusCode, Body: data, Err: mapped}
	}
	metrics.RecordBackend(method, "ok", time.Since(start))

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func resolveToken(ctx context.Context, mode Mode, tokens TokenSource) (string, error) {
	if tokens == nil {
		if mode == Credentialed {
			return "", domain.ErrUnauthenticated
		}
		return "", nil
	}

	token, err := tokens.Token(ctx)
	if mode == Public {
		if err != nil {
			return "", nil
		}
		return token, nil
	}

	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			return "", err
		}
		return "", &domain.AuthError{Kind: domain.Unauthenticated, Err: err}
	}
	if token == "" {
		return "", domain.ErrUnauthenticated
	}
	return token, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + path
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// classify maps a transport error. A canceled caller context is returned
// as-is so superseded loads are not reported as network failures.
func classify(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.NetworkError{Kind: domain.Timeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.NetworkError{Kind: domain.Timeout, Err: err}
	}
	return &domain.NetworkError{Kind: domain.Unreachable, Err: err}
}

func statusError(status int, body []byte) error {
	msg := Message(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := errors.New(msg)

	switch {
	case status == http.StatusUnauthorized:
		return &domain.AuthError{Kind: domain.Unauthenticated, Err: cause}
	case status == http.StatusForbidden:
		return &domain.AuthError{Kind: domain.Unauthorized, Err: cause}
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		field := gjson.GetBytes(body, "field").String()
		if field == "" {
			field = "request"
		}
		rule := gjson.GetBytes(body, "rule").String()
		if rule == "" {
			rule = strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
		}
		return &domain.ValidationError{Field: field, Rule: rule, Message: msg}
	case status >= http.StatusInternalServerError:
		return &domain.NetworkError{Kind: domain.ServerError, Status: status, Err: cause}
	default:
		return fmt.Errorf("unexpected status %d: %s", status, msg)
	}
}

// Message pulls a human-readable message out of an error body
func Message(body []byte) string {
	for _, path := range []string{"message", "error.message", "error"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func outcome(err error) string {
	var netErr *domain.NetworkError
	var authErr *domain.AuthError
	switch {
	case errors.As(err, &netErr):
		return netErr.Kind.String()
	case errors.As(err, &authErr):
		return authErr.Kind.String()
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	if _, ok := domain.AsValidation(err); ok {
		return "rejected"
	}
	return "error"
}
