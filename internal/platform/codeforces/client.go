package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cf_stats/internal/common"
	"cf_stats/internal/domain/model"
	"cf_stats/internal/platform/logger"
	"cf_stats/internal/platform/metrics"

	"go.uber.org/zap"
)

const (
	methodUserStatus = "user.status"
	methodUserInfo   = "user.info"

	statusOK = "OK"

	maxBodyBytes = 64 << 20
)

// envelope is the common wrapper of every Codeforces API response.
type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// Client talks to the Codeforces REST API over https.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	metrics    *metrics.Metrics
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMetrics records every call in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient validates baseURL and builds a client. Only https endpoints are accepted.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid codeforces api base %q: %w", baseURL, err)
	}
	if u.Scheme != "https" {
		return nil, fmt.Errorf("codeforces api base must use https, got %q", u.Scheme)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchSubmissions returns one page of a handle's submissions, newest first.
// from is 1-based.
func (c *Client) FetchSubmissions(ctx context.Context, handle string, from, count int) ([]model.Submission, error) {
	params := url.Values{}
	params.Set("handle", handle)
	params.Set("from", strconv.Itoa(from))
	params.Set("count", strconv.Itoa(count))

	var page []model.Submission
	if err := c.call(ctx, methodUserStatus, params, &page); err != nil {
		return nil, err
	}
	return page, nil
}

// FetchUser returns the user.info record for a single handle.
func (c *Client) FetchUser(ctx context.Context, handle string) (*model.UserInfo, error) {
	params := url.Values{}
	params.Set("handles", handle)

	var users []model.UserInfo
	if err := c.call(ctx, methodUserInfo, params, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%s returned no users for %q: %w", methodUserInfo, handle, common.ErrUserNotFound)
	}
	return &users[0], nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveRemote(method, outcomeLabel(err), time.Since(start))
	}()

	endpoint := c.baseURL.JoinPath(method)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s: %v: %w", method, err, common.ErrFetchFailed)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: read body: %v: %w", method, err, common.ErrFetchFailed)
	}

	// Codeforces answers FAILED with a JSON envelope and a 400, so the body is
	// decoded before the status code is considered.
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status == "" {
		logger.Warn(ctx, "codeforces returned a non-envelope body",
			zap.String("method", method), zap.Int("http_status", resp.StatusCode))
		return fmt.Errorf("%s: unexpected response (http %d): %w", method, resp.StatusCode, common.ErrFetchFailed)
	}

	if env.Status != statusOK {
		logger.Info(ctx, "codeforces call failed",
			zap.String("method", method), zap.String("comment", env.Comment), zap.Int("http_status", resp.StatusCode))
		return classifyFailure(method, env.Comment)
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%s: malformed result: %v: %w", method, err, common.ErrFetchFailed)
	}
	return nil
}

// classifyFailure turns a FAILED envelope into a domain error. user.info
// failures are always reported as a missing user; user.status failures only
// when the comment says the handle does not exist.
func classifyFailure(method, comment string) error {
	if method == methodUserInfo || isNotFoundComment(comment) {
		return fmt.Errorf("%s: %s: %w", method, comment, common.ErrUserNotFound)
	}
	return fmt.Errorf("%s: %s: %w", method, comment, common.ErrFetchFailed)
}

func isNotFoundComment(comment string) bool {
	c := strings.ToLower(comment)
	return strings.Contains(c, "not found") && strings.Contains(c, "handle")
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "failed"
	}
}
