// Package upstream talks to the remote DingerZone API that owns share links.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/dingerzone/internal/domain/share"
	"github.com/okian/dingerzone/pkg/logger"
	"github.com/okian/dingerzone/pkg/metrics"
)

// Client defaults.
const (
	DefaultTimeout   = 10 * time.Second
	SharedVideoPath  = "/get-shared-video-details"
	maxResponseBytes = 1 << 20
	defaultUserAgent = "dingerzone-site/1"
)

// sharedVideoRequest is the POST body of SharedVideoPath.
type sharedVideoRequest struct {
	ShareID string `json:"shareId"`
}

// Client wraps http.Client for the share API.
type Client struct {
	baseURL   string
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    logger.Logger
}

// New creates a client for baseURL (e.g. "https://api.example.com/prod").
// An empty or non-absolute baseURL yields a client whose lookups fail with
// ErrNotConfigured.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   normalizeBaseURL(baseURL),
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// normalizeBaseURL trims trailing slashes and returns "" unless raw is an
// absolute http(s) URL.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return raw
}

// Configured reports whether lookups can be attempted.
func (c *Client) Configured() bool { return c.baseURL != "" }

// SharedVideoDetails fetches the record behind id.
func (c *Client) SharedVideoDetails(ctx context.Context, id share.ID) (share.Details, error) {
	const op = "upstream.shared_video_details"
	if !c.Configured() {
		return share.Details{}, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}
	if id == "" {
		return share.Details{}, fmt.Errorf("%s: %w", op, share.ErrMissingID)
	}

	payload, err := json.Marshal(sharedVideoRequest{ShareID: id.String()})
	if err != nil {
		return share.Details{}, fmt.Errorf("%s: marshal request: %w", op, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+SharedVideoPath, bytes.NewReader(payload))
	if err != nil {
		return share.Details{}, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if rid := logger.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.record(ctx, "unreachable", start, id, err)
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return share.Details{}, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return share.Details{}, fmt.Errorf("%s: %w: %w", op, ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		c.record(ctx, "unreachable", start, id, err)
		return share.Details{}, fmt.Errorf("%s: read response: %w: %w", op, ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(ctx, "status_"+statusClass(resp.StatusCode), start, id, nil)
		if msg := share.ErrorMessage(body); msg != "" {
			return share.Details{}, fmt.Errorf("%s: %w", op, &share.UpstreamError{StatusCode: resp.StatusCode, Message: msg})
		}
		return share.Details{}, fmt.Errorf("%s: %w: %d", op, ErrUpstreamStatus, resp.StatusCode)
	}

	details, err := share.Decode(body)
	if err != nil {
		c.record(ctx, "invalid", start, id, err)
		return share.Details{}, fmt.Errorf("%s: %w", op, err)
	}
	c.record(ctx, "ok", start, id, nil)
	return details, nil
}

func (c *Client) record(ctx context.Context, outcome string, start time.Time, id share.ID, err error) {
	elapsed := time.Since(start)
	metrics.RecordUpstream(outcome, float64(elapsed.Milliseconds()))
	if c.logger == nil {
		return
	}
	fields := []logger.Field{
		logger.String("share_id", id.String()),
		logger.String("outcome", outcome),
		logger.Int("latency_ms", int(elapsed.Milliseconds())),
	}
	if err != nil {
		c.logger.Warn(ctx, "share API call failed", append(fields, logger.Error(err))...)
		return
	}
	c.logger.Debug(ctx, "share API call", fields...)
}

// readBody reads at most maxResponseBytes.
func readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	return body, nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
