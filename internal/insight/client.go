// Package insight calls the external AI insight service that turns
// analytics summaries into narratives and investment scores.
package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/valyala/fasthttp"

	"propinsight/internal/logging"
	"propinsight/internal/market"
)

// ErrUnavailable wraps every failure to obtain a usable answer from the
// AI service: transport errors, timeouts, non-2xx statuses, error bodies
// and calls rejected by the open circuit breaker.
var ErrUnavailable = errors.New("upstream AI service unavailable")

// errRejected marks answers the service gave on purpose: client errors
// and bodies that do not decode. They fail the call without counting
// against the circuit breaker.
var errRejected = errors.New("rejected")

const breakerName = "ai-insight"

// Request is the body posted to the AI service.
type Request struct {
	ChartType   string         `json:"chart_type"`
	Context     map[string]any `json:"context,omitempty"`
	DataSummary any            `json:"data_summary,omitempty"`
	Metrics     any            `json:"metrics,omitempty"`
	DetailLevel string         `json:"detail_level,omitempty"`
	Mode        string         `json:"mode,omitempty"`
}

// Response is the union of the answers the AI service gives per mode.
type Response struct {
	Insight         *string                  `json:"insight,omitempty"`
	AINarrative     *string                  `json:"aiNarrative,omitempty"`
	SnapshotVerdict *string                  `json:"snapshotVerdict,omitempty"`
	SnapshotReason  *string                  `json:"snapshotReason,omitempty"`
	Score           *float64                 `json:"score,omitempty"`
	Label           *string                  `json:"label,omitempty"`
	Drivers         []market.ScoreDriver     `json:"drivers,omitempty"`
	AIExplanation   *market.ScoreExplanation `json:"ai_explanation,omitempty"`
	Error           string                   `json:"error,omitempty"`
}

// Config tunes the client.
type Config struct {
	URL             string
	Timeout         time.Duration
	MaxRetries      uint64
	RetryWait       time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client posts requests to the AI service. It is safe for concurrent use.
type Client struct {
	url        string
	timeout    time.Duration
	maxRetries uint64
	retryWait  time.Duration
	http       *fasthttp.Client
	cb         *gobreaker.CircuitBreaker[*Response]
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying fasthttp client.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a Client for cfg.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		url:        cfg.URL,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryWait:  cfg.RetryWait,
		http: &fasthttp.Client{
			Name:            "propinsight",
			MaxConnsPerHost: 32,
		},
	}
	if c.retryWait <= 0 {
		c.retryWait = 200 * time.Millisecond
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breakerState.Set(stateValue(gobreaker.StateClosed))
	c.cb = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.Set(stateValue(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate posts req and returns the decoded answer. Any failure is
// reported as ErrUnavailable; the cause is kept in the message.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode insight request: %w", err)
	}

	resp, err := c.cb.Execute(func() (*Response, error) {
		return c.postWithRetry(ctx, body)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		requestsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		requestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	requestsTotal.WithLabelValues("ok").Inc()
	return resp, nil
}

func (c *Client) postWithRetry(ctx context.Context, body []byte) (*Response, error) {
	var out *Response
	op := func() error {
		r, err := c.post(ctx, body)
		if err != nil {
			return err
		}
		out = r
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryWait), c.maxRetries),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return out, nil
}

// post makes a single attempt. Client errors and undecodable bodies are
// permanent; everything else may be retried.
func (c *Client) post(ctx context.Context, body []byte) (*Response, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, backoff.Permanent(ctx.Err())
		}
		if timeout <= 0 || left < timeout {
			timeout = left
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	req.SetBodyRaw(body)

	var err error
	if timeout > 0 {
		err = c.http.DoTimeout(req, resp, timeout)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		return nil, err
	}

	status := resp.StatusCode()
	switch {
	case status >= 500:
		return nil, fmt.Errorf("status %d", status)
	case status >= 300:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d", errRejected, status))
	}

	var out Response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: decode insight response: %w", errRejected, err))
	}
	if out.Error != "" {
		return nil, errors.New(out.Error)
	}
	return &out, nil
}

// State reports the circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}
