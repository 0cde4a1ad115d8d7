// Package upstream is the typed client for the external booking API.
package upstream

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

	"github.com/sony/gobreaker/v2"

	"quantumsport/internal/apperr"
	"quantumsport/internal/logger"
	"quantumsport/internal/metrics"
)

const (
	breakerName     = "booking-api"
	maxResponseSize = 4 << 20
)

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures int
	// OpenTimeout is how long the breaker stays open before a trial request.
	OpenTimeout time.Duration
	HTTPClient  *http.Client
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ConsecutiveFailures <= 0 {
		opts.ConsecutiveFailures = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	threshold := uint32(opts.ConsecutiveFailures)
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// only infrastructure failures count against the booking API
			return err == nil || errors.Is(err, context.Canceled) || !apperr.IsRetriable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			metrics.SetCircuitBreakerState(name, float64(to))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    httpClient,
		breaker: breaker,
	}
}

// do runs one API call through the breaker. A non-nil out receives the "data" member of
// the response envelope.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	start := time.Now()

	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.roundTrip(ctx, method, path, query, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = apperr.NewNetworkError(fmt.Sprintf("%s: booking api unavailable (%v)", op, err))
	}

	metrics.RecordUpstreamRequest(op, outcome(err), time.Since(start).Seconds())
	if err != nil {
		logger.Debug("booking api call failed", "operation", op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := ctx.Err(); err != nil {
		return transportError(ctx, err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return transportError(ctx, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		env := envelope{Data: out}
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidResponse, err)
		}
		return nil
	}

	return statusError(resp.StatusCode, raw)
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperr.NewTimeoutError(err.Error())
	}
	return apperr.NewNetworkError(err.Error())
}

func statusError(status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.message()
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusConflict || body.Code == codeSlotUnavailable:
		return &apperr.ConflictError{Message: msg, SlotIDs: body.SlotIDs}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &apperr.ValidationError{Field: body.Field, Message: msg}
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, msg)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return apperr.NewTimeoutError(fmt.Sprintf("status %d: %s", status, msg))
	case status == http.StatusTooManyRequests || status >= 500:
		return apperr.NewNetworkError(fmt.Sprintf("status %d: %s", status, msg))
	default:
		return fmt.Errorf("booking api: unexpected status %d: %s", status, msg)
	}
}

func outcome(err error) string {
	var conflict *apperr.ConflictError
	var validation *apperr.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &validation):
		return "invalid"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrTimeout):
		return "timeout"
	case errors.Is(err, apperr.ErrNetwork):
		return "network"
	default:
		return "error"
	}
}
