// Package dispatch sends assembled messages to a webhook endpoint and
// classifies the result.
//
// A Dispatcher holds no per-call state. Each Send issues exactly one POST;
// there are no retries, and sending the same message twice posts it twice.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/ptwebhook/internal/endpoint"
	"github.com/dshills/ptwebhook/internal/payload"
)

const (
	// DefaultTimeout bounds one dispatch, connect to last body byte.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "PTWebhook/1.0"

	// UnreadableBody replaces an error body that could not be read.
	UnreadableBody = "Unknown error"

	maxErrorBody = 64 << 10
)

// Dispatcher posts messages to webhook endpoints.
type Dispatcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-dispatch timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(p *Dispatcher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Dispatcher) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Dispatcher) {
		if c != nil {
			p.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Dispatcher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Timeout returns the configured per-dispatch timeout.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Send posts msg to url and classifies the result.
// Cancelling ctx aborts the request; the outcome is then a NetworkError.
func (d *Dispatcher) Send(ctx context.Context, url string, msg payload.Message) Outcome {
	log := d.logger.With(zap.String("endpoint", endpoint.Redact(url)))

	body, err := Encode(msg)
	if err != nil {
		log.Error("encode message", zap.Error(err))
		return NetworkError{Kind: Other, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Error("build request", zap.Error(err))
		return NetworkError{Kind: Other, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		kind := classify(err)
		log.Warn("dispatch failed",
			zap.Stringer("kind", kind),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return NetworkError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		log.Info("dispatched",
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
		return Success{Status: resp.StatusCode}
	}

	text := UnreadableBody
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); err == nil {
		text = string(raw)
	}
	log.Warn("endpoint rejected message",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return HTTPError{Status: resp.StatusCode, Body: text}
}

func classify(err error) NetworkErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ConnectFailure
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ConnectFailure
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ConnectFailure
	}
	return Other
}
