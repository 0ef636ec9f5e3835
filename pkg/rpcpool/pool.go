// Package rpcpool executes JSON-RPC calls against a ranked set of
// endpoints, failing over to the next endpoint when one is slow or down.
package rpcpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boostify/btf2300-sdk-go/pkg/metrics"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

var (
	// ErrAllEndpointsUnavailable is returned when every endpoint failed for
	// one call. It wraps the last transport error.
	ErrAllEndpointsUnavailable = errors.New("all endpoints unavailable")
	// ErrNoEndpoints is returned by New when the endpoint list is empty.
	ErrNoEndpoints = errors.New("no endpoints configured")
	// ErrClosed is returned by Call after Close.
	ErrClosed = errors.New("endpoint pool closed")
)

// Caller is the subset of *rpc.Client the pool needs.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
	Close()
}

// Dialer opens a Caller for url.
type Dialer func(ctx context.Context, url string) (Caller, error)

// DialRPC dials url with go-ethereum's rpc package (http, ws or ipc).
func DialRPC(ctx context.Context, url string) (Caller, error) {
	c, err := rpc.DialOptions(ctx, url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Options configures a Pool. Zero values fall back to the defaults noted on
// each field.
type Options struct {
	Endpoints      []string
	AttemptTimeout time.Duration // 10s
	Attempts       int           // attempts per endpoint, 2
	Cooldown       time.Duration // demotion period after a failure, 30s
	DialTimeout    time.Duration // 5s
	Dialer         Dialer        // DialRPC
	Metrics        *metrics.Metrics
	Now            func() time.Time
}

// Status is a point-in-time view of one endpoint.
type Status struct {
	URL         string        `json:"url"`
	Healthy     bool          `json:"healthy"`
	LastLatency time.Duration `json:"lastLatency"`
	RetryAfter  time.Time     `json:"retryAfter,omitzero"`
}

// Pool is safe for concurrent use. The ranking is replaced wholesale on
// every change, so a call iterates over the snapshot it started with.
type Pool struct {
	opts Options

	mu      sync.Mutex
	ranking []Status
	clients map[string]Caller
	closed  bool
}

// New builds a pool over opts.Endpoints, keeping their order as the
// initial ranking. Endpoints are dialed lazily on first use.
func New(opts Options) (*Pool, error) {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 10 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 2
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 30 * time.Second
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = DialRPC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	urls := dedup(opts.Endpoints)
	if len(urls) == 0 {
		return nil, ErrNoEndpoints
	}
	ranking := make([]Status, len(urls))
	for i, u := range urls {
		ranking[i] = Status{URL: u, Healthy: true}
	}
	return &Pool{
		opts:    opts,
		ranking: ranking,
		clients: make(map[string]Caller, len(urls)),
	}, nil
}

// Call invokes method on the best available endpoint and decodes the
// response into result. JSON-RPC error responses are returned as-is since
// another node would answer the same. Transport failures and timeouts move
// on to the next endpoint; when none is left the error wraps
// ErrAllEndpointsUnavailable.
func (p *Pool) Call(ctx context.Context, result any, method string, args ...any) error {
	order, err := p.order()
	if err != nil {
		return err
	}

	var lastErr error
	for _, url := range order {
		client, err := p.client(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			p.demote(url, err)
			continue
		}

		for attempt := 1; attempt <= p.opts.Attempts; attempt++ {
			start := time.Now()
			actx, cancel := context.WithTimeout(ctx, p.opts.AttemptTimeout)
			err = client.CallContext(actx, result, method, args...)
			cancel()
			took := time.Since(start)

			if err == nil {
				p.opts.Metrics.ObserveRPC(url, method, metrics.OutcomeOK, took)
				p.promote(url, took)
				return nil
			}
			if IsRPCError(err) {
				p.opts.Metrics.ObserveRPC(url, method, metrics.OutcomeRPCError, took)
				p.promote(url, took)
				return err
			}
			p.opts.Metrics.ObserveRPC(url, method, metrics.OutcomeFailure, took)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			zap.L().Debug("RPC attempt failed",
				zap.String("endpoint", url),
				zap.String("method", method),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		p.demote(url, lastErr)
	}
	return fmt.Errorf("%w: %s: %w", ErrAllEndpointsUnavailable, method, lastErr)
}

// IsRPCError reports whether err is a JSON-RPC error response (for example
// "execution reverted") as opposed to a transport failure.
func IsRPCError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

// Endpoints returns the current ranking.
func (p *Pool) Endpoints() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Status(nil), p.ranking...)
}

// Close closes every dialed client. Calls made afterwards fail with ErrClosed.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for url, c := range p.clients {
		c.Close()
		delete(p.clients, url)
	}
}

// order returns endpoint URLs in attempt order: endpoints that are healthy
// or whose cooldown elapsed keep their rank, the rest follow. Every
// endpoint is included so at least one is always attempted.
func (p *Pool) order() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	now := p.opts.Now()
	ready := make([]string, 0, len(p.ranking))
	var later []string
	for _, s := range p.ranking {
		if s.Healthy || !now.Before(s.RetryAfter) {
			ready = append(ready, s.URL)
		} else {
			later = append(later, s.URL)
		}
	}
	return append(ready, later...), nil
}

func (p *Pool) client(ctx context.Context, url string) (Caller, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if c, ok := p.clients[url]; ok {
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	dctx, cancel := context.WithTimeout(ctx, p.opts.DialTimeout)
	defer cancel()
	c, err := p.opts.Dialer(dctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.clients[url]; ok {
		c.Close()
		return existing, nil
	}
	if p.closed {
		c.Close()
		return nil, ErrClosed
	}
	p.clients[url] = c
	return c, nil
}

// promote moves url to the front of the ranking and marks it healthy.
func (p *Pool) promote(url string, latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := make([]Status, 0, len(p.ranking))
	next = append(next, Status{URL: url, Healthy: true, LastLatency: latency})
	for _, s := range p.ranking {
		if s.URL != url {
			next = append(next, s)
		}
	}
	p.ranking = next
}

// demote marks url unhealthy for the cooldown period and moves it behind
// every healthy endpoint.
func (p *Pool) demote(url string, cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var failed Status
	healthy := make([]Status, 0, len(p.ranking))
	var unhealthy []Status
	for _, s := range p.ranking {
		switch {
		case s.URL == url:
			failed = s
		case s.Healthy:
			healthy = append(healthy, s)
		default:
			unhealthy = append(unhealthy, s)
		}
	}
	failed.Healthy = false
	failed.RetryAfter = p.opts.Now().Add(p.opts.Cooldown)
	p.ranking = append(append(healthy, failed), unhealthy...)

	zap.L().Warn("Endpoint demoted",
		zap.String("endpoint", url),
		zap.Time("retryAfter", failed.RetryAfter),
		zap.Error(cause))
}

func dedup(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	result := make([]string, 0, len(ss))
	for _, s := range ss {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		result = append(result, s)
	}
	return result
}
