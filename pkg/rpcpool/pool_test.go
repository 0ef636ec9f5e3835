package rpcpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type revertErr struct{}

func (revertErr) Error() string  { return "execution reverted" }
func (revertErr) ErrorCode() int { return 3 }

// fakeCaller answers with a scripted function and counts invocations.
type fakeCaller struct {
	calls  atomic.Int32
	closed atomic.Bool
	answer func(ctx context.Context, result any) error
}

func (f *fakeCaller) CallContext(ctx context.Context, result any, method string, args ...any) error {
	f.calls.Add(1)
	return f.answer(ctx, result)
}

func (f *fakeCaller) Close() { f.closed.Store(true) }

func ok(v string) func(context.Context, any) error {
	return func(_ context.Context, result any) error {
		*(result.(*string)) = v
		return nil
	}
}

func fail(msg string) func(context.Context, any) error {
	return func(context.Context, any) error { return errors.New(msg) }
}

func hang(ctx context.Context, _ any) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestPool(t *testing.T, callers map[string]*fakeCaller, urls ...string) *Pool {
	t.Helper()
	p, err := New(Options{
		Endpoints:      urls,
		AttemptTimeout: 50 * time.Millisecond,
		Attempts:       2,
		Cooldown:       time.Minute,
		Dialer: func(_ context.Context, url string) (Caller, error) {
			c, ok := callers[url]
			if !ok {
				return nil, fmt.Errorf("unknown endpoint %s", url)
			}
			return c, nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func urls(p *Pool) []string {
	var out []string
	for _, s := range p.Endpoints() {
		out = append(out, s.URL)
	}
	return out
}

func TestNew_RequiresEndpoints(t *testing.T) {
	_, err := New(Options{Endpoints: []string{"", ""}})
	require.ErrorIs(t, err, ErrNoEndpoints)
}

func TestCall_FirstEndpointAnswers(t *testing.T) {
	a := &fakeCaller{answer: ok("a")}
	b := &fakeCaller{answer: ok("b")}
	p := newTestPool(t, map[string]*fakeCaller{"a": a, "b": b}, "a", "b", "a")

	var got string
	require.NoError(t, p.Call(context.Background(), &got, "eth_chainId"))
	require.Equal(t, "a", got)
	require.Equal(t, int32(0), b.calls.Load())
	require.Equal(t, []string{"a", "b"}, urls(p))
}

func TestCall_FailsOverAndReranks(t *testing.T) {
	a := &fakeCaller{answer: fail("connection refused")}
	b := &fakeCaller{answer: ok("b")}
	p := newTestPool(t, map[string]*fakeCaller{"a": a, "b": b}, "a", "b")

	var got string
	require.NoError(t, p.Call(context.Background(), &got, "eth_call"))
	require.Equal(t, "b", got)
	require.Equal(t, int32(2), a.calls.Load(), "each endpoint gets the configured attempts")

	status := p.Endpoints()
	require.Equal(t, "b", status[0].URL)
	require.True(t, status[0].Healthy)
	require.Equal(t, "a", status[1].URL)
	require.False(t, status[1].Healthy)

	// The demoted endpoint is not tried first on the next call.
	require.NoError(t, p.Call(context.Background(), &got, "eth_call"))
	require.Equal(t, int32(2), a.calls.Load())
}

func TestCall_RPCErrorIsNotFailedOver(t *testing.T) {
	a := &fakeCaller{answer: func(context.Context, any) error { return revertErr{} }}
	b := &fakeCaller{answer: ok("b")}
	p := newTestPool(t, map[string]*fakeCaller{"a": a, "b": b}, "a", "b")

	var got string
	err := p.Call(context.Background(), &got, "eth_call")
	require.True(t, IsRPCError(err))
	require.NotErrorIs(t, err, ErrAllEndpointsUnavailable)
	require.Equal(t, int32(1), a.calls.Load())
	require.Equal(t, int32(0), b.calls.Load())
	require.True(t, p.Endpoints()[0].Healthy)
}

func TestCall_AllEndpointsUnavailable(t *testing.T) {
	a := &fakeCaller{answer: fail("a down")}
	b := &fakeCaller{answer: fail("b down")}
	p := newTestPool(t, map[string]*fakeCaller{"a": a, "b": b}, "a", "b")

	var got string
	err := p.Call(context.Background(), &got, "eth_call")
	require.ErrorIs(t, err, ErrAllEndpointsUnavailable)
	require.ErrorContains(t, err, "b down")

	// Unhealthy endpoints are still attempted.
	err = p.Call(context.Background(), &got, "eth_call")
	require.ErrorIs(t, err, ErrAllEndpointsUnavailable)
	require.Equal(t, int32(4), a.calls.Load())
	require.Equal(t, int32(4), b.calls.Load())
}

func TestCall_DialFailureMovesOn(t *testing.T) {
	b := &fakeCaller{answer: ok("b")}
	p := newTestPool(t, map[string]*fakeCaller{"b": b}, "missing", "b")

	var got string
	require.NoError(t, p.Call(context.Background(), &got, "eth_call"))
	require.Equal(t, []string{"b", "missing"}, urls(p))
}

func TestCall_AttemptTimeout(t *testing.T) {
	a := &fakeCaller{answer: hang}
	b := &fakeCaller{answer: ok("b")}
	p := newTestPool(t, map[string]*fakeCaller{"a": a, "b": b}, "a", "b")

	start := time.Now()
	var got string
	require.NoError(t, p.Call(context.Background(), &got, "eth_call"))
	require.Equal(t, "b", got)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestCall_CallerCancellationDoesNotDemote(t *testing.T) {
	a := &fakeCaller{answer: hang}
	p := newTestPool(t, map[string]*fakeCaller{"a": a}, "a")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	var got string
	err := p.Call(ctx, &got, "eth_call")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, p.Endpoints()[0].Healthy)
}

func TestOrder_CooldownExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p, err := New(Options{Endpoints: []string{"x"}, Now: func() time.Time { return now }})
	require.NoError(t, err)

	p.ranking = []Status{
		{URL: "cooling", Healthy: false, RetryAfter: now.Add(time.Minute)},
		{URL: "expired", Healthy: false, RetryAfter: now.Add(-time.Second)},
		{URL: "healthy", Healthy: true},
	}
	order, err := p.order()
	require.NoError(t, err)
	require.Equal(t, []string{"expired", "healthy", "cooling"}, order)
}

func TestCall_Concurrent(t *testing.T) {
	var flip atomic.Int32
	a := &fakeCaller{answer: func(ctx context.Context, r any) error {
		if flip.Add(1)%3 == 0 {
			return errors.New("flaky")
		}
		return ok("a")(ctx, r)
	}}
	b := &fakeCaller{answer: ok("b")}
	p := newTestPool(t, map[string]*fakeCaller{"a": a, "b": b}, "a", "b")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got string
			if err := p.Call(context.Background(), &got, "eth_call"); err != nil {
				t.Errorf("Call: %v", err)
			}
			_ = p.Endpoints()
		}()
	}
	wg.Wait()
	require.Len(t, p.Endpoints(), 2)
}

func TestClose(t *testing.T) {
	a := &fakeCaller{answer: ok("a")}
	p := newTestPool(t, map[string]*fakeCaller{"a": a}, "a")

	var got string
	require.NoError(t, p.Call(context.Background(), &got, "eth_call"))
	p.Close()
	require.True(t, a.closed.Load())
	require.ErrorIs(t, p.Call(context.Background(), &got, "eth_call"), ErrClosed)
}
