package cache

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, size int) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c, err := New(Options{Size: size, Now: clock.Now})
	require.NoError(t, err)
	return c, clock
}

func counting(calls *atomic.Int32, v int) func(context.Context) (int, error) {
	return func(context.Context) (int, error) {
		calls.Add(1)
		return v, nil
	}
}

func TestGetOrCompute_HitWithinTTL(t *testing.T) {
	c, clock := newTestCache(t, 0)
	var calls atomic.Int32
	ctx := context.Background()

	v, err := GetOrCompute(ctx, c, "k", time.Minute, counting(&calls, 1))
	require.NoError(t, err)
	require.Equal(t, 1, v)

	clock.Advance(59 * time.Second)
	v, err = GetOrCompute(ctx, c, "k", time.Minute, counting(&calls, 2))
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, int32(1), calls.Load())

	clock.Advance(time.Second)
	v, err = GetOrCompute(ctx, c, "k", time.Minute, counting(&calls, 3))
	require.NoError(t, err)
	require.Equal(t, 3, v, "entry at exactly ttl age is expired")

	st := c.Stats()
	require.Equal(t, uint64(1), st.Hits)
	require.Equal(t, uint64(2), st.Misses)
	require.Equal(t, 1, st.Entries)
}

func TestGetOrCompute_ErrorsAreNotStored(t *testing.T) {
	c, _ := newTestCache(t, 0)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := GetOrCompute(ctx, c, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, c.Stats().Entries)

	var calls atomic.Int32
	v, err := GetOrCompute(ctx, c, "k", time.Minute, counting(&calls, 7))
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetOrCompute_PanicBecomesError(t *testing.T) {
	c, _ := newTestCache(t, 0)
	ctx := context.Background()

	_, err := GetOrCompute(ctx, c, "k", time.Minute, func(context.Context) (int, error) {
		var m map[string]int
		m["x"] = 1
		return 0, nil
	})
	require.ErrorIs(t, err, ErrComputePanic)
	require.Equal(t, 0, c.Stats().Entries)

	// The key is usable afterwards.
	var calls atomic.Int32
	v, err := GetOrCompute(ctx, c, "k", time.Minute, counting(&calls, 3))
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestGetOrCompute_SkipStore(t *testing.T) {
	c, _ := newTestCache(t, 0)
	ctx := context.Background()
	var calls atomic.Int32
	notFound := func(context.Context) (string, error) {
		calls.Add(1)
		return "empty", fmt.Errorf("artist 9: %w", ErrSkipStore)
	}

	for i := 0; i < 2; i++ {
		v, err := GetOrCompute(ctx, c, "artist:9", time.Minute, notFound)
		require.NoError(t, err)
		require.Equal(t, "empty", v)
	}
	require.Equal(t, int32(2), calls.Load())
}

func TestGetOrCompute_SharesInFlight(t *testing.T) {
	c, _ := newTestCache(t, 0)
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := GetOrCompute(context.Background(), c, "pool:1001", time.Minute, fn)
			if err != nil {
				t.Errorf("GetOrCompute: %v", err)
			}
			results[i] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		require.Equal(t, 42, v)
	}
	require.Equal(t, uint64(n), c.Stats().Shared)
}

func TestGetOrCompute_CanceledCallerStopsWaiting(t *testing.T) {
	c, _ := newTestCache(t, 0)
	release := make(chan struct{})
	done := make(chan struct{})
	fn := func(ctx context.Context) (int, error) {
		defer close(done)
		<-release
		return 5, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := GetOrCompute(ctx, c, "k", time.Minute, fn)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
	// The detached compute finished and stored its value.
	require.Eventually(t, func() bool { return c.Stats().Entries == 1 }, time.Second, 5*time.Millisecond)
	v, err := GetOrCompute(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) { return 0, errors.New("unused") })
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestCache_LRUBound(t *testing.T) {
	c, _ := newTestCache(t, 2)
	ctx := context.Background()
	var calls atomic.Int32

	for _, k := range []string{"a", "b", "c"} {
		_, err := GetOrCompute(ctx, c, k, time.Hour, counting(&calls, 1))
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.Stats().Entries)

	_, err := GetOrCompute(ctx, c, "a", time.Hour, counting(&calls, 1))
	require.NoError(t, err)
	require.Equal(t, int32(4), calls.Load(), "oldest key was evicted")
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t, 0)
	ctx := context.Background()
	var calls atomic.Int32
	for _, k := range []string{"balance:1:0xa", "balance:2:0xa", "pool:1"} {
		_, err := GetOrCompute(ctx, c, k, time.Hour, counting(&calls, 1))
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.InvalidatePrefix("balance:"))
	c.Invalidate("pool:1")
	require.Equal(t, 0, c.Stats().Entries)

	_, _ = GetOrCompute(ctx, c, "x", time.Hour, counting(&calls, 1))
	c.Purge()
	require.Equal(t, 0, c.Stats().Entries)
}

func TestKey(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	require.Equal(t, "balance:1001:"+addr.Hex(), Key("balance", big.NewInt(1001), addr))
	require.Equal(t, "counts", Key("counts"))
}
