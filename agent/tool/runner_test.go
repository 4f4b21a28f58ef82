package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cachex "github.com/lenoxhq/lenox/agent/cache"
	contractx "github.com/lenoxhq/lenox/agent/contract"
)

type runnerClock struct {
	mu  sync.Mutex
	now time.Time
}

func newRunnerClock() *runnerClock {
	return &runnerClock{now: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *runnerClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *runnerClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSleep captures backoff durations without actually waiting.
type recordingSleep struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
	return nil
}

func (s *recordingSleep) Durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}

func countingDescriptor(name string, retries int, calls *atomic.Int64, invoke InvokeFunc) *Descriptor {
	return &Descriptor{
		Name:          name,
		CacheCategory: "price",
		Timeout:       time.Second,
		Retries:       retries,
		Invoke: func(ctx context.Context, params contractx.Params) (any, error) {
			calls.Add(1)
			return invoke(ctx, params)
		},
	}
}

func TestRunCachesSuccessfulResult(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	desc := countingDescriptor("price_probe", 0, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			return map[string]float64{"USD": 61250.5}, nil
		})

	r := NewRunner(cachex.New())
	params := contractx.Params{"symbol": "BTC"}

	first := r.Run(context.Background(), desc, params)
	if first.Error != "" || first.Cached {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second := r.Run(context.Background(), desc, params)
	if !second.Cached {
		t.Fatalf("expected cached second result: %+v", second)
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream invoked %d times, want 1", calls.Load())
	}
}

func TestRunDistinctParamsBypassCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	desc := countingDescriptor("price_probe", 0, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			return "ok", nil
		})

	r := NewRunner(cachex.New())
	r.Run(context.Background(), desc, contractx.Params{"symbol": "BTC"})
	r.Run(context.Background(), desc, contractx.Params{"symbol": "ETH"})

	if calls.Load() != 2 {
		t.Fatalf("expected two upstream calls, got %d", calls.Load())
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	desc := countingDescriptor("flaky_probe", 2, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			if calls.Load() < 3 {
				return nil, contractx.NewToolError("flaky_probe", contractx.KindTransient,
					fmt.Errorf("upstream 503"))
			}
			return "recovered", nil
		})

	sleep := &recordingSleep{}
	r := NewRunner(cachex.New(), WithRunnerSleep(sleep.Sleep))

	res := r.Run(context.Background(), desc, nil)
	if res.Error != "" {
		t.Fatalf("expected recovery, got error %q", res.Error)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}

	want := []time.Duration{backoffBase, 2 * backoffBase}
	if got := sleep.Durations(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected backoff schedule: %v", got)
	}
}

func TestRunDoesNotRetryInvalidInput(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	desc := countingDescriptor("strict_probe", 3, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			return nil, contractx.NewToolError("strict_probe", contractx.KindInvalidInput,
				fmt.Errorf("address is required"))
		})

	r := NewRunner(cachex.New(), WithRunnerSleep((&recordingSleep{}).Sleep))

	res := r.Run(context.Background(), desc, nil)
	if res.Error == "" {
		t.Fatal("expected error result")
	}
	if calls.Load() != 1 {
		t.Fatalf("invalid input must not be retried, got %d attempts", calls.Load())
	}
}

func TestRunExhaustedRetriesReportError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	desc := countingDescriptor("down_probe", 1, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			return nil, contractx.NewToolError("down_probe", contractx.KindTransient,
				fmt.Errorf("upstream 502"))
		})

	r := NewRunner(cachex.New(), WithRunnerSleep((&recordingSleep{}).Sleep))

	res := r.Run(context.Background(), desc, nil)
	if res.Error == "" || !strings.Contains(res.Error, "502") {
		t.Fatalf("expected surfaced upstream error, got %+v", res)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestRunFailureIsNeverCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	desc := countingDescriptor("flaky_probe", 0, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			if calls.Load() == 1 {
				return nil, contractx.NewToolError("flaky_probe", contractx.KindTransient,
					fmt.Errorf("blip"))
			}
			return "ok", nil
		})

	r := NewRunner(cachex.New(), WithRunnerSleep((&recordingSleep{}).Sleep))

	if res := r.Run(context.Background(), desc, nil); res.Error == "" {
		t.Fatal("expected first call to fail")
	}
	second := r.Run(context.Background(), desc, nil)
	if second.Error != "" || second.Cached {
		t.Fatalf("failure must not have been cached: %+v", second)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected fresh retry after failure, got %d calls", calls.Load())
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	desc := countingDescriptor("dead_probe", 0, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			return nil, contractx.NewToolError("dead_probe", contractx.KindTransient,
				fmt.Errorf("connection refused"))
		})

	clock := newRunnerClock()
	r := NewRunner(cachex.New(),
		WithRunnerClock(clock.Now),
		WithRunnerSleep((&recordingSleep{}).Sleep))

	for i := 0; i < breakerThreshold; i++ {
		r.Run(context.Background(), desc, nil)
	}
	if calls.Load() != breakerThreshold {
		t.Fatalf("expected %d attempts before the breaker opens, got %d", breakerThreshold, calls.Load())
	}

	res := r.Run(context.Background(), desc, nil)
	if !strings.Contains(res.Error, "circuit open") {
		t.Fatalf("expected skip while open, got %+v", res)
	}
	if calls.Load() != breakerThreshold {
		t.Fatalf("open breaker must not invoke upstream, got %d calls", calls.Load())
	}
}

func TestBreakerAllowsTrafficAfterCoolDown(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	var healthy atomic.Bool
	desc := countingDescriptor("recovering_probe", 0, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			if healthy.Load() {
				return "back", nil
			}
			return nil, contractx.NewToolError("recovering_probe", contractx.KindTransient,
				fmt.Errorf("still down"))
		})

	clock := newRunnerClock()
	r := NewRunner(cachex.New(),
		WithRunnerClock(clock.Now),
		WithRunnerSleep((&recordingSleep{}).Sleep))

	for i := 0; i < breakerThreshold; i++ {
		r.Run(context.Background(), desc, nil)
	}
	if res := r.Run(context.Background(), desc, nil); !strings.Contains(res.Error, "circuit open") {
		t.Fatalf("breaker should be open, got %+v", res)
	}

	healthy.Store(true)
	clock.Advance(breakerCoolDown + time.Second)

	res := r.Run(context.Background(), desc, nil)
	if res.Error != "" || res.Result != "back" {
		t.Fatalf("expected success after cool-down, got %+v", res)
	}
}

func TestBreakerResetOnSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	desc := countingDescriptor("wobbly_probe", 0, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			// Fails twice, succeeds, then fails twice more: the success in
			// the middle must keep the breaker closed throughout.
			switch calls.Load() {
			case 3:
				return "ok", nil
			default:
				return nil, contractx.NewToolError("wobbly_probe", contractx.KindTransient,
					fmt.Errorf("blip"))
			}
		})

	r := NewRunner(cachex.New(), WithRunnerSleep((&recordingSleep{}).Sleep))

	for i := 0; i < 5; i++ {
		res := r.Run(context.Background(), desc, contractx.Params{"n": fmt.Sprint(i)})
		if strings.Contains(res.Error, "circuit open") {
			t.Fatalf("breaker opened on call %d despite interleaved success", i+1)
		}
	}
}

func TestBackoffIsCapped(t *testing.T) {
	t.Parallel()

	if got := backoff(1); got != backoffBase {
		t.Fatalf("backoff(1) = %v", got)
	}
	if got := backoff(2); got != 2*backoffBase {
		t.Fatalf("backoff(2) = %v", got)
	}
	if got := backoff(10); got != backoffCap {
		t.Fatalf("backoff(10) = %v, want cap %v", got, backoffCap)
	}
}

func TestRunSleepAbortsOnCancelledContext(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	desc := countingDescriptor("slow_probe", 3, &calls,
		func(ctx context.Context, params contractx.Params) (any, error) {
			return nil, contractx.NewToolError("slow_probe", contractx.KindTransient,
				fmt.Errorf("blip"))
		})

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(cachex.New(), WithRunnerSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	res := r.Run(ctx, desc, nil)
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Fatal("expected cancelled context")
	}
	if res.Error == "" {
		t.Fatal("expected error result after cancellation")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retry after cancellation, got %d calls", calls.Load())
	}
}
