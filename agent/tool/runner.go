package tool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	cachex "github.com/lenoxhq/lenox/agent/cache"
	contractx "github.com/lenoxhq/lenox/agent/contract"
	metricsx "github.com/lenoxhq/lenox/pkg/metrics"
)

const (
	breakerThreshold = 3
	breakerCoolDown  = 30 * time.Second

	backoffBase = 200 * time.Millisecond
	backoffCap  = 2 * time.Second
)

type breakerState struct {
	consecutive int
	openUntil   time.Time
}

// Runner applies the invocation policy around a tool call: cache lookup,
// bounded retry with capped-exponential backoff for transient failures,
// and a per-tool circuit breaker that skips a tool for a cool-down
// window after repeated transient failures.
//
// Concurrent cache misses for the same key may both invoke the upstream
// tool; upstream calls are idempotent reads, so at-most-one fresh call
// per TTL window holds only once a result lands in the cache.
type Runner struct {
	cache *cachex.Manager

	mu       sync.Mutex
	breakers map[string]*breakerState

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type RunnerOption func(*Runner)

func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func WithRunnerSleep(sleep func(ctx context.Context, d time.Duration) error) RunnerOption {
	return func(r *Runner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

func NewRunner(cache *cachex.Manager, opts ...RunnerOption) *Runner {
	r := &Runner{
		cache:    cache,
		breakers: make(map[string]*breakerState),
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run executes one tool with resolved parameters and returns an in-band
// result. Failures are reported through ToolResult.Error so a failing
// tool never aborts the turn for its siblings.
func (r *Runner) Run(ctx context.Context, desc *Descriptor, params contractx.Params) contractx.ToolResult {
	key := cachex.Key(desc.Name, params)
	if value, ok := r.cache.Get(key); ok {
		return contractx.ToolResult{Tool: desc.Name, Result: value, Cached: true}
	}

	if until, open := r.breakerOpen(desc.Name); open {
		metricsx.ToolInvocations.WithLabelValues(desc.Name, "skipped").Inc()
		err := contractx.NewToolError(desc.Name, contractx.KindUnavailable,
			fmt.Errorf("circuit open until %s", until.Format(time.RFC3339)))
		return contractx.ToolResult{Tool: desc.Name, Error: err.Error()}
	}

	var lastErr error
	attempts := desc.Retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			metricsx.ToolRetries.WithLabelValues(desc.Name).Inc()
			if err := r.sleep(ctx, backoff(attempt)); err != nil {
				lastErr = err
				break
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, desc.Timeout)
		result, err := desc.Invoke(callCtx, params)
		cancel()

		if err == nil {
			r.breakerReset(desc.Name)
			r.cache.Put(key, result, desc.CacheCategory)
			metricsx.ToolInvocations.WithLabelValues(desc.Name, "ok").Inc()
			return contractx.ToolResult{Tool: desc.Name, Result: result}
		}

		lastErr = err
		kind := contractx.KindOf(err)
		if kind != contractx.KindTransient {
			metricsx.ToolInvocations.WithLabelValues(desc.Name, string(kind)).Inc()
			return contractx.ToolResult{Tool: desc.Name, Error: err.Error()}
		}
		r.breakerFailure(desc.Name)
	}

	metricsx.ToolInvocations.WithLabelValues(desc.Name, "error").Inc()
	log.Warn().Str("tool", desc.Name).Err(lastErr).Msg("tool invocation exhausted retries")
	return contractx.ToolResult{Tool: desc.Name, Error: lastErr.Error()}
}

func (r *Runner) breakerOpen(tool string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.breakers[tool]
	if !ok {
		return time.Time{}, false
	}
	now := r.now()
	if st.openUntil.IsZero() || now.After(st.openUntil) {
		if !st.openUntil.IsZero() {
			// Cool-down elapsed; allow traffic again.
			st.openUntil = time.Time{}
			st.consecutive = 0
		}
		return time.Time{}, false
	}
	return st.openUntil, true
}

func (r *Runner) breakerFailure(tool string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.breakers[tool]
	if !ok {
		st = &breakerState{}
		r.breakers[tool] = st
	}
	st.consecutive++
	if st.consecutive >= breakerThreshold && st.openUntil.IsZero() {
		st.openUntil = r.now().Add(breakerCoolDown)
		metricsx.BreakerOpens.WithLabelValues(tool).Inc()
		log.Warn().Str("tool", tool).Time("until", st.openUntil).Msg("circuit breaker opened")
	}
}

func (r *Runner) breakerReset(tool string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.breakers[tool]; ok {
		st.consecutive = 0
		st.openUntil = time.Time{}
	}
}

func backoff(attempt int) time.Duration {
	d := backoffBase << (attempt - 1)
	if d > backoffCap {
		return backoffCap
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
