package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

// Reinforcer is the best-effort asynchronous consumer of the feedback
// log. Reads overlap between passes, so processing is idempotent: ids
// already seen are skipped. The mutex covers seen and tally; Start runs
// passes from its own goroutine while Tally serves other callers.
type Reinforcer struct {
	store    contractx.FeedbackStore
	window   time.Duration
	interval time.Duration

	mu    sync.Mutex
	seen  map[int64]struct{}
	tally map[contractx.FeedbackLabel]int
}

func NewReinforcer(store contractx.FeedbackStore, window, interval time.Duration) *Reinforcer {
	if window <= 0 {
		window = time.Hour
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reinforcer{
		store:    store,
		window:   window,
		interval: interval,
		seen:     make(map[int64]struct{}),
		tally:    make(map[contractx.FeedbackLabel]int),
	}
}

// Pass reads the trailing window once and folds unseen records into the
// label tally. Returns how many new records were processed.
func (r *Reinforcer) Pass(ctx context.Context) (int, error) {
	recs, err := r.store.Recent(ctx, r.window)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	processed := 0
	for _, rec := range recs {
		if _, ok := r.seen[rec.ID]; ok {
			continue
		}
		r.seen[rec.ID] = struct{}{}
		r.tally[rec.Feedback]++
		processed++
	}
	return processed, nil
}

// Tally reports how many records of the label have been processed.
func (r *Reinforcer) Tally(label contractx.FeedbackLabel) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tally[label]
}

// Start runs passes on the configured interval until ctx is cancelled.
// Failures are logged and retried next tick.
func (r *Reinforcer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				processed, err := r.Pass(ctx)
				if err != nil {
					log.Warn().Err(err).Msg("reinforcement pass failed")
					continue
				}
				if processed > 0 {
					log.Debug().Int("records", processed).Msg("reinforcement pass processed feedback")
				}
			}
		}
	}()
}
