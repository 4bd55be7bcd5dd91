/*
scheduler.go - Periodic dependency index refresh

PURPOSE:
  Rebuilds the reverse dependency index on a fixed interval so that
  formula edits made directly in the payroll database become visible
  without restarting the server or calling the refresh endpoint.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - The first rebuild happens at startup (cmd/server/main.go), so the
    goroutine only fires on ticks
  - A failed rebuild keeps the previous index and logs the error

CONFIGURATION:
  - Interval: How often to rebuild (default: cache expiration)
  - Enabled:  Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewRefreshScheduler(index, interval, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - deps/index.go: Index.Build
  - handlers.go: RefreshCache endpoint (manual rebuild)
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/upcn/formu/deps"
)

// RefreshScheduler rebuilds the dependency index in the background.
type RefreshScheduler struct {
	Index    *deps.Index
	Interval time.Duration
	Enabled  bool
	Log      zerolog.Logger

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRefreshScheduler creates a new scheduler.
func NewRefreshScheduler(index *deps.Index, interval time.Duration, log zerolog.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		Index:    index,
		Interval: interval,
		Enabled:  true,
		Log:      log,
		stop:     make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *RefreshScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info().Msg("refresh scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.wg.Add(1)

	go rs.run()

	rs.Log.Info().Dur("interval", rs.Interval).Msg("refresh scheduler started")
}

// Stop halts the scheduler and waits for any in-flight rebuild.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
	}
	close(rs.stop)
	rs.wg.Wait()

	rs.Log.Info().Msg("refresh scheduler stopped")
}

// run is the scheduler loop. The startup rebuild is done synchronously
// by main before Start, so the loop only reacts to ticks.
func (rs *RefreshScheduler) run() {
	defer rs.wg.Done()

	for {
		select {
		case <-rs.ticker.C:
			rs.refresh()
		case <-rs.stop:
			return
		}
	}
}

// refresh rebuilds the index once.
func (rs *RefreshScheduler) refresh() {
	if err := rs.Index.Build(context.Background()); err != nil {
		rs.Log.Error().Err(err).Msg("scheduled index refresh failed")
	}
}

// RunNow triggers an immediate rebuild outside the normal schedule.
func (rs *RefreshScheduler) RunNow() {
	rs.refresh()
}
