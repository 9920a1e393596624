// Package tracker persists the timestamp of the last successful run and
// computes the backlog of calendar days missed since then.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rolandmarg/birthday-bot/internal/config"
	"github.com/rolandmarg/birthday-bot/internal/store"
)

// Tracker tracks the last successful run in a durable key/value store.
//
// RecordRun only buffers; Flush performs the actual write. The orchestrator
// defers Flush on every exit path of an invocation so the buffered state is
// persisted exactly once per run. Storage failures are absorbed: a failed
// read degrades to "first run", a failed write leaves the last-run stale and
// the next run simply re-notifies, which beats hard-failing the daily task.
type Tracker struct {
	store store.Store
	key   string
	loc   *time.Location

	mu      sync.Mutex
	pending time.Time
	dirty   bool
}

// New creates a Tracker over the given store key.
func New(s store.Store, key string, loc *time.Location) *Tracker {
	return &Tracker{store: s, key: key, loc: loc}
}

// LastRun returns the persisted last-run date. The second return value is
// false when no run was ever recorded or the stored value is unreadable.
func (t *Tracker) LastRun(ctx context.Context) (time.Time, bool) {
	data, err := t.store.Get(ctx, t.key)
	if errors.Is(err, store.ErrNotFound) {
		slog.Debug(config.MsgStateMissing,
			config.LogKeyComponent, config.CompTracker,
			config.LogKeyKey, t.key,
		)
		return time.Time{}, false
	}
	if err != nil {
		slog.Warn(config.MsgStateMissing,
			config.LogKeyComponent, config.CompTracker,
			config.LogKeyKey, t.key,
			config.LogKeyError, err,
		)
		return time.Time{}, false
	}

	parsed, err := time.ParseInLocation(config.DateFormatFullDash, string(data), t.loc)
	if err != nil {
		slog.Warn(config.MsgStateCorrupt,
			config.LogKeyComponent, config.CompTracker,
			config.LogKeyValue, string(data),
			config.LogKeyError, err,
		)
		return time.Time{}, false
	}
	return parsed, true
}

// RecordRun buffers date as the new last-run value. The value reaches the
// store on the next Flush.
func (t *Tracker) RecordRun(date time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = t.day(date)
	t.dirty = true
}

// Flush persists the buffered last-run value, if any. Write failures are
// logged and reported but leave the tracker consistent: the value stays
// buffered, so a caller retrying Flush later still writes it.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.dirty {
		return nil
	}

	value := t.pending.Format(config.DateFormatFullDash)
	if err := t.store.Put(ctx, t.key, []byte(value)); err != nil {
		slog.Error(config.MsgStateFlushFail,
			config.LogKeyComponent, config.CompTracker,
			config.LogKeyValue, value,
			config.LogKeyError, err,
		)
		return err
	}

	t.dirty = false
	slog.Debug(config.MsgStateFlushed,
		config.LogKeyComponent, config.CompTracker,
		config.LogKeyValue, value,
	)
	return nil
}

// MissedDates returns every calendar day strictly between the last run and
// today, oldest first. An unknown last run yields an empty backlog: a first
// run is not "missed", it is just absent.
func (t *Tracker) MissedDates(ctx context.Context, today time.Time) []time.Time {
	last, ok := t.LastRun(ctx)
	if !ok {
		return nil
	}

	day := t.day(last).AddDate(0, 0, 1)
	end := t.day(today)

	var missed []time.Time
	for day.Before(end) {
		missed = append(missed, day)
		day = day.AddDate(0, 0, 1)
	}
	return missed
}

// day truncates to midnight in the configured location.
func (t *Tracker) day(ts time.Time) time.Time {
	y, m, d := ts.In(t.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.loc)
}
