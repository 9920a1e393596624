package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolandmarg/birthday-bot/internal/calendar"
	"github.com/rolandmarg/birthday-bot/internal/parse"
	"github.com/rolandmarg/birthday-bot/internal/source"
)

// fixedClock pins "now" for deterministic sync runs.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func mustRecord(t *testing.T, name string, month, day, year int) parse.Record {
	t.Helper()
	rec, ok := parse.NewRecord(name, month, day, year)
	require.True(t, ok)
	return rec
}

func newTestEngine(now time.Time) *Engine {
	return New(fixedClock{now: now}, time.UTC)
}

func TestEngine_SyncAddsMissingRecords(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	e := newTestEngine(now)

	src := source.Records{
		mustRecord(t, "John Doe", 5, 15, 1990),
		mustRecord(t, "Jane Smith", 2, 10, 0),
	}
	target := calendar.NewMemoryCalendar()

	res, err := e.Sync(ctx, src, target)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 0, res.Errors)

	events := target.Snapshot()
	require.Len(t, events, 2)

	assert.Equal(t, "John Doe's birthday", events[0].Title)
	assert.Equal(t, "born 1990", events[0].Description)
	assert.Equal(t, time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC), events[0].Start)
	assert.True(t, events[0].AllDay)
	assert.True(t, events[0].IsYearlyRecurring())

	assert.Equal(t, "Jane Smith's birthday", events[1].Title)
	assert.Empty(t, events[1].Description, "records without a year carry no birth-year note")
	assert.Equal(t, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), events[1].Start,
		"a date already past this year lands on next year's occurrence")
}

func TestEngine_SyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	e := newTestEngine(now)

	src := source.Records{
		mustRecord(t, "John Doe", 5, 15, 1990),
		mustRecord(t, "Jane Smith", 2, 10, 0),
		mustRecord(t, "Alyssa S.", 5, 22, 0),
	}
	target := calendar.NewMemoryCalendar()

	first, err := e.Sync(ctx, src, target)
	require.NoError(t, err)
	assert.Equal(t, len(src), first.Added)

	second, err := e.Sync(ctx, src, target)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added, "a second pass over unchanged inputs must not duplicate")
	assert.Equal(t, len(src), second.Skipped)
	assert.Len(t, target.Snapshot(), len(src))
}

func TestEngine_SyncSkipsPreexistingEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	e := newTestEngine(now)

	target := calendar.NewMemoryCalendar()
	target.Seed(calendar.Event{
		ID:             "manual-1",
		Title:          "Birthday: John Doe",
		Start:          time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
		AllDay:         true,
		RecurrenceRule: "FREQ=YEARLY",
	})

	src := source.Records{mustRecord(t, "John Doe", 5, 15, 1990)}

	res, err := e.Sync(ctx, src, target)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, target.Snapshot(), 1)
}

func TestEngine_SyncNonBirthdayEntriesDoNotDedup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	e := newTestEngine(now)

	// A yearly all-day entry about the same person that the matcher rejects
	// must not suppress the record.
	target := calendar.NewMemoryCalendar()
	target.Seed(calendar.Event{
		ID:             "manual-1",
		Title:          "John Doe planning meeting",
		Start:          time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
		AllDay:         true,
		RecurrenceRule: "FREQ=YEARLY",
	})

	src := source.Records{mustRecord(t, "John Doe", 5, 15, 0)}

	res, err := e.Sync(ctx, src, target)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
}

func TestEngine_SyncCountsPerRecordFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	e := newTestEngine(now)

	target := calendar.NewMemoryCalendar()
	target.CreateErr = errors.New("backend unavailable")

	src := source.Records{
		mustRecord(t, "John Doe", 5, 15, 1990),
		mustRecord(t, "Jane Smith", 2, 10, 0),
	}

	res, err := e.Sync(ctx, src, target)
	require.NoError(t, err, "per-record failures must not abort the batch")
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 2, res.Errors)
}

func TestEngine_SyncSourceError(t *testing.T) {
	e := newTestEngine(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))

	failing := sourceFunc(func(ctx context.Context) ([]parse.Record, error) {
		return nil, errors.New("fetch failed")
	})

	_, err := e.Sync(context.Background(), failing, calendar.NewMemoryCalendar())
	assert.Error(t, err)
}

func TestEngine_SyncHonorsCancellation(t *testing.T) {
	e := newTestEngine(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := source.Records{mustRecord(t, "John Doe", 5, 15, 0)}
	_, err := e.Sync(ctx, src, calendar.NewMemoryCalendar())
	assert.ErrorIs(t, err, context.Canceled)
}

type sourceFunc func(ctx context.Context) ([]parse.Record, error)

func (f sourceFunc) Records(ctx context.Context) ([]parse.Record, error) {
	return f(ctx)
}
