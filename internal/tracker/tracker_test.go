package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolandmarg/birthday-bot/internal/store"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTracker_LastRunAbsentOnFreshStore(t *testing.T) {
	tr := New(store.NewMemoryStore(), "last_run", time.UTC)

	_, ok := tr.LastRun(context.Background())
	assert.False(t, ok)
}

func TestTracker_RecordRunThenFlushThenLastRun(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	tr := New(s, "last_run", time.UTC)

	tr.RecordRun(time.Date(2024, time.January, 5, 14, 30, 0, 0, time.UTC))
	require.NoError(t, tr.Flush(ctx))

	got, ok := tr.LastRun(ctx)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.January, 5), got, "recorded run should be truncated to midnight")
}

func TestTracker_FlushWithoutRecordIsNoop(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	s.PutErr = errors.New("disk full")
	tr := New(s, "last_run", time.UTC)

	assert.NoError(t, tr.Flush(ctx), "a clean tracker should not touch the store")
}

func TestTracker_FlushFailureKeepsValueBuffered(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	tr := New(s, "last_run", time.UTC)

	tr.RecordRun(date(2024, time.January, 5))

	s.PutErr = errors.New("disk full")
	assert.Error(t, tr.Flush(ctx))

	s.PutErr = nil
	require.NoError(t, tr.Flush(ctx))

	got, ok := tr.LastRun(ctx)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.January, 5), got)
}

func TestTracker_CorruptValueTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Put(ctx, "last_run", []byte("not-a-date")))
	tr := New(s, "last_run", time.UTC)

	_, ok := tr.LastRun(ctx)
	assert.False(t, ok)
}

func TestTracker_StoreReadFailureTreatedAsAbsent(t *testing.T) {
	s := store.NewMemoryStore()
	s.GetErr = errors.New("io error")
	tr := New(s, "last_run", time.UTC)

	_, ok := tr.LastRun(context.Background())
	assert.False(t, ok)
}

func TestTracker_MissedDates(t *testing.T) {
	tests := []struct {
		desc    string
		lastRun string
		today   time.Time
		want    []time.Time
	}{
		{
			desc:    "gap of several days",
			lastRun: "2024-01-01",
			today:   date(2024, time.January, 5),
			want: []time.Time{
				date(2024, time.January, 2),
				date(2024, time.January, 3),
				date(2024, time.January, 4),
			},
		},
		{
			desc:    "ran yesterday",
			lastRun: "2024-01-04",
			today:   date(2024, time.January, 5),
			want:    nil,
		},
		{
			desc:    "ran today already",
			lastRun: "2024-01-05",
			today:   date(2024, time.January, 5),
			want:    nil,
		},
		{
			desc:    "gap across a month boundary",
			lastRun: "2024-01-30",
			today:   date(2024, time.February, 2),
			want: []time.Time{
				date(2024, time.January, 31),
				date(2024, time.February, 1),
			},
		},
		{
			desc:    "gap across leap day",
			lastRun: "2024-02-28",
			today:   date(2024, time.March, 1),
			want: []time.Time{
				date(2024, time.February, 29),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemoryStore()
			require.NoError(t, s.Put(ctx, "last_run", []byte(tt.lastRun)))
			tr := New(s, "last_run", time.UTC)

			assert.Equal(t, tt.want, tr.MissedDates(ctx, tt.today))
		})
	}
}

func TestTracker_MissedDatesWithoutLastRun(t *testing.T) {
	tr := New(store.NewMemoryStore(), "last_run", time.UTC)

	missed := tr.MissedDates(context.Background(), date(2024, time.January, 5))
	assert.Empty(t, missed, "a first run has no backlog")
}
