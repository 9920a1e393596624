// Package calendar defines the canonical view of target-calendar entries,
// the birthday matching heuristics, and the concrete target adapters.
package calendar

import (
	"context"
	"time"
)

// Event is the engine's read-only view of a target-calendar entry.
// The target collaborator owns the underlying data.
type Event struct {
	ID          string
	Title       string
	Start       time.Time
	AllDay      bool
	Description string

	// RecurrenceRule is the raw RRULE value, empty for one-off entries.
	RecurrenceRule string

	// RecurringEventID points at the parent entry when this event is an
	// expanded instance of a recurring series.
	RecurringEventID string
}

// IsYearlyRecurring reports whether the entry repeats once a year.
func (e Event) IsYearlyRecurring() bool {
	return containsFold(e.RecurrenceRule, "FREQ=YEARLY")
}

// ReadOptions bounds a target read to a date window. Zero values mean
// unbounded on that side.
type ReadOptions struct {
	Start time.Time
	End   time.Time
}

// Target is the calendar collaborator the sync engine writes into.
type Target interface {
	// Events returns existing entries inside the window.
	Events(ctx context.Context, opts ReadOptions) ([]Event, error)

	// Create adds an all-day yearly entry and returns its id.
	Create(ctx context.Context, title string, date time.Time, description string) (string, error)

	// Delete removes an entry, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}
