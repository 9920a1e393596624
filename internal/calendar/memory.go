package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

// MemoryCalendar is an in-memory Target used by tests and dry runs.
type MemoryCalendar struct {
	mu     sync.Mutex
	events []Event

	// CreateErr, when set, makes every Create call fail. Tests use it to
	// exercise the engine's partial-failure accounting.
	CreateErr error
}

// NewMemoryCalendar creates an empty in-memory calendar.
func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{}
}

// Seed pre-populates the calendar with existing entries.
func (c *MemoryCalendar) Seed(events ...Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

// Events implements Target.
func (c *MemoryCalendar) Events(ctx context.Context, opts ReadOptions) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Event
	for _, e := range c.events {
		if !opts.Start.IsZero() && e.Start.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !e.Start.Before(opts.End) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Create implements Target.
func (c *MemoryCalendar) Create(ctx context.Context, title string, date time.Time, description string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CreateErr != nil {
		return "", c.CreateErr
	}

	id := uuid.NewString()
	c.events = append(c.events, Event{
		ID:             id,
		Title:          title,
		Start:          date,
		AllDay:         true,
		Description:    description,
		RecurrenceRule: config.RRuleYearly,
	})
	return id, nil
}

// Delete implements Target.
func (c *MemoryCalendar) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.events {
		if e.ID == id {
			c.events = append(c.events[:i], c.events[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Snapshot returns a copy of the current entries for assertions.
func (c *MemoryCalendar) Snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// String summarizes the calendar for debug logs.
func (c *MemoryCalendar) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("memory calendar (%d events)", len(c.events))
}
