package calendar

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/emersion/go-ical"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

// ICSCalendar is a Target backed by a local iCalendar file, the "mirror
// calendar" a phone app can subscribe to through the feed server.
//
// The file is re-read on every call and rewritten atomically on every
// mutation. That is deliberately naive: the scheduler guarantees at most one
// invocation in flight, and the mutex only protects against the feed server
// reading mid-rewrite within one process.
type ICSCalendar struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

// NewICSCalendar creates an adapter over the .ics file at path.
func NewICSCalendar(path string, loc *time.Location) *ICSCalendar {
	return &ICSCalendar{path: path, loc: loc}
}

// Events implements Target.
func (c *ICSCalendar) Events(ctx context.Context, opts ReadOptions) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load()
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, ev := range cal.Events() {
		e := c.toEvent(ev)
		if !opts.Start.IsZero() && e.Start.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !e.Start.Before(opts.End) {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// Create implements Target. The entry is an all-day yearly recurrence with a
// deterministic UID so repeated creation of the same title+date is stable.
func (c *ICSCalendar) Create(ctx context.Context, title string, date time.Time, description string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load()
	if err != nil {
		return "", err
	}

	id := eventUID(title, date)

	ev := ical.NewEvent()
	ev.Props.SetText(config.PropUID, id)
	ev.Props.SetText(config.PropSummary, title)
	if description != "" {
		ev.Props.SetText(config.PropDesc, description)
	}

	dtStart := ical.NewProp(config.PropDTStart)
	dtStart.SetDate(date)
	ev.Props.Set(dtStart)

	dtStamp := ical.NewProp(config.PropDTStamp)
	dtStamp.SetDateTime(time.Now().UTC())
	ev.Props.Set(dtStamp)

	ev.Props.SetText(config.PropRRule, config.RRuleYearly)

	cal.Children = append(cal.Children, ev.Component)

	if err := c.write(cal); err != nil {
		return "", err
	}
	return id, nil
}

// Delete implements Target.
func (c *ICSCalendar) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load()
	if err != nil {
		return false, err
	}

	found := false
	kept := cal.Children[:0]
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			if uid := child.Props.Get(config.PropUID); uid != nil && uid.Value == id {
				found = true
				continue
			}
		}
		kept = append(kept, child)
	}
	if !found {
		return false, nil
	}

	cal.Children = kept
	if err := c.write(cal); err != nil {
		return false, err
	}
	return true, nil
}

// Bytes renders the current calendar for the feed server.
func (c *ICSCalendar) Bytes() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load()
	if err != nil {
		return nil, err
	}
	if len(cal.Children) == 0 {
		// A stub keeps subscribing clients from flagging the feed as invalid.
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// ModTime reports the mirror file's last modification time, zero when the
// file does not exist yet. The feed server uses it to spot staleness with a
// single stat instead of re-reading the file on every poll.
func (c *ICSCalendar) ModTime() (time.Time, error) {
	info, err := os.Stat(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// load reads the calendar file, returning a fresh calendar when the file
// does not exist yet.
func (c *ICSCalendar) load() (*ical.Calendar, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return newMirrorCalendar(), nil
	}
	if err != nil {
		return nil, err
	}

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalDecode, err)
	}
	return cal, nil
}

// write encodes and atomically replaces the calendar file.
func (c *ICSCalendar) write(cal *ical.Calendar) error {
	var buf bytes.Buffer
	if len(cal.Children) == 0 {
		// The encoder rejects a component-less VCALENDAR, so deleting the
		// last entry falls back to the same stub Bytes serves.
		buf.WriteString(config.StubVCalendar)
	} else if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	slog.Debug(config.MsgFeedUpdated,
		config.LogKeyComponent, config.CompCalendar,
		config.LogKeySizeBytes, buf.Len(),
	)
	return nil
}

func (c *ICSCalendar) toEvent(ev ical.Event) Event {
	e := Event{}
	if p := ev.Props.Get(config.PropUID); p != nil {
		e.ID = p.Value
	}
	if p := ev.Props.Get(config.PropSummary); p != nil {
		e.Title = p.Value
	}
	if p := ev.Props.Get(config.PropDesc); p != nil {
		e.Description = p.Value
	}
	if p := ev.Props.Get(config.PropRRule); p != nil {
		e.RecurrenceRule = p.Value
	}
	if p := ev.Props.Get(config.PropDTStart); p != nil {
		e.AllDay = p.ValueType() == ical.ValueDate
		if t, err := p.DateTime(c.loc); err == nil {
			e.Start = t
		}
	}
	return e
}

func newMirrorCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)
	return cal
}

// eventUID derives a stable identifier from the event's title and date so a
// re-created entry keeps its id across mirror rebuilds.
func eventUID(title string, date time.Time) string {
	input := fmt.Sprintf(config.FormatHashInput, title, date.Format(config.DateFormatFullDash), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), config.ICalDomain)
}
