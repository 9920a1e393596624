// Package task composes the tracker, sync engine, and dispatcher into the
// end-to-end daily and monthly flows, including missed-day catch-up.
package task

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rolandmarg/birthday-bot/internal/calendar"
	"github.com/rolandmarg/birthday-bot/internal/config"
	"github.com/rolandmarg/birthday-bot/internal/engine"
	"github.com/rolandmarg/birthday-bot/internal/notify"
	"github.com/rolandmarg/birthday-bot/internal/parse"
	"github.com/rolandmarg/birthday-bot/internal/source"
	"github.com/rolandmarg/birthday-bot/internal/tracker"
)

// Orchestrator wires the collaborators together. All dependencies are
// injected at construction; there is no module-level state.
type Orchestrator struct {
	Tracker    *tracker.Tracker
	Engine     *engine.Engine
	Source     source.Source
	Target     calendar.Target
	Dispatcher *notify.Dispatcher
	Channels   []notify.Channel
	Recipients []string
	Formatter  *notify.Formatter
	Clock      engine.Clock
	Loc        *time.Location
}

// Daily runs the daily flow: catch up every missed day oldest first, then
// notify for today, then record the run.
//
// The tracker flush is deferred on every exit path so the buffered last-run
// state is persisted exactly once per invocation, even when the flow fails
// partway. Failed sends are captured in results and logged; they do not
// fail the day, because the next run's missed-day recovery re-covers it.
func (o *Orchestrator) Daily(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompTask)
	log.InfoContext(ctx, config.MsgDailyStart)

	// Flush must run even when ctx is already cancelled on the way out.
	defer func() {
		_ = o.Tracker.Flush(context.WithoutCancel(ctx))
	}()

	records, err := o.Source.Records(ctx)
	if err != nil {
		return err
	}

	today := o.day(o.Clock.Now())

	missed := o.Tracker.MissedDates(ctx, today)
	if len(missed) > 0 {
		log.Info(config.MsgMissedDays,
			config.LogKeyMissed, len(missed),
		)
	}
	for _, day := range missed {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.notifyBelated(ctx, records, day)
		// Progress is recorded per day so an interruption mid-backlog
		// resumes where it stopped instead of repeating the whole range.
		o.Tracker.RecordRun(day)
		log.Debug(config.MsgCatchUpComplete,
			config.LogKeyDay, day.Format(config.DateFormatFullDash),
		)
	}

	o.notifyToday(ctx, records, today)
	o.Tracker.RecordRun(today)

	log.InfoContext(ctx, config.MsgDailyDone)
	return nil
}

// Monthly runs the monthly flow: mirror the source into the target calendar,
// then send a digest of the month's birthdays.
func (o *Orchestrator) Monthly(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompTask)
	log.InfoContext(ctx, config.MsgMonthlyStart)

	if _, err := o.Engine.Sync(ctx, o.Source, o.Target); err != nil {
		return err
	}

	records, err := o.Source.Records(ctx)
	if err != nil {
		return err
	}

	now := o.Clock.Now().In(o.Loc)
	o.Dispatcher.SendToAll(ctx, o.monthlyDigest(records, now), o.Channels, o.Recipients)

	log.InfoContext(ctx, config.MsgMonthlyDone)
	return nil
}

// notifyToday sends the message for birthdays falling on day.
func (o *Orchestrator) notifyToday(ctx context.Context, records []parse.Record, day time.Time) {
	celebrants := birthdaysOn(records, day, o.Loc)
	if len(celebrants) == 0 {
		slog.Debug(config.MsgNoBirthdays,
			config.LogKeyComponent, config.CompTask,
			config.LogKeyDay, day.Format(config.DateFormatFullDash),
		)
		return
	}

	lines := make([]string, 0, len(celebrants))
	for _, rec := range celebrants {
		age := 0
		if rec.HasYear() {
			age = day.Year() - rec.Year
		}
		lines = append(lines, o.Formatter.TodayLine(rec.FullName(), age))
	}

	slog.Info(config.MsgBirthdaysToday,
		config.LogKeyComponent, config.CompTask,
		config.LogKeyDay, day.Format(config.DateFormatFullDash),
		config.LogKeyCount, len(celebrants),
	)
	o.Dispatcher.SendToAll(ctx, strings.Join(lines, "\n"), o.Channels, o.Recipients)
}

// notifyBelated sends the catch-up message for one missed day.
func (o *Orchestrator) notifyBelated(ctx context.Context, records []parse.Record, day time.Time) {
	celebrants := birthdaysOn(records, day, o.Loc)
	if len(celebrants) == 0 {
		return
	}

	date := day.Format(config.DateFormatDayMonth)
	lines := make([]string, 0, len(celebrants))
	for _, rec := range celebrants {
		lines = append(lines, o.Formatter.BelatedLine(rec.FullName(), date))
	}
	o.Dispatcher.SendToAll(ctx, strings.Join(lines, "\n"), o.Channels, o.Recipients)
}

// monthlyDigest renders the list of birthdays in now's month, by day.
func (o *Orchestrator) monthlyDigest(records []parse.Record, now time.Time) string {
	month := now.Month()

	var inMonth []parse.Record
	for _, rec := range records {
		// Materializing in the current year folds leaplings into the
		// month they are actually celebrated this year.
		if rec.DateIn(now.Year(), o.Loc).Month() == month {
			inMonth = append(inMonth, rec)
		}
	}
	if len(inMonth) == 0 {
		return o.Formatter.MonthlyEmpty(month.String())
	}

	sort.SliceStable(inMonth, func(i, j int) bool {
		return inMonth[i].Day < inMonth[j].Day
	})

	lines := []string{o.Formatter.MonthlyHeader(month.String())}
	for _, rec := range inMonth {
		date := rec.DateIn(now.Year(), o.Loc).Format(config.DateFormatDayMonth)
		lines = append(lines, o.Formatter.MonthlyLine(rec.FullName(), date))
	}
	return strings.Join(lines, "\n")
}

// birthdaysOn returns the records celebrated on day. Comparing materialized
// dates rather than raw month/day folds Feb 29 birthdays onto Mar 1 in
// non-leap years.
func birthdaysOn(records []parse.Record, day time.Time, loc *time.Location) []parse.Record {
	var out []parse.Record
	for _, rec := range records {
		d := rec.DateIn(day.Year(), loc)
		if d.Month() == day.Month() && d.Day() == day.Day() {
			out = append(out, rec)
		}
	}
	return out
}

func (o *Orchestrator) day(ts time.Time) time.Time {
	y, m, d := ts.In(o.Loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, o.Loc)
}
