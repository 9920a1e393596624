// Package engine reconciles spreadsheet-sourced birthday records against
// the target calendar without creating duplicates.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rolandmarg/birthday-bot/internal/calendar"
	"github.com/rolandmarg/birthday-bot/internal/config"
	"github.com/rolandmarg/birthday-bot/internal/parse"
	"github.com/rolandmarg/birthday-bot/internal/source"
)

// Result aggregates the outcome of one sync call.
type Result struct {
	Added   int
	Skipped int
	Errors  int
}

// Engine is the synchronization core. Collaborators are injected once at
// construction; the engine holds no hidden state between calls.
type Engine struct {
	Matcher calendar.Matcher
	Clock   Clock
	Loc     *time.Location
}

// New creates an Engine for the given timezone.
func New(clock Clock, loc *time.Location) *Engine {
	return &Engine{Clock: clock, Loc: loc}
}

// Sync reads all records from src, reads the target's existing entries, and
// creates an entry for every record that has no match yet.
//
// Per-record failures never abort the batch: a create failure increments
// Errors and the loop continues with the next record. Repeated calls against
// an unchanged source and target converge to Added == 0, because every entry
// created here matches its own record on the next pass.
func (e *Engine) Sync(ctx context.Context, src source.Source, target calendar.Target) (Result, error) {
	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompEngine)
	log.InfoContext(ctx, config.MsgSyncStarted)

	var res Result

	records, err := src.Records(ctx)
	if err != nil {
		return res, err
	}

	// Unbounded window: dedup must see yearly recurrences regardless of
	// which year's instance the target reports.
	existing, err := target.Events(ctx, calendar.ReadOptions{})
	if err != nil {
		return res, err
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if e.hasMatch(existing, rec) {
			res.Skipped++
			log.Debug(config.MsgRecordSkipped, config.LogKeyName, rec.FullName())
			continue
		}

		title := fmt.Sprintf(config.FormatEventTitle, rec.FullName())
		date, _ := NextOccurrence(e.Clock.Now().In(e.Loc), rec)

		// The birth year has no first-class field on most calendar
		// backends, so it rides along in a recoverable textual form.
		description := ""
		if rec.HasYear() {
			description = fmt.Sprintf(config.FormatBornYear, rec.Year)
		}

		if _, err := target.Create(ctx, title, date, description); err != nil {
			res.Errors++
			log.Warn(config.MsgCreateFailed,
				config.LogKeyName, rec.FullName(),
				config.LogKeyError, err,
			)
			continue
		}

		res.Added++
		log.Debug(config.MsgRecordAdded,
			config.LogKeyName, rec.FullName(),
			config.LogKeyDate, date.Format(config.DateFormatFullDash),
		)
	}

	log.Info(config.MsgSyncFinished,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyAdded, res.Added),
			slog.Int(config.LogKeySkipped, res.Skipped),
			slog.Int(config.LogKeyErrors, res.Errors),
		),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (e *Engine) hasMatch(existing []calendar.Event, rec parse.Record) bool {
	for _, ev := range existing {
		if !e.Matcher.IsBirthdayEvent(ev) {
			continue
		}
		if e.Matcher.MatchesRecord(ev, rec) {
			return true
		}
	}
	return false
}

// NextOccurrence determines the record's next birthday relative to now,
// today inclusive, along with the age reached on that date (0 when the birth
// year is unknown).
func NextOccurrence(now time.Time, rec parse.Record) (time.Time, int) {
	loc := now.Location()

	candidate := rec.DateIn(now.Year(), loc)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if candidate.Before(todayStart) {
		candidate = rec.DateIn(now.Year()+1, loc)
	}

	age := 0
	if rec.HasYear() {
		age = candidate.Year() - rec.Year
	}
	return candidate, age
}
