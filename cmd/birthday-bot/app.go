package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rolandmarg/birthday-bot/internal/calendar"
	"github.com/rolandmarg/birthday-bot/internal/config"
	"github.com/rolandmarg/birthday-bot/internal/engine"
	"github.com/rolandmarg/birthday-bot/internal/notify"
	"github.com/rolandmarg/birthday-bot/internal/source"
	"github.com/rolandmarg/birthday-bot/internal/store"
	"github.com/rolandmarg/birthday-bot/internal/task"
	"github.com/rolandmarg/birthday-bot/internal/tracker"
)

// app holds the wired collaborators for one process. Everything is built
// once here and passed by reference; no package keeps hidden global state.
type app struct {
	Cfg    *config.Config
	Loc    *time.Location
	Source source.Source
	Target calendar.Target
	ICS    *calendar.ICSCalendar
	Engine *engine.Engine
	Orch   *task.Orchestrator
}

// buildApp loads configuration and constructs the collaborator graph.
func buildApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	stateDir, err := cfg.StateDir()
	if err != nil {
		return nil, err
	}
	st, err := store.NewFileStore(stateDir)
	if err != nil {
		return nil, err
	}
	trk := tracker.New(st, cfg.State.Key, loc)

	fetcher := source.NewHTTPFetcher()
	src, err := buildSource(cfg, fetcher)
	if err != nil {
		return nil, err
	}

	ics := calendar.NewICSCalendar(cfg.Calendar.Path, loc)

	channels, err := buildChannels(cfg)
	if err != nil {
		return nil, err
	}

	clock := engine.RealClock{}
	eng := engine.New(clock, loc)

	orch := &task.Orchestrator{
		Tracker:    trk,
		Engine:     eng,
		Source:     src,
		Target:     ics,
		Dispatcher: notify.NewDispatcher(cfg.Notify.SendLimit),
		Channels:   channels,
		Recipients: cfg.Notify.Recipients,
		Formatter:  notify.NewFormatter(cfg.Notify.Language),
		Clock:      clock,
		Loc:        loc,
	}

	return &app{
		Cfg:    cfg,
		Loc:    loc,
		Source: src,
		Target: ics,
		ICS:    ics,
		Engine: eng,
		Orch:   orch,
	}, nil
}

// buildSource is the explicit registry mapping source kinds to constructors.
func buildSource(cfg *config.Config, f source.Fetcher) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceKindCSV:
		return source.NewCSVSource(cfg.Source, f), nil
	case config.SourceKindVCard:
		return source.NewVCardSource(cfg.Source, f), nil
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrSourceKind, cfg.Source.Kind)
	}
}

// buildChannels is the explicit registry mapping channel kinds to
// constructors; no dynamic loading, the enum is closed.
func buildChannels(cfg *config.Config) ([]notify.Channel, error) {
	var channels []notify.Channel
	for _, kind := range cfg.Notify.Channels {
		switch kind {
		case config.ChannelKindConsole:
			channels = append(channels, notify.NewConsoleChannel(os.Stdout))
		case config.ChannelKindWebhook:
			channels = append(channels, notify.NewWebhookChannel(cfg.Notify.WebhookURL, cfg.WebhookToken()))
		default:
			return nil, fmt.Errorf("%s: %q", config.ErrChannelKind, kind)
		}
	}
	return channels, nil
}
