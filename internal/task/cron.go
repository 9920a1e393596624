package task

import (
	"context"
	"fmt"
	"log/slog"

	cron "github.com/netresearch/go-cron"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

// Daemon schedules the daily and monthly flows in-process. It is an
// optional convenience for hosts without a system cron; the host scheduler
// remains the source of truth in production.
type Daemon struct {
	Orch       *Orchestrator
	Hour       int
	Minute     int
	RunAtStart bool
}

// Start registers the schedules and blocks until the context is cancelled.
// The monthly flow runs on the first of the month at the same clock time as
// the daily flow.
func (d *Daemon) Start(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompTask)

	c := cron.New(cron.WithLocation(d.Orch.Loc))

	daily := fmt.Sprintf(config.FormatCronDaily, d.Minute, d.Hour)
	if _, err := c.AddFunc(daily, func() {
		if err := d.Orch.Daily(ctx); err != nil {
			log.Error(config.ErrAppFailed, config.LogKeyError, err)
		}
	}); err != nil {
		return err
	}

	monthly := fmt.Sprintf(config.FormatCronMonthly, d.Minute, d.Hour)
	if _, err := c.AddFunc(monthly, func() {
		if err := d.Orch.Monthly(ctx); err != nil {
			log.Error(config.ErrAppFailed, config.LogKeyError, err)
		}
	}); err != nil {
		return err
	}

	log.Info(config.MsgDaemonStart,
		config.LogKeySchedule, daily,
	)
	c.Start()

	if d.RunAtStart {
		if err := d.Orch.Daily(ctx); err != nil {
			log.Error(config.ErrAppFailed, config.LogKeyError, err)
		}
	}

	<-ctx.Done()
	log.Info(config.MsgDaemonStop)
	<-c.Stop().Done()
	return nil
}
