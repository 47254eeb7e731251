package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/petrovi-4/habit-tracker-backend/internal/jobs/reminder"
	"github.com/petrovi-4/habit-tracker-backend/internal/platform/redisx"
	"github.com/petrovi-4/habit-tracker-backend/internal/platform/telegram"
)

// wireSweeper builds the reminder sweep. Without a telegram token there is
// nothing to deliver to, so the job stays unscheduled.
func (a *App) wireSweeper() error {
	if a.Cfg.TelegramToken == "" {
		a.Log.Warn("TELEGRAM_BOT_TOKEN not set, reminder sweep disabled")
		return nil
	}

	sink, err := telegram.NewBotSink(a.Cfg.TelegramToken, a.Cfg.SweepSendTimeout, a.Log)
	if err != nil {
		return err
	}

	var locker reminder.Locker
	if a.Redis != nil {
		locker = redisx.NewLeaseLocker(a.Redis, a.Log)
	}

	a.Sweeper = reminder.NewSweeper(a.Log, a.Repos.Habit, sink, locker, reminder.Config{
		SendTimeout: a.Cfg.SweepSendTimeout,
		Concurrency: a.Cfg.SweepConcurrency,
	})
	return nil
}

func (a *App) setupCronJobs() error {
	if a.Sweeper == nil {
		return nil
	}
	a.cron = cron.New()
	_, err := a.cron.AddFunc(a.Cfg.SweepCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := a.Sweeper.Run(ctx, time.Now()); err != nil {
			a.Log.Error("Reminder sweep failed", "error", err)
		}
	})
	return err
}
