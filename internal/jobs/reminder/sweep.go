package reminder

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/repos"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
)

// Sink delivers a reminder to a notification channel. Implementations must
// honor the context deadline.
type Sink interface {
	Send(ctx context.Context, chatID string, text string) error
}

// Locker makes the sweep single-flight when several instances share a
// database. A nil Locker disables the lease.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const (
	leaseKey = "habits:reminder-sweep"
	leaseTTL = 50 * time.Minute
)

type Config struct {
	SendTimeout time.Duration
	Concurrency int
}

// Stats summarizes one sweep invocation.
type Stats struct {
	Scanned int64
	Due     int64
	Sent    int64
	Failed  int64
	Skipped int64
}

type Sweeper struct {
	log         *logger.Logger
	habitRepo   repos.HabitRepo
	sink        Sink
	locker      Locker
	sendTimeout time.Duration
	concurrency int
}

func NewSweeper(log *logger.Logger, habitRepo repos.HabitRepo, sink Sink, locker Locker, cfg Config) *Sweeper {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Sweeper{
		log:         log.With("job", "ReminderSweep"),
		habitRepo:   habitRepo,
		sink:        sink,
		locker:      locker,
		sendTimeout: cfg.SendTimeout,
		concurrency: cfg.Concurrency,
	}
}

// Run scans every habit, sends reminders for the due ones and advances their
// schedule. Per-habit failures are isolated; only the inability to enumerate
// the collection fails the invocation.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (Stats, error) {
	if s.locker != nil {
		ok, err := s.locker.Acquire(ctx, leaseKey, leaseTTL)
		if err != nil {
			return Stats{}, fmt.Errorf("acquire sweep lease: %w", err)
		}
		if !ok {
			s.log.Info("Sweep lease held elsewhere, skipping run")
			return Stats{}, nil
		}
		defer func() {
			if rErr := s.locker.Release(context.WithoutCancel(ctx), leaseKey); rErr != nil {
				s.log.Warn("Failed to release sweep lease", "error", rErr)
			}
		}()
	}

	habits, err := s.habitRepo.ListAllWithOwners(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("enumerate habits: %w", err)
	}

	var scanned, due, sent, failed, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, habit := range habits {
		habit := habit
		g.Go(func() error {
			scanned.Add(1)
			switch s.process(gctx, habit, now) {
			case outcomeSent:
				due.Add(1)
				sent.Add(1)
			case outcomeFailed:
				due.Add(1)
				failed.Add(1)
			case outcomeSkipped:
				skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := Stats{
		Scanned: scanned.Load(),
		Due:     due.Load(),
		Sent:    sent.Load(),
		Failed:  failed.Load(),
		Skipped: skipped.Load(),
	}
	s.log.Info("Sweep finished",
		"scanned", stats.Scanned, "due", stats.Due,
		"sent", stats.Sent, "failed", stats.Failed, "skipped", stats.Skipped)
	return stats, nil
}

type outcome int

const (
	outcomeNotDue outcome = iota
	outcomeSent
	outcomeFailed
	outcomeSkipped
)

func (s *Sweeper) process(ctx context.Context, habit *types.Habit, now time.Time) outcome {
	log := s.log.With("habit_id", habit.ID)

	next := habit.NextReminderDate
	if next == nil {
		// Lazily initialize and persist right away so later ticks today do
		// not recompute it.
		today := DateOf(now)
		if _, err := s.habitRepo.InitNextReminder(ctx, nil, habit.ID, today); err != nil {
			log.Error("Failed to initialize reminder date", "error", err)
			return outcomeFailed
		}
		next = &today
	}

	dueNow, err := IsDue(*next, habit.Time, now)
	if err != nil {
		log.Error("Unparseable habit time", "time", habit.Time, "error", err)
		return outcomeSkipped
	}
	if !dueNow {
		return outcomeNotDue
	}

	if habit.User == nil || habit.User.TelegramChatID == "" {
		// No notification channel configured; nothing to deliver.
		return outcomeSkipped
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.sink.Send(sendCtx, habit.User.TelegramChatID, ReminderText(habit)); err != nil {
		// Schedule state stays put so the habit is retried next sweep.
		log.Warn("Reminder delivery failed, will retry next sweep", "error", err)
		return outcomeFailed
	}

	advanced := datatypes.Date(time.Time(*next).AddDate(0, 0, habit.PeriodicityDays))
	ok, err := s.habitRepo.AdvanceNextReminder(ctx, nil, habit.ID, *next, advanced)
	if err != nil {
		log.Error("Failed to advance reminder date", "error", err)
		return outcomeFailed
	}
	if !ok {
		// A concurrent edit moved the date; the sent reminder stands and the
		// newer schedule wins.
		log.Debug("Reminder date changed concurrently, not advancing")
	}
	return outcomeSent
}

// IsDue reports whether a habit with the given reminder date and time-of-day
// is due at the wall-clock moment now: the date has arrived and the hour
// matches (minutes and seconds are ignored).
func IsDue(next datatypes.Date, timeOfDay string, now time.Time) (bool, error) {
	t, err := time.Parse(types.TimeOfDayLayout, timeOfDay)
	if err != nil {
		return false, err
	}
	today := time.Time(DateOf(now))
	return !time.Time(next).After(today) && t.Hour() == now.Hour(), nil
}

// DateOf truncates a wall-clock moment to its UTC calendar date.
func DateOf(t time.Time) datatypes.Date {
	return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

// ReminderText is the fixed notification template embedding the action,
// time and place.
func ReminderText(h *types.Habit) string {
	if h.Place != nil {
		return fmt.Sprintf("Reminder: %q at %s in %s", h.Action, h.Time, *h.Place)
	}
	return fmt.Sprintf("Reminder: %q at %s", h.Action, h.Time)
}
