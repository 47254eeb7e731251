package reminder

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/repos"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
)

type sentMessage struct {
	chatID string
	text   string
}

type fakeSink struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSink) Send(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSink) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeLocker struct {
	grant    bool
	released bool
}

func (f *fakeLocker) Acquire(context.Context, string, time.Duration) (bool, error) {
	return f.grant, nil
}

func (f *fakeLocker) Release(context.Context, string) error {
	f.released = true
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}, &types.Habit{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func seedUser(t *testing.T, db *gorm.DB, chatID string) *types.User {
	t.Helper()
	user := &types.User{
		ID:             uuid.New(),
		Email:          uuid.NewString() + "@example.com",
		Password:       "irrelevant",
		TelegramChatID: chatID,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedHabit(t *testing.T, db *gorm.DB, userID uuid.UUID, mutate func(*types.Habit)) *types.Habit {
	t.Helper()
	habit := &types.Habit{
		ID:              uuid.New(),
		UserID:          &userID,
		Time:            "17:31:00",
		PeriodicityDays: 1,
		Action:          "run",
		LeadTimeMinutes: 10,
	}
	if mutate != nil {
		mutate(habit)
	}
	if err := db.Create(habit).Error; err != nil {
		t.Fatalf("seed habit: %v", err)
	}
	return habit
}

func newTestSweeper(t *testing.T, db *gorm.DB, sink Sink, locker Locker) (*Sweeper, repos.HabitRepo) {
	t.Helper()
	log := newTestLogger()
	habitRepo := repos.NewHabitRepo(db, log)
	return NewSweeper(log, habitRepo, sink, locker, Config{}), habitRepo
}

// now is inside the habit's reminder hour (17:31:00).
var sweepNow = time.Date(2026, 8, 29, 17, 5, 0, 0, time.UTC)

func TestSweepSendsDueReminder(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{}
	sweeper, habitRepo := newTestSweeper(t, db, sink, nil)

	owner := seedUser(t, db, "12345")
	today := DateOf(sweepNow)
	place := "park"
	habit := seedHabit(t, db, owner.ID, func(h *types.Habit) {
		h.NextReminderDate = &today
		h.Place = &place
		h.PeriodicityDays = 3
	})

	stats, err := sweeper.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Scanned != 1 || stats.Due != 1 || stats.Sent != 1 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	msgs := sink.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}
	if msgs[0].chatID != "12345" {
		t.Errorf("chat id = %q, want %q", msgs[0].chatID, "12345")
	}
	if msgs[0].text != `Reminder: "run" at 17:31:00 in park` {
		t.Errorf("unexpected text: %q", msgs[0].text)
	}

	got, err := habitRepo.GetByID(context.Background(), nil, habit.ID)
	if err != nil {
		t.Fatalf("reload habit: %v", err)
	}
	want := time.Time(today).AddDate(0, 0, 3)
	if got.NextReminderDate == nil || !time.Time(*got.NextReminderDate).Equal(want) {
		t.Errorf("date = %v, want advanced to %v", got.NextReminderDate, want)
	}
}

func TestSweepIsIdempotentWithinTheHour(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{}
	sweeper, _ := newTestSweeper(t, db, sink, nil)

	owner := seedUser(t, db, "12345")
	today := DateOf(sweepNow)
	seedHabit(t, db, owner.ID, func(h *types.Habit) { h.NextReminderDate = &today })

	if _, err := sweeper.Run(context.Background(), sweepNow); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	stats, err := sweeper.Run(context.Background(), sweepNow.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if stats.Sent != 0 {
		t.Errorf("second run sent %d reminders, want 0", stats.Sent)
	}
	if len(sink.messages()) != 1 {
		t.Errorf("total messages = %d, want 1", len(sink.messages()))
	}
}

func TestSweepFailureKeepsSchedule(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{err: errors.New("telegram down")}
	sweeper, habitRepo := newTestSweeper(t, db, sink, nil)

	owner := seedUser(t, db, "12345")
	today := DateOf(sweepNow)
	habit := seedHabit(t, db, owner.ID, func(h *types.Habit) { h.NextReminderDate = &today })

	stats, err := sweeper.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failed != 1 || stats.Sent != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	got, err := habitRepo.GetByID(context.Background(), nil, habit.ID)
	if err != nil {
		t.Fatalf("reload habit: %v", err)
	}
	if got.NextReminderDate == nil || !time.Time(*got.NextReminderDate).Equal(time.Time(today)) {
		t.Errorf("date moved after failed delivery: %v", got.NextReminderDate)
	}

	// Delivery recovers on a later sweep.
	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()
	stats, err = sweeper.Run(context.Background(), sweepNow.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("retry Run: %v", err)
	}
	if stats.Sent != 1 {
		t.Errorf("retry sent = %d, want 1", stats.Sent)
	}
}

func TestSweepInitializesMissingDate(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{}
	sweeper, habitRepo := newTestSweeper(t, db, sink, nil)

	owner := seedUser(t, db, "12345")
	// Reminder hour does not match now, so nothing is sent, but the date
	// must be initialized and persisted.
	habit := seedHabit(t, db, owner.ID, func(h *types.Habit) { h.Time = "06:00:00" })

	stats, err := sweeper.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Sent != 0 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	got, err := habitRepo.GetByID(context.Background(), nil, habit.ID)
	if err != nil {
		t.Fatalf("reload habit: %v", err)
	}
	today := DateOf(sweepNow)
	if got.NextReminderDate == nil || !time.Time(*got.NextReminderDate).Equal(time.Time(today)) {
		t.Errorf("date = %v, want initialized to %v", got.NextReminderDate, today)
	}
}

func TestSweepSkipsWithoutChatID(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{}
	sweeper, habitRepo := newTestSweeper(t, db, sink, nil)

	owner := seedUser(t, db, "")
	today := DateOf(sweepNow)
	habit := seedHabit(t, db, owner.ID, func(h *types.Habit) { h.NextReminderDate = &today })

	stats, err := sweeper.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Skipped != 1 || stats.Sent != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(sink.messages()) != 0 {
		t.Errorf("sent %d messages to a user without a chat id", len(sink.messages()))
	}

	// The schedule stays put until the user connects telegram.
	got, err := habitRepo.GetByID(context.Background(), nil, habit.ID)
	if err != nil {
		t.Fatalf("reload habit: %v", err)
	}
	if got.NextReminderDate == nil || !time.Time(*got.NextReminderDate).Equal(time.Time(today)) {
		t.Errorf("date moved for a skipped habit: %v", got.NextReminderDate)
	}
}

func TestSweepHonorsLease(t *testing.T) {
	db := newTestDB(t)
	sink := &fakeSink{}

	owner := seedUser(t, db, "12345")
	today := DateOf(sweepNow)
	seedHabit(t, db, owner.ID, func(h *types.Habit) { h.NextReminderDate = &today })

	t.Run("lease held elsewhere", func(t *testing.T) {
		sweeper, _ := newTestSweeper(t, db, sink, &fakeLocker{grant: false})
		stats, err := sweeper.Run(context.Background(), sweepNow)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if stats.Scanned != 0 || len(sink.messages()) != 0 {
			t.Errorf("sweep ran without holding the lease: %+v", stats)
		}
	})

	t.Run("lease granted and released", func(t *testing.T) {
		locker := &fakeLocker{grant: true}
		sweeper, _ := newTestSweeper(t, db, sink, locker)
		stats, err := sweeper.Run(context.Background(), sweepNow)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if stats.Sent != 1 {
			t.Errorf("sent = %d, want 1", stats.Sent)
		}
		if !locker.released {
			t.Error("lease not released after the run")
		}
	})
}

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 8, 29, 17, 45, 0, 0, time.UTC)
	tests := []struct {
		name      string
		next      datatypes.Date
		timeOfDay string
		want      bool
		wantErr   bool
	}{
		{
			name:      "today at the matching hour",
			next:      DateOf(now),
			timeOfDay: "17:31:00",
			want:      true,
		},
		{
			name:      "overdue date still fires at the hour",
			next:      datatypes.Date(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)),
			timeOfDay: "17:00:00",
			want:      true,
		},
		{
			name:      "wrong hour",
			next:      DateOf(now),
			timeOfDay: "18:31:00",
			want:      false,
		},
		{
			name:      "future date",
			next:      datatypes.Date(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)),
			timeOfDay: "17:31:00",
			want:      false,
		},
		{
			name:      "unparseable time",
			next:      DateOf(now),
			timeOfDay: "sometime",
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsDue(tt.next, tt.timeOfDay, now)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("IsDue: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReminderText(t *testing.T) {
	place := "park"
	withPlace := &types.Habit{Action: "run", Time: "17:31:00", Place: &place}
	if got := ReminderText(withPlace); got != `Reminder: "run" at 17:31:00 in park` {
		t.Errorf("unexpected text: %q", got)
	}
	withoutPlace := &types.Habit{Action: "run", Time: "17:31:00"}
	if got := ReminderText(withoutPlace); got != `Reminder: "run" at 17:31:00` {
		t.Errorf("unexpected text: %q", got)
	}
}
