package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/repos"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
	"github.com/petrovi-4/habit-tracker-backend/internal/validation"
)

const (
	DefaultPageSize = 5
	MaxPageSize     = 50
)

type CreateHabitInput struct {
	Place             *string
	Time              string
	PeriodicityDays   *int
	Action            string
	IsPleasurable     bool
	AssociatedHabitID *uuid.UUID
	Reward            *string
	LeadTimeMinutes   *int
	IsPublic          bool
}

type UpdateHabitInput struct {
	Place             *string
	Time              *string
	PeriodicityDays   *int
	Action            *string
	IsPleasurable     *bool
	AssociatedHabitID *uuid.UUID
	Reward            *string
	LeadTimeMinutes   *int
	IsPublic          *bool
}

// PublicHabit is the reduced field set for the public listing: no id and no
// owner-identifying data.
type PublicHabit struct {
	Action          string  `json:"action"`
	Time            string  `json:"time"`
	PeriodicityDays int     `json:"periodicity_days"`
	Place           *string `json:"place"`
	IsPleasurable   bool    `json:"is_pleasurable"`
	Reward          *string `json:"reward"`
	LeadTimeMinutes int     `json:"lead_time_minutes"`
}

type HabitPage struct {
	Items    []*types.Habit `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type PublicHabitPage struct {
	Items    []PublicHabit `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type HabitService interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateHabitInput) (*types.Habit, error)
	Update(ctx context.Context, userID, habitID uuid.UUID, in UpdateHabitInput) (*types.Habit, error)
	Delete(ctx context.Context, userID, habitID uuid.UUID) error
	Get(ctx context.Context, userID, habitID uuid.UUID) (*types.Habit, error)
	ListOwned(ctx context.Context, userID uuid.UUID, page, pageSize int) (*HabitPage, error)
	ListPublic(ctx context.Context, page, pageSize int) (*PublicHabitPage, error)
}

type habitService struct {
	db        *gorm.DB
	log       *logger.Logger
	habitRepo repos.HabitRepo
	rules     validation.Chain
}

func NewHabitService(db *gorm.DB, log *logger.Logger, habitRepo repos.HabitRepo) HabitService {
	hs := &habitService{
		db:        db,
		log:       log.With("service", "HabitService"),
		habitRepo: habitRepo,
	}
	hs.rules = validation.HabitRules(hs.lookupPleasurable)
	return hs
}

func (hs *habitService) lookupPleasurable(ctx context.Context, id uuid.UUID) (bool, error) {
	habit, err := hs.habitRepo.GetByID(ctx, nil, id)
	if errors.Is(err, repos.ErrRecordNotFound) {
		return false, validation.ErrHabitNotFound
	}
	if err != nil {
		return false, err
	}
	return habit.IsPleasurable, nil
}

func (hs *habitService) Create(ctx context.Context, userID uuid.UUID, in CreateHabitInput) (*types.Habit, error) {
	action := strings.TrimSpace(in.Action)
	if action == "" {
		return nil, &validation.Error{Message: "action is required"}
	}
	if in.LeadTimeMinutes == nil {
		return nil, &validation.Error{Message: "lead time is required"}
	}
	timeOfDay, err := canonicalTimeOfDay(in.Time)
	if err != nil {
		return nil, err
	}

	periodicity := 1
	if in.PeriodicityDays != nil {
		periodicity = *in.PeriodicityDays
	}
	if periodicity < 1 {
		return nil, &validation.Error{Message: "periodicity must be a positive number of days"}
	}

	habit := &types.Habit{
		ID:                uuid.New(),
		UserID:            &userID,
		Place:             normalizeOptional(in.Place),
		Time:              timeOfDay,
		PeriodicityDays:   periodicity,
		Action:            action,
		IsPleasurable:     in.IsPleasurable,
		AssociatedHabitID: normalizeAssociation(in.AssociatedHabitID),
		Reward:            normalizeOptional(in.Reward),
		LeadTimeMinutes:   *in.LeadTimeMinutes,
		IsPublic:          in.IsPublic,
	}

	if err := hs.rules.Check(ctx, candidateOf(habit)); err != nil {
		return nil, err
	}

	if err := hs.habitRepo.Create(ctx, nil, habit); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	hs.log.Info("Habit created", "habit_id", habit.ID, "user_id", userID)
	return habit, nil
}

func (hs *habitService) Update(ctx context.Context, userID, habitID uuid.UUID, in UpdateHabitInput) (*types.Habit, error) {
	habit, err := hs.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	if in.Action != nil {
		action := strings.TrimSpace(*in.Action)
		if action == "" {
			return nil, &validation.Error{Message: "action is required"}
		}
		habit.Action = action
	}
	if in.Time != nil {
		timeOfDay, err := canonicalTimeOfDay(*in.Time)
		if err != nil {
			return nil, err
		}
		habit.Time = timeOfDay
	}
	if in.PeriodicityDays != nil {
		if *in.PeriodicityDays < 1 {
			return nil, &validation.Error{Message: "periodicity must be a positive number of days"}
		}
		habit.PeriodicityDays = *in.PeriodicityDays
	}
	if in.Place != nil {
		habit.Place = normalizeOptional(in.Place)
	}
	if in.IsPleasurable != nil {
		habit.IsPleasurable = *in.IsPleasurable
	}
	if in.AssociatedHabitID != nil {
		habit.AssociatedHabitID = normalizeAssociation(in.AssociatedHabitID)
	}
	if in.Reward != nil {
		habit.Reward = normalizeOptional(in.Reward)
	}
	if in.LeadTimeMinutes != nil {
		habit.LeadTimeMinutes = *in.LeadTimeMinutes
	}
	if in.IsPublic != nil {
		habit.IsPublic = *in.IsPublic
	}

	// The rule chain always sees the fully merged record, not the patch.
	if err := hs.rules.Check(ctx, candidateOf(habit)); err != nil {
		return nil, err
	}

	if err := hs.habitRepo.Update(ctx, nil, habit); err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return habit, nil
}

func (hs *habitService) Delete(ctx context.Context, userID, habitID uuid.UUID) error {
	if _, err := hs.ownedHabit(ctx, userID, habitID); err != nil {
		return err
	}
	return hs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := hs.habitRepo.ClearAssociationsTo(ctx, tx, habitID); err != nil {
			return fmt.Errorf("clear associations: %w", err)
		}
		if err := hs.habitRepo.Delete(ctx, tx, habitID); err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	})
}

func (hs *habitService) Get(ctx context.Context, userID, habitID uuid.UUID) (*types.Habit, error) {
	return hs.ownedHabit(ctx, userID, habitID)
}

func (hs *habitService) ListOwned(ctx context.Context, userID uuid.UUID, page, pageSize int) (*HabitPage, error) {
	page, pageSize = clampPage(page, pageSize)
	habits, total, err := hs.habitRepo.ListByOwner(ctx, nil, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return &HabitPage{Items: habits, Total: total, Page: page, PageSize: pageSize}, nil
}

func (hs *habitService) ListPublic(ctx context.Context, page, pageSize int) (*PublicHabitPage, error) {
	page, pageSize = clampPage(page, pageSize)
	habits, total, err := hs.habitRepo.ListPublic(ctx, nil, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list public habits: %w", err)
	}
	items := make([]PublicHabit, 0, len(habits))
	for _, h := range habits {
		items = append(items, PublicHabit{
			Action:          h.Action,
			Time:            h.Time,
			PeriodicityDays: h.PeriodicityDays,
			Place:           h.Place,
			IsPleasurable:   h.IsPleasurable,
			Reward:          h.Reward,
			LeadTimeMinutes: h.LeadTimeMinutes,
		})
	}
	return &PublicHabitPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (hs *habitService) ownedHabit(ctx context.Context, userID, habitID uuid.UUID) (*types.Habit, error) {
	habit, err := hs.habitRepo.GetByID(ctx, nil, habitID)
	if errors.Is(err, repos.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load habit: %w", err)
	}
	if habit.UserID == nil || *habit.UserID != userID {
		return nil, ErrForbidden
	}
	return habit, nil
}

func candidateOf(h *types.Habit) validation.Candidate {
	return validation.Candidate{
		LeadTimeMinutes:   h.LeadTimeMinutes,
		PeriodicityDays:   h.PeriodicityDays,
		IsPleasurable:     h.IsPleasurable,
		AssociatedHabitID: h.AssociatedHabitID,
		Reward:            h.Reward,
	}
}

// canonicalTimeOfDay accepts "17:31:00" or "17:31" and stores the long form.
func canonicalTimeOfDay(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &validation.Error{Message: "time is required"}
	}
	t, err := time.Parse(types.TimeOfDayLayout, raw)
	if err != nil {
		t, err = time.Parse("15:04", raw)
	}
	if err != nil {
		return "", &validation.Error{Message: "time must be in HH:MM:SS format"}
	}
	return t.Format(types.TimeOfDayLayout), nil
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeAssociation(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
