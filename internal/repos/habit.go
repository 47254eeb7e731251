package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
)

type HabitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, habit *types.Habit) error
	GetByID(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) (*types.Habit, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.Habit, int64, error)
	ListPublic(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Habit, int64, error)
	ListAllWithOwners(ctx context.Context, tx *gorm.DB) ([]*types.Habit, error)
	Update(ctx context.Context, tx *gorm.DB, habit *types.Habit) error
	Delete(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) error
	ClearAssociationsTo(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) error
	InitNextReminder(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, date datatypes.Date) (bool, error)
	AdvanceNextReminder(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, from, to datatypes.Date) (bool, error)
}

type habitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitRepo(db *gorm.DB, baseLog *logger.Logger) HabitRepo {
	return &habitRepo{db: db, log: baseLog.With("repo", "HabitRepo")}
}

func (hr *habitRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return hr.db
}

func (hr *habitRepo) Create(ctx context.Context, tx *gorm.DB, habit *types.Habit) error {
	return hr.conn(tx).WithContext(ctx).Create(habit).Error
}

func (hr *habitRepo) GetByID(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) (*types.Habit, error) {
	var habit types.Habit
	err := hr.conn(tx).WithContext(ctx).
		Where("id = ?", habitID).
		First(&habit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

func (hr *habitRepo) ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.Habit, int64, error) {
	db := hr.conn(tx).WithContext(ctx).
		Model(&types.Habit{}).
		Where("user_id = ?", userID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var habits []*types.Habit
	if err := db.Order("time_of_day DESC").
		Limit(limit).Offset(offset).
		Find(&habits).Error; err != nil {
		return nil, 0, err
	}
	return habits, total, nil
}

func (hr *habitRepo) ListPublic(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Habit, int64, error) {
	db := hr.conn(tx).WithContext(ctx).
		Model(&types.Habit{}).
		Where("is_public = ?", true)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var habits []*types.Habit
	if err := db.Order("time_of_day DESC").
		Limit(limit).Offset(offset).
		Find(&habits).Error; err != nil {
		return nil, 0, err
	}
	return habits, total, nil
}

// ListAllWithOwners loads every habit with its owner preloaded. The reminder
// sweep reads the owner's telegram chat id per habit.
func (hr *habitRepo) ListAllWithOwners(ctx context.Context, tx *gorm.DB) ([]*types.Habit, error) {
	var habits []*types.Habit
	if err := hr.conn(tx).WithContext(ctx).
		Preload("User").
		Find(&habits).Error; err != nil {
		return nil, err
	}
	return habits, nil
}

func (hr *habitRepo) Update(ctx context.Context, tx *gorm.DB, habit *types.Habit) error {
	return hr.conn(tx).WithContext(ctx).Save(habit).Error
}

func (hr *habitRepo) Delete(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) error {
	res := hr.conn(tx).WithContext(ctx).
		Where("id = ?", habitID).
		Delete(&types.Habit{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ClearAssociationsTo nulls the associated-habit reference on every habit
// pointing at the given id. The link is a weak reference: deleting the
// target must not cascade.
func (hr *habitRepo) ClearAssociationsTo(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) error {
	return hr.conn(tx).WithContext(ctx).
		Model(&types.Habit{}).
		Where("associated_habit_id = ?", habitID).
		Update("associated_habit_id", nil).Error
}

// InitNextReminder sets the reminder date only when it is still unset, so a
// concurrent sweep or API write cannot be overwritten.
func (hr *habitRepo) InitNextReminder(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, date datatypes.Date) (bool, error) {
	res := hr.conn(tx).WithContext(ctx).
		Model(&types.Habit{}).
		Where("id = ? AND next_reminder_date IS NULL", habitID).
		Update("next_reminder_date", date)
	return res.RowsAffected > 0, res.Error
}

// AdvanceNextReminder is an optimistic check-and-set: the date moves forward
// only if it still has the value the sweep read.
func (hr *habitRepo) AdvanceNextReminder(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, from, to datatypes.Date) (bool, error) {
	res := hr.conn(tx).WithContext(ctx).
		Model(&types.Habit{}).
		Where("id = ? AND next_reminder_date = ?", habitID, from).
		Update("next_reminder_date", to)
	return res.RowsAffected > 0, res.Error
}
