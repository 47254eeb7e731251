package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TimeOfDayLayout is the canonical wire and storage format for the
// habit's time-of-day ("17:31:00").
const TimeOfDayLayout = "15:04:05"

type Habit struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User              *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Place             *string         `gorm:"column:place" json:"place"`
	Time              string          `gorm:"not null;column:time_of_day" json:"time"`
	PeriodicityDays   int             `gorm:"not null;default:1;column:periodicity_days" json:"periodicity_days"`
	Action            string          `gorm:"not null;column:action" json:"action"`
	IsPleasurable     bool            `gorm:"not null;default:false;column:is_pleasurable" json:"is_pleasurable"`
	AssociatedHabitID *uuid.UUID      `gorm:"type:uuid;column:associated_habit_id" json:"associated_habit"`
	AssociatedHabit   *Habit          `gorm:"constraint:OnDelete:SET NULL;foreignKey:AssociatedHabitID;references:ID" json:"-"`
	Reward            *string         `gorm:"column:reward" json:"reward"`
	LeadTimeMinutes   int             `gorm:"not null;column:lead_time_minutes" json:"lead_time_minutes"`
	IsPublic          bool            `gorm:"not null;default:false;column:is_public" json:"is_public"`
	NextReminderDate  *datatypes.Date `gorm:"column:next_reminder_date" json:"next_reminder_date,omitempty"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

func (Habit) TableName() string {
	return "habit"
}
