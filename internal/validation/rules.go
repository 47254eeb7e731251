package validation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Messages surfaced to the API caller, one per rule.
const (
	MsgLeadTime              = "lead time must be at most 120 minutes"
	MsgPeriodicity           = "periodicity must be at least once every 7 days"
	MsgRewardExclusivity     = "a reward and an associated habit cannot be set at the same time"
	MsgPleasurableExclusive  = "a pleasurable habit cannot have a reward or an associated habit"
	MsgAssociatedPleasurable = "the associated habit must be a pleasurable habit"
	MsgAssociatedNotFound    = "associated habit not found"
)

// Error is a rule violation. Handlers translate it into a 400 with the
// failing rule's message; it is never retried.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Candidate carries the fully merged field values of a habit as they would
// be persisted. Rules never see partial patches.
type Candidate struct {
	LeadTimeMinutes   int
	PeriodicityDays   int
	IsPleasurable     bool
	AssociatedHabitID *uuid.UUID
	Reward            *string
}

func (c Candidate) rewardSet() bool {
	return c.Reward != nil && strings.TrimSpace(*c.Reward) != ""
}

func (c Candidate) associatedSet() bool {
	return c.AssociatedHabitID != nil && *c.AssociatedHabitID != uuid.Nil
}

// Rule is a single configured check. Rules are stateless and independently
// testable; a Chain runs them in a fixed order.
type Rule interface {
	Check(ctx context.Context, c Candidate) error
}

// LinkedField selects which of the two mutually exclusive fields a
// configured rule instance inspects.
type LinkedField int

const (
	FieldAssociatedHabit LinkedField = iota
	FieldReward
)

type LeadTimeRule struct {
	MaxMinutes int
}

func (r LeadTimeRule) Check(_ context.Context, c Candidate) error {
	if c.LeadTimeMinutes > r.MaxMinutes {
		return &Error{Message: MsgLeadTime}
	}
	return nil
}

type PeriodicityRule struct {
	MaxDays int
}

func (r PeriodicityRule) Check(_ context.Context, c Candidate) error {
	if c.PeriodicityDays > r.MaxDays {
		return &Error{Message: MsgPeriodicity}
	}
	return nil
}

// RewardExclusivityRule rejects a habit that sets both a reward and an
// associated habit.
type RewardExclusivityRule struct{}

func (RewardExclusivityRule) Check(_ context.Context, c Candidate) error {
	if c.associatedSet() && c.rewardSet() {
		return &Error{Message: MsgRewardExclusivity}
	}
	return nil
}

// PleasurableRule rejects a pleasurable habit that sets the configured
// field. It is registered twice, once per field, matching the rule set's
// shape: identical logic and message, independent instances.
type PleasurableRule struct {
	Field LinkedField
}

func (r PleasurableRule) Check(_ context.Context, c Candidate) error {
	if !c.IsPleasurable {
		return nil
	}
	set := false
	switch r.Field {
	case FieldAssociatedHabit:
		set = c.associatedSet()
	case FieldReward:
		set = c.rewardSet()
	}
	if set {
		return &Error{Message: MsgPleasurableExclusive}
	}
	return nil
}

// PleasurableLookup reports whether the habit with the given id is
// pleasurable. Implementations return ErrHabitNotFound when the id does not
// resolve.
type PleasurableLookup func(ctx context.Context, id uuid.UUID) (bool, error)

// ErrHabitNotFound is returned by a PleasurableLookup for an unresolved id.
var ErrHabitNotFound = errors.New("habit not found")

// AssociatedPleasurableRule checks that the linked habit is itself
// pleasurable. The lookup is the chain's only read.
type AssociatedPleasurableRule struct {
	Lookup PleasurableLookup
}

func (r AssociatedPleasurableRule) Check(ctx context.Context, c Candidate) error {
	if !c.associatedSet() {
		return nil
	}
	pleasurable, err := r.Lookup(ctx, *c.AssociatedHabitID)
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return &Error{Message: MsgAssociatedNotFound}
		}
		return err
	}
	if !pleasurable {
		return &Error{Message: MsgAssociatedPleasurable}
	}
	return nil
}

// Chain evaluates rules in order against one candidate snapshot and stops
// at the first violation.
type Chain []Rule

func (ch Chain) Check(ctx context.Context, c Candidate) error {
	for _, rule := range ch {
		if err := rule.Check(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// HabitRules is the fixed rule chain applied before any habit write.
func HabitRules(lookup PleasurableLookup) Chain {
	return Chain{
		LeadTimeRule{MaxMinutes: 120},
		PeriodicityRule{MaxDays: 7},
		RewardExclusivityRule{},
		PleasurableRule{Field: FieldAssociatedHabit},
		PleasurableRule{Field: FieldReward},
		AssociatedPleasurableRule{Lookup: lookup},
	}
}
