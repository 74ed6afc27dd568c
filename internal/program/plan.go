package program

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/gymstats-backend/internal/readiness"

	"github.com/google/uuid"
)

var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrPlanNotArchived = errors.New("plan not archived")
	ErrDayNotFound     = errors.New("program day not found")
	ErrInvalidPlan     = errors.New("invalid plan")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

type Goal string

const (
	GoalStrength    Goal = "strength"
	GoalHypertrophy Goal = "hypertrophy"
	GoalEndurance   Goal = "endurance"
)

var Goals = []Goal{GoalStrength, GoalHypertrophy, GoalEndurance}

// PlanWeeks is the length of every generated program.
const PlanWeeks = 8

const (
	minDaysPerWeek = 1
	maxDaysPerWeek = 6

	defaultWeightIncrement = 2.5
)

// Plan is a generated training program. At most one plan is active at
// any time, creating or restoring another one archives it first.
type Plan struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Goal            Goal       `json:"goal"`
	DaysPerWeek     int        `json:"daysPerWeek"`
	StartDate       time.Time  `json:"startDate"`
	WeightIncrement float64    `json:"weightIncrement"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	ArchivedAt      *time.Time `json:"archivedAt,omitempty"`
	Days            []Day      `json:"days,omitempty"`
}

// Day is one scheduled training day of a plan.
type Day struct {
	ID          uuid.UUID     `json:"id"`
	PlanID      uuid.UUID     `json:"planId"`
	Week        int           `json:"week"`
	DayOfWeek   int           `json:"dayOfWeek"`
	ScheduledAt time.Time     `json:"scheduledAt"`
	Focus       string        `json:"focus"`
	Exercises   []DayExercise `json:"exercises"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	SessionID   *int          `json:"sessionId,omitempty"`
}

func (d Day) Completed() bool {
	return d.CompletedAt != nil
}

// DayExercise is one prescribed exercise of a program day. TargetLoad
// is in kilos, 0 for bodyweight work.
type DayExercise struct {
	Name       string  `json:"name"`
	TargetSets int     `json:"targetSets"`
	TargetReps int     `json:"targetReps"`
	TargetLoad float64 `json:"targetLoad"`
}

type CreatePlanParams struct {
	Name            string    `json:"name,omitempty"`
	Goal            Goal      `json:"goal"`
	DaysPerWeek     int       `json:"daysPerWeek"`
	StartDate       time.Time `json:"startDate"`
	WeightIncrement float64   `json:"weightIncrement"`
}

func (p CreatePlanParams) Validate() error {
	validGoal := false
	for _, goal := range Goals {
		if p.Goal == goal {
			validGoal = true
			break
		}
	}
	if !validGoal {
		return fmt.Errorf("%w: unknown goal %q", ErrInvalidPlan, p.Goal)
	}
	if p.DaysPerWeek < minDaysPerWeek || p.DaysPerWeek > maxDaysPerWeek {
		return fmt.Errorf("%w: days per week must be between %d and %d", ErrInvalidPlan, minDaysPerWeek, maxDaysPerWeek)
	}
	if p.WeightIncrement < 0 {
		return fmt.Errorf("%w: weight increment must not be negative", ErrInvalidPlan)
	}
	return nil
}

func (p CreatePlanParams) planName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return fmt.Sprintf("%s %dx week", p.Goal, p.DaysPerWeek)
}

type Adjustment string

const (
	AdjustmentNone      Adjustment = "none"
	AdjustmentReduced   Adjustment = "reduced"
	AdjustmentIncreased Adjustment = "increased"
)

// TodayPlan is the training day to perform right now, with loads and
// sets already adjusted for the current readiness.
type TodayPlan struct {
	PlanID     uuid.UUID            `json:"planId"`
	PlanName   string               `json:"planName"`
	Day        Day                  `json:"day"`
	Overdue    bool                 `json:"overdue"`
	Readiness  readiness.Assessment `json:"readiness"`
	Adjustment Adjustment           `json:"adjustment"`
}

// Adherence compares the days due so far against the days actually
// trained. Recomputed on every read.
type Adherence struct {
	PlanID        uuid.UUID `json:"planId"`
	DueDays       int       `json:"dueDays"`
	CompletedDays int       `json:"completedDays"`
	Rate          float64   `json:"rate"`
}
