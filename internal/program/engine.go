package program

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/2beens/gymstats-backend/internal/readiness"
	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/internal/training"
	"github.com/2beens/gymstats-backend/pkg"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=engine_mocks_test.go -package=program_test

type plansRepo interface {
	CreatePlanArchivingActive(ctx context.Context, plan Plan) error
	ActivePlan(ctx context.Context) (*Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)
	RestoreArchivedPlan(ctx context.Context, id uuid.UUID) error
	DeleteArchivedPlan(ctx context.Context, id uuid.UUID) error
	CompleteDay(ctx context.Context, dayID uuid.UUID, completedAt time.Time, sessionID *int) error
}

type sessionsLister interface {
	ListAll(ctx context.Context, params training.SessionParams) ([]training.Session, error)
}

type readinessEvaluator interface {
	Evaluate(ctx context.Context) (readiness.Assessment, error)
}

const (
	// seedLookbackDays is how far back CreatePlan looks for best set
	// weights when seeding the starting loads.
	seedLookbackDays = PlanWeeks * 7

	// seedFactor keeps seeded starting loads below the recent best, so
	// a fresh plan starts with room to progress.
	seedFactor = 0.8

	lowReadinessLoadFactor = 0.9
)

// Engine owns the plan lifecycle. Lifecycle transitions are serialized
// under one lock.
type Engine struct {
	mu        sync.Mutex
	repo      plansRepo
	sessions  sessionsLister
	readiness readinessEvaluator
}

func NewEngine(repo plansRepo, sessions sessionsLister, readiness readinessEvaluator) *Engine {
	return &Engine{
		repo:      repo,
		sessions:  sessions,
		readiness: readiness,
	}
}

// CreatePlan generates a new eight week program and makes it the
// active plan. A previously active plan is archived, never deleted.
func (e *Engine) CreatePlan(ctx context.Context, params CreatePlanParams) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "program.createPlan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err = params.Validate(); err != nil {
		return nil, err
	}

	start := pkg.DayStart(params.StartDate)
	if params.StartDate.IsZero() {
		start = pkg.DayStart(time.Now())
	}
	increment := params.WeightIncrement
	if increment == 0 {
		increment = defaultWeightIncrement
	}

	from := start.AddDate(0, 0, -seedLookbackDays)
	history, err := e.sessions.ListAll(ctx, training.SessionParams{
		From:               &from,
		To:                 &start,
		ExcludeTestingData: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions for load seeding: %w", err)
	}

	plan := Plan{
		ID:              uuid.New(),
		Name:            params.planName(),
		Goal:            params.Goal,
		DaysPerWeek:     params.DaysPerWeek,
		StartDate:       start,
		WeightIncrement: increment,
		Status:          StatusActive,
		CreatedAt:       time.Now(),
	}
	plan.Days = buildDays(plan, seedLoads(history, increment))

	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.repo.CreatePlanArchivingActive(ctx, plan); err != nil {
		return nil, fmt.Errorf("store plan: %w", err)
	}

	span.SetAttributes(
		attribute.String("plan.id", plan.ID.String()),
		attribute.Int("plan.days", len(plan.Days)),
	)
	return &plan, nil
}

// TodayPlan returns the training day to perform right now, adjusted
// for the current readiness. Nil when no plan is active or nothing is
// due, neither is an error.
func (e *Engine) TodayPlan(ctx context.Context) (_ *TodayPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "program.todayPlan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	plan, err := e.repo.ActivePlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active plan: %w", err)
	}
	if plan == nil {
		return nil, nil
	}

	today := pkg.DayStart(time.Now())
	day := nextDueDay(plan.Days, today)
	if day == nil {
		return nil, nil
	}

	assessment, err := e.readiness.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate readiness: %w", err)
	}

	adjusted, adjustment := adjustForReadiness(*day, assessment.Band, plan.WeightIncrement)
	span.SetAttributes(
		attribute.String("plan.id", plan.ID.String()),
		attribute.String("readiness.band", string(assessment.Band)),
		attribute.String("adjustment", string(adjustment)),
	)

	return &TodayPlan{
		PlanID:     plan.ID,
		PlanName:   plan.Name,
		Day:        adjusted,
		Overdue:    adjusted.ScheduledAt.Before(today),
		Readiness:  assessment,
		Adjustment: adjustment,
	}, nil
}

func (e *Engine) ActivePlan(ctx context.Context) (*Plan, error) {
	return e.repo.ActivePlan(ctx)
}

func (e *Engine) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return e.repo.GetPlan(ctx, id)
}

func (e *Engine) Plans(ctx context.Context) ([]Plan, error) {
	return e.repo.ListPlans(ctx)
}

// CompleteDay checks off a program day, optionally linking the logged
// session.
func (e *Engine) CompleteDay(ctx context.Context, dayID uuid.UUID, sessionID *int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "program.completeDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.repo.CompleteDay(ctx, dayID, time.Now(), sessionID); err != nil {
		return err
	}
	return nil
}

// RestoreArchivedPlan makes an archived plan active again, archiving
// the currently active plan first. Fails with ErrPlanNotFound or
// ErrPlanNotArchived when the id does not refer to an archived plan.
func (e *Engine) RestoreArchivedPlan(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "program.restorePlan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.repo.RestoreArchivedPlan(ctx, id); err != nil {
		return err
	}
	return nil
}

// DeleteArchivedPlan permanently removes an archived plan and its
// days. Active plans cannot be deleted, only archived plans can.
func (e *Engine) DeleteArchivedPlan(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "program.deletePlan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.repo.DeleteArchivedPlan(ctx, id); err != nil {
		return err
	}
	return nil
}

// Adherence recomputes how many of the plan days due by today were
// actually trained. Never cached.
func (e *Engine) Adherence(ctx context.Context, planID uuid.UUID) (_ *Adherence, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "program.adherence")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	plan, err := e.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	today := pkg.DayStart(time.Now())
	from := plan.StartDate
	to := pkg.DayEnd(today)
	history, err := e.sessions.ListAll(ctx, training.SessionParams{
		From:               &from,
		To:                 &to,
		ExcludeTestingData: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	adherence := computeAdherence(*plan, history, today)
	span.SetAttributes(
		attribute.Int("adherence.due", adherence.DueDays),
		attribute.Int("adherence.completed", adherence.CompletedDays),
	)
	return &adherence, nil
}

// buildDays lays the split template out over PlanWeeks weeks, starting
// at the plan start date. Seeded loads override the template defaults.
func buildDays(plan Plan, loads map[string]float64) []Day {
	split := splits[plan.DaysPerWeek]
	offsets := weekdayOffsets[plan.DaysPerWeek]
	sets, reps := repScheme(plan.Goal)

	days := make([]Day, 0, PlanWeeks*plan.DaysPerWeek)
	for week := 1; week <= PlanWeeks; week++ {
		for slot, offset := range offsets {
			tmpl := split[slot]
			exercises := make([]DayExercise, 0, len(tmpl.exercises))
			for _, ex := range tmpl.exercises {
				load := ex.defaultLoad
				if seeded, ok := loads[ex.name]; ok && seeded > 0 {
					load = seeded
				}
				exercises = append(exercises, DayExercise{
					Name:       ex.name,
					TargetSets: sets,
					TargetReps: reps,
					TargetLoad: load,
				})
			}
			days = append(days, Day{
				ID:          uuid.New(),
				PlanID:      plan.ID,
				Week:        week,
				DayOfWeek:   slot + 1,
				ScheduledAt: plan.StartDate.AddDate(0, 0, (week-1)*7+offset),
				Focus:       tmpl.focus,
				Exercises:   exercises,
			})
		}
	}
	return days
}

// seedLoads derives a starting load per exercise from the best set
// weight in the given history, taken at seedFactor and floored to a
// weight increment multiple.
func seedLoads(history []training.Session, increment float64) map[string]float64 {
	best := make(map[string]float64)
	for _, session := range history {
		for _, exercise := range session.Exercises {
			for _, set := range exercise.Sets {
				if !set.IsStrength() {
					continue
				}
				if set.Weight > best[exercise.Name] {
					best[exercise.Name] = set.Weight
				}
			}
		}
	}

	loads := make(map[string]float64, len(best))
	for name, weight := range best {
		seeded := floorToIncrement(weight*seedFactor, increment)
		if seeded > 0 {
			loads[name] = seeded
		}
	}
	return loads
}

// nextDueDay returns the day scheduled for today, or the earliest
// overdue day that was never completed. Nil when nothing is due.
func nextDueDay(days []Day, today time.Time) *Day {
	var due *Day
	for i := range days {
		day := days[i]
		if day.Completed() || pkg.DayStart(day.ScheduledAt).After(today) {
			continue
		}
		if due == nil || day.ScheduledAt.Before(due.ScheduledAt) {
			due = &days[i]
		}
	}
	return due
}

// adjustForReadiness maps the readiness band onto today's
// prescription. A low band drops the loads by 10% and one set, a high
// band adds one weight increment on loaded exercises, a moderate band
// leaves the day as prescribed.
func adjustForReadiness(day Day, band readiness.Band, increment float64) (Day, Adjustment) {
	if band != readiness.BandLow && band != readiness.BandHigh {
		return day, AdjustmentNone
	}

	adjusted := day
	adjusted.Exercises = make([]DayExercise, len(day.Exercises))
	copy(adjusted.Exercises, day.Exercises)

	if band == readiness.BandLow {
		for i := range adjusted.Exercises {
			ex := &adjusted.Exercises[i]
			if ex.TargetLoad > 0 {
				ex.TargetLoad = floorToIncrement(ex.TargetLoad*lowReadinessLoadFactor, increment)
			}
			if ex.TargetSets > 1 {
				ex.TargetSets--
			}
		}
		return adjusted, AdjustmentReduced
	}

	for i := range adjusted.Exercises {
		ex := &adjusted.Exercises[i]
		if ex.TargetLoad > 0 {
			ex.TargetLoad += increment
		}
	}
	return adjusted, AdjustmentIncreased
}

// computeAdherence counts the plan days due by today and how many of
// them were trained, either checked off explicitly or matched by a
// logged session on the scheduled day.
func computeAdherence(plan Plan, history []training.Session, today time.Time) Adherence {
	trainedDays := make(map[time.Time]struct{})
	for _, session := range history {
		trainedDays[session.Day()] = struct{}{}
	}

	adherence := Adherence{PlanID: plan.ID}
	for _, day := range plan.Days {
		scheduled := pkg.DayStart(day.ScheduledAt)
		if scheduled.After(today) {
			continue
		}
		adherence.DueDays++
		if day.Completed() {
			adherence.CompletedDays++
			continue
		}
		if _, ok := trainedDays[scheduled]; ok {
			adherence.CompletedDays++
		}
	}
	if adherence.DueDays > 0 {
		adherence.Rate = float64(adherence.CompletedDays) / float64(adherence.DueDays)
	}
	return adherence
}

// floorToIncrement rounds a load down to a multiple of the weight
// increment. A small epsilon tolerates float noise at exact multiples.
func floorToIncrement(load, increment float64) float64 {
	if increment <= 0 {
		return load
	}
	return math.Floor(load/increment+1e-9) * increment
}
