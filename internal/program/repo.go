package program

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// CreatePlanArchivingActive stores a new active plan with all its
// days. A previously active plan is archived in the same transaction,
// the partial unique index on status backs this up.
func (r *Repo) CreatePlanArchivingActive(ctx context.Context, plan Plan) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.program.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", plan.ID.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		UPDATE program_plan SET status = $1, archived_at = NOW()
		WHERE status = $2;`,
		StatusArchived, StatusActive,
	); err != nil {
		return fmt.Errorf("archive active plan: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO program_plan (id, name, goal, days_per_week, start_date, weight_increment, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		plan.ID, plan.Name, plan.Goal, plan.DaysPerWeek, plan.StartDate,
		plan.WeightIncrement, plan.Status, plan.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	for _, day := range plan.Days {
		exercisesJson, mErr := json.Marshal(day.Exercises)
		if mErr != nil {
			err = fmt.Errorf("marshal exercises for day %s: %w", day.ID, mErr)
			return err
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO program_day (id, plan_id, week, day_of_week, scheduled_at, focus, exercises)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			day.ID, day.PlanID, day.Week, day.DayOfWeek, day.ScheduledAt, day.Focus, exercisesJson,
		); err != nil {
			return fmt.Errorf("insert day %s: %w", day.ID, err)
		}
	}

	return nil
}

// ActivePlan returns the active plan with its days, or nil when no
// plan is active.
func (r *Repo) ActivePlan(ctx context.Context) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.program.active")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := r.db.QueryRow(ctx, `
		SELECT id, name, goal, days_per_week, start_date, weight_increment, status, created_at, archived_at
		FROM program_plan
		WHERE status = $1;`,
		StatusActive,
	)
	plan, err := scanPlanRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if plan.Days, err = r.planDays(ctx, plan.ID); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *Repo) GetPlan(ctx context.Context, id uuid.UUID) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.program.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id.String()))

	row := r.db.QueryRow(ctx, `
		SELECT id, name, goal, days_per_week, start_date, weight_increment, status, created_at, archived_at
		FROM program_plan
		WHERE id = $1;`,
		id,
	)
	plan, err := scanPlanRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	if plan.Days, err = r.planDays(ctx, plan.ID); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans returns all plans without their days, newest first.
func (r *Repo) ListPlans(ctx context.Context) (_ []Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.program.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, goal, days_per_week, start_date, weight_increment, status, created_at, archived_at
		FROM program_plan
		ORDER BY created_at DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	plans := make([]Plan, 0)
	for rows.Next() {
		var plan Plan
		if err := rows.Scan(
			&plan.ID, &plan.Name, &plan.Goal, &plan.DaysPerWeek, &plan.StartDate,
			&plan.WeightIncrement, &plan.Status, &plan.CreatedAt, &plan.ArchivedAt,
		); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	span.SetAttributes(attribute.Int("plans", len(plans)))
	return plans, nil
}

// RestoreArchivedPlan flips an archived plan back to active, archiving
// the currently active plan in the same transaction.
func (r *Repo) RestoreArchivedPlan(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.program.restore")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	status, err := planStatusForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if status != StatusArchived {
		return fmt.Errorf("%w: plan %s is %s", ErrPlanNotArchived, id, status)
	}

	if _, err = tx.Exec(ctx, `
		UPDATE program_plan SET status = $1, archived_at = NOW()
		WHERE status = $2;`,
		StatusArchived, StatusActive,
	); err != nil {
		return fmt.Errorf("archive active plan: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		UPDATE program_plan SET status = $1, archived_at = NULL
		WHERE id = $2;`,
		StatusActive, id,
	); err != nil {
		return fmt.Errorf("activate plan: %w", err)
	}

	return nil
}

// DeleteArchivedPlan permanently removes an archived plan, its days go
// with it via the foreign key cascade.
func (r *Repo) DeleteArchivedPlan(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.program.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	status, err := planStatusForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if status != StatusArchived {
		return fmt.Errorf("%w: plan %s is %s", ErrPlanNotArchived, id, status)
	}

	if _, err = tx.Exec(ctx, `
		DELETE FROM program_plan WHERE id = $1;`,
		id,
	); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	return nil
}

func (r *Repo) CompleteDay(ctx context.Context, dayID uuid.UUID, completedAt time.Time, sessionID *int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.program.day.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("day.id", dayID.String()))

	tag, err := r.db.Exec(ctx, `
		UPDATE program_day SET completed_at = $1, session_id = $2
		WHERE id = $3;`,
		completedAt, sessionID, dayID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDayNotFound
	}
	return nil
}

func (r *Repo) planDays(ctx context.Context, planID uuid.UUID) ([]Day, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, plan_id, week, day_of_week, scheduled_at, focus, exercises, completed_at, session_id
		FROM program_day
		WHERE plan_id = $1
		ORDER BY scheduled_at, day_of_week;`,
		planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rows2days(rows)
}

func planStatusForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (Status, error) {
	var status Status
	err := tx.QueryRow(ctx,
		`SELECT status FROM program_plan WHERE id = $1 FOR UPDATE;`,
		id,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrPlanNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

func scanPlanRow(row pgx.Row) (*Plan, error) {
	var plan Plan
	if err := row.Scan(
		&plan.ID, &plan.Name, &plan.Goal, &plan.DaysPerWeek, &plan.StartDate,
		&plan.WeightIncrement, &plan.Status, &plan.CreatedAt, &plan.ArchivedAt,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}

func rows2days(rows pgx.Rows) ([]Day, error) {
	days := make([]Day, 0)
	for rows.Next() {
		var day Day
		var exercisesBytes []byte
		if err := rows.Scan(
			&day.ID, &day.PlanID, &day.Week, &day.DayOfWeek, &day.ScheduledAt,
			&day.Focus, &exercisesBytes, &day.CompletedAt, &day.SessionID,
		); err != nil {
			return nil, err
		}

		if len(exercisesBytes) > 0 {
			if err := json.Unmarshal(exercisesBytes, &day.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises for day %s: %w", day.ID, err)
			}
		}
		if day.Exercises == nil {
			day.Exercises = make([]DayExercise, 0)
		}

		days = append(days, day)
	}

	return days, nil
}
