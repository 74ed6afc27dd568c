package readiness

import (
	"context"
	"time"

	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// UpsertDailyHealth stores the health record for its day, one row per
// day, newest write wins.
func (r *Repo) UpsertDailyHealth(ctx context.Context, health DailyHealth) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.readiness.upsertDailyHealth")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(ctx,
		`INSERT INTO daily_health (day, resting_heart_rate, sleep_hours)
			VALUES ($1, $2, $3)
			ON CONFLICT (day) DO UPDATE SET
				resting_heart_rate = EXCLUDED.resting_heart_rate,
				sleep_hours = EXCLUDED.sleep_hours`,
		pkg.DayStart(health.Day), health.RestingHeartRate, health.SleepHours,
	)
	return err
}

// UpsertWellnessScore stores the wellness summary for its day, one row
// per day, newest write wins.
func (r *Repo) UpsertWellnessScore(ctx context.Context, score WellnessScore) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.readiness.upsertWellnessScore")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(ctx,
		`INSERT INTO wellness_score (day, sleep, readiness, activity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (day) DO UPDATE SET
				sleep = EXCLUDED.sleep,
				readiness = EXCLUDED.readiness,
				activity = EXCLUDED.activity`,
		pkg.DayStart(score.Day), score.Sleep, score.Readiness, score.Activity,
	)
	return err
}

func (r *Repo) DailyHealthSince(ctx context.Context, from time.Time) (_ []DailyHealth, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.readiness.dailyHealthSince")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT day, COALESCE(resting_heart_rate, 0), COALESCE(sleep_hours, 0)
			FROM daily_health
			WHERE day >= $1
			ORDER BY day`,
		pkg.DayStart(from),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2dailyHealth(rows)
}

func (r *Repo) WellnessSince(ctx context.Context, from time.Time) (_ []WellnessScore, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.readiness.wellnessSince")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT day, sleep, readiness, activity
			FROM wellness_score
			WHERE day >= $1
			ORDER BY day`,
		pkg.DayStart(from),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2wellness(rows)
}

func rows2dailyHealth(rows pgx.Rows) ([]DailyHealth, error) {
	records := make([]DailyHealth, 0)
	for rows.Next() {
		var record DailyHealth
		if err := rows.Scan(&record.Day, &record.RestingHeartRate, &record.SleepHours); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func rows2wellness(rows pgx.Rows) ([]WellnessScore, error) {
	scores := make([]WellnessScore, 0)
	for rows.Next() {
		var score WellnessScore
		if err := rows.Scan(&score.Day, &score.Sleep, &score.Readiness, &score.Activity); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}
