package readiness

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/pkg"

	"go.opentelemetry.io/otel/attribute"
)

type healthRepo interface {
	UpsertDailyHealth(ctx context.Context, health DailyHealth) error
	UpsertWellnessScore(ctx context.Context, score WellnessScore) error
	DailyHealthSince(ctx context.Context, from time.Time) ([]DailyHealth, error)
	WellnessSince(ctx context.Context, from time.Time) ([]WellnessScore, error)
}

type Service struct {
	repo healthRepo
	cfg  Config
}

func NewService(repo healthRepo, cfg Config) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
	}
}

// Evaluate assesses readiness for today from the stored signals.
func (s *Service) Evaluate(ctx context.Context) (_ Assessment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "readiness.evaluate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	lookbackDays := s.cfg.MaxSignalAgeDays + s.cfg.BaselineDays
	from := pkg.DayStart(now).AddDate(0, 0, -lookbackDays)

	wellness, err := s.repo.WellnessSince(ctx, from)
	if err != nil {
		return Assessment{}, fmt.Errorf("get wellness scores: %w", err)
	}
	health, err := s.repo.DailyHealthSince(ctx, from)
	if err != nil {
		return Assessment{}, fmt.Errorf("get daily health records: %w", err)
	}

	assessment := Evaluate(s.cfg, wellness, health, now)
	span.SetAttributes(
		attribute.Int("score", assessment.Score),
		attribute.String("band", string(assessment.Band)),
		attribute.String("source", assessment.Source),
	)

	return assessment, nil
}

// RecordDailyHealth validates and stores a health record, defaulting
// its day to today.
func (s *Service) RecordDailyHealth(ctx context.Context, health DailyHealth) (_ *DailyHealth, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "readiness.recordDailyHealth")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if health.Day.IsZero() {
		health.Day = time.Now()
	}
	health.Day = pkg.DayStart(health.Day)

	if err := health.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertDailyHealth(ctx, health); err != nil {
		return nil, fmt.Errorf("upsert daily health: %w", err)
	}

	return &health, nil
}

// RecordWellnessScore validates and stores a wellness summary,
// defaulting its day to today.
func (s *Service) RecordWellnessScore(ctx context.Context, score WellnessScore) (_ *WellnessScore, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "readiness.recordWellnessScore")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if score.Day.IsZero() {
		score.Day = time.Now()
	}
	score.Day = pkg.DayStart(score.Day)

	if err := score.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertWellnessScore(ctx, score); err != nil {
		return nil, fmt.Errorf("upsert wellness score: %w", err)
	}

	return &score, nil
}
