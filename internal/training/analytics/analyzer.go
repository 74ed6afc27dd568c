package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/internal/training"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=analyzer_mocks_test.go -package=analytics_test

type sessionsRepo interface {
	ListAll(ctx context.Context, params training.SessionParams) ([]training.Session, error)
}

type catalogRepo interface {
	MuscleTagsByName(ctx context.Context) (map[string][]string, error)
}

const (
	fiveMinutes          = 5 * 60
	analyticsCacheExpire = fiveMinutes // default expire in seconds
)

// Analyzer computes the read side statistics over the stored sessions.
// Results are cached for a few minutes.
type Analyzer struct {
	sessions sessionsRepo
	catalog  catalogRepo
	cache    *freecache.Cache
}

func NewAnalyzer(sessions sessionsRepo, catalog catalogRepo) *Analyzer {
	megabyte := 1024 * 1024
	return &Analyzer{
		sessions: sessions,
		catalog:  catalog,
		cache:    freecache.NewCache(10 * megabyte),
	}
}

type StreaksResponse struct {
	RestDays int         `json:"restDays"`
	Runs     []StreakRun `json:"runs"`
	Current  *StreakRun  `json:"current,omitempty"`
	Longest  *StreakRun  `json:"longest,omitempty"`
}

// Streaks groups the training history into runs of training days,
// tolerating up to restDays rest days between two of them.
func (a *Analyzer) Streaks(ctx context.Context, restDays int) (_ *StreaksResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.training.streaks")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("rest_days", restDays))

	cacheKey := fmt.Sprintf("streaks::%d", restDays)
	response := &StreaksResponse{}
	if cached, err := a.cache.Get([]byte(cacheKey)); err == nil {
		if err = json.Unmarshal(cached, response); err == nil {
			return response, nil
		}
		log.Errorf("failed to unmarshal cached streaks response: %s", err)
	}

	history, err := a.sessions.ListAll(ctx, training.SessionParams{ExcludeTestingData: true})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	runs := StreakRuns(history, restDays)
	response = &StreaksResponse{
		RestDays: restDays,
		Runs:     runs,
		Current:  CurrentRun(runs, restDays, time.Now()),
		Longest:  LongestRun(runs),
	}

	a.cacheSet(cacheKey, response)

	return response, nil
}

type ChangeResponse struct {
	WindowDays int `json:"windowDays"`
	// Window is null when either half of the compared period has no
	// sessions at all.
	Window  *ChangeWindow  `json:"window"`
	Metrics []ChangeMetric `json:"metrics,omitempty"`
}

// Change compares the last windowDays days against the windowDays days
// before them.
func (a *Analyzer) Change(ctx context.Context, windowDays int) (_ *ChangeResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.training.change")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("window_days", windowDays))

	cacheKey := fmt.Sprintf("change::%d", windowDays)
	response := &ChangeResponse{}
	if cached, err := a.cache.Get([]byte(cacheKey)); err == nil {
		if err = json.Unmarshal(cached, response); err == nil {
			return response, nil
		}
		log.Errorf("failed to unmarshal cached change response: %s", err)
	}

	now := time.Now()
	from := now.Add(-2 * time.Duration(windowDays) * 24 * time.Hour)
	history, err := a.sessions.ListAll(ctx, training.SessionParams{
		From:               &from,
		ExcludeTestingData: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	response = &ChangeResponse{WindowDays: windowDays}
	if window := RollingChangeWindow(history, windowDays, now); window != nil {
		response.Window = window
		response.Metrics = ChangeMetrics(history, *window)
	}

	a.cacheSet(cacheKey, response)

	return response, nil
}

type TrendResponse struct {
	Exercise string `json:"exercise"`
	Days     int    `json:"days"`
	Points   int    `json:"points"`
	// Trend is null when the exercise has fewer than two training days
	// in the requested period.
	Trend *TrendLine `json:"trend"`
}

// ExerciseTrend fits a trend line over the best set values of one
// exercise during the last days days.
func (a *Analyzer) ExerciseTrend(ctx context.Context, exerciseName string, days int) (_ *TrendResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.training.exerciseTrend")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("exercise", exerciseName),
		attribute.Int("days", days),
	)

	cacheKey := fmt.Sprintf("trend::%s::%d", exerciseName, days)
	response := &TrendResponse{}
	if cached, err := a.cache.Get([]byte(cacheKey)); err == nil {
		if err = json.Unmarshal(cached, response); err == nil {
			return response, nil
		}
		log.Errorf("failed to unmarshal cached trend response: %s", err)
	}

	from := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	history, err := a.sessions.ListAll(ctx, training.SessionParams{
		ExerciseName:       exerciseName,
		From:               &from,
		ExcludeTestingData: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	values := BestValueByDay(history, exerciseName)
	response = &TrendResponse{
		Exercise: exerciseName,
		Days:     days,
		Points:   len(values),
		Trend:    EstimateTrend(values, DefaultSlopeDeadBand),
	}

	a.cacheSet(cacheKey, response)

	return response, nil
}

type ContributionRanking struct {
	Gainers   []ProgressContribution `json:"gainers"`
	Decliners []ProgressContribution `json:"decliners"`
}

type ContributionsResponse struct {
	Weeks     int                 `json:"weeks"`
	Exercises ContributionRanking `json:"exercises"`
	Muscles   ContributionRanking `json:"muscles"`
}

// Contributions ranks exercises and muscle groups by how much their
// best set values moved between the last weeks weeks and the weeks
// weeks before them.
func (a *Analyzer) Contributions(ctx context.Context, weeks int) (_ *ContributionsResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.training.contributions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("weeks", weeks))

	cacheKey := fmt.Sprintf("contributions::%d", weeks)
	response := &ContributionsResponse{}
	if cached, err := a.cache.Get([]byte(cacheKey)); err == nil {
		if err = json.Unmarshal(cached, response); err == nil {
			return response, nil
		}
		log.Errorf("failed to unmarshal cached contributions response: %s", err)
	}

	now := time.Now()
	from := now.Add(-2 * time.Duration(weeks) * 7 * 24 * time.Hour)
	history, err := a.sessions.ListAll(ctx, training.SessionParams{
		From:               &from,
		ExcludeTestingData: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	tagsByName, err := a.catalog.MuscleTagsByName(ctx)
	if err != nil {
		return nil, fmt.Errorf("get muscle tags: %w", err)
	}

	exerciseContributions := Contributions(history, weeks, now)
	muscleContributions := ByMuscleTag(exerciseContributions, tagsByName)

	response = &ContributionsResponse{
		Weeks: weeks,
		Exercises: ContributionRanking{
			Gainers:   Gainers(exerciseContributions),
			Decliners: Decliners(exerciseContributions),
		},
		Muscles: ContributionRanking{
			Gainers:   Gainers(muscleContributions),
			Decliners: Decliners(muscleContributions),
		},
	}

	a.cacheSet(cacheKey, response)

	return response, nil
}

func (a *Analyzer) cacheSet(key string, response interface{}) {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		log.Errorf("failed to marshal analytics response for cache [%s]: %s", key, err)
		return
	}
	if err := a.cache.Set([]byte(key), responseBytes, analyticsCacheExpire); err != nil {
		log.Errorf("failed to cache analytics response [%s]: %s", key, err)
	}
}
