package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=analytics_test

type trainingAnalyzer interface {
	Streaks(ctx context.Context, restDays int) (*StreaksResponse, error)
	Change(ctx context.Context, windowDays int) (*ChangeResponse, error)
	ExerciseTrend(ctx context.Context, exerciseName string, days int) (*TrendResponse, error)
	Contributions(ctx context.Context, weeks int) (*ContributionsResponse, error)
}

type Handler struct {
	analyzer trainingAnalyzer
}

func NewHandler(analyzer trainingAnalyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
	}
}

// HandleStreaks returns the training day runs, plus the current and the
// longest one.
func (handler *Handler) HandleStreaks(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.streaks")
	defer span.End()

	restDaysStr := r.URL.Query().Get("rest-days")
	if restDaysStr == "" {
		restDaysStr = "1"
	}
	restDays, err := strconv.Atoi(restDaysStr)
	if err != nil || restDays < 0 {
		http.Error(w, "invalid rest-days parameter", http.StatusBadRequest)
		return
	}

	streaks, err := handler.analyzer.Streaks(ctx, restDays)
	if err != nil {
		log.Errorf("failed to get streaks: %s", err)
		http.Error(w, "failed to get streaks", http.StatusInternalServerError)
		return
	}

	responseJson, err := json.Marshal(streaks)
	if err != nil {
		log.Errorf("failed to marshal streaks response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(responseJson))
}

// HandleChange compares the most recent window of days against the one
// before it.
func (handler *Handler) HandleChange(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.change")
	defer span.End()

	windowDaysStr := r.URL.Query().Get("window-days")
	if windowDaysStr == "" {
		windowDaysStr = "30"
	}
	windowDays, err := strconv.Atoi(windowDaysStr)
	if err != nil || windowDays <= 0 {
		http.Error(w, "invalid window-days parameter", http.StatusBadRequest)
		return
	}

	change, err := handler.analyzer.Change(ctx, windowDays)
	if err != nil {
		log.Errorf("failed to get change metrics: %s", err)
		http.Error(w, "failed to get change metrics", http.StatusInternalServerError)
		return
	}

	responseJson, err := json.Marshal(change)
	if err != nil {
		log.Errorf("failed to marshal change response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(responseJson))
}

// HandleTrend returns the fitted trend line for one exercise.
func (handler *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.trend")
	defer span.End()

	exercise := strings.TrimSpace(r.URL.Query().Get("exercise"))
	if exercise == "" {
		http.Error(w, "exercise parameter is required", http.StatusBadRequest)
		return
	}

	daysStr := r.URL.Query().Get("days")
	if daysStr == "" {
		daysStr = "90"
	}
	days, err := strconv.Atoi(daysStr)
	if err != nil || days <= 0 {
		http.Error(w, "invalid days parameter", http.StatusBadRequest)
		return
	}

	trend, err := handler.analyzer.ExerciseTrend(ctx, exercise, days)
	if err != nil {
		log.Errorf("failed to get trend for %s: %s", exercise, err)
		http.Error(w, "failed to get trend", http.StatusInternalServerError)
		return
	}

	responseJson, err := json.Marshal(trend)
	if err != nil {
		log.Errorf("failed to marshal trend response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(responseJson))
}

// HandleContributions ranks exercises and muscle groups by their best
// set value change between the two most recent periods of weeks weeks.
func (handler *Handler) HandleContributions(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.contributions")
	defer span.End()

	weeksStr := r.URL.Query().Get("weeks")
	if weeksStr == "" {
		weeksStr = "8"
	}
	weeks, err := strconv.Atoi(weeksStr)
	if err != nil || weeks <= 0 {
		http.Error(w, "invalid weeks parameter", http.StatusBadRequest)
		return
	}

	contributions, err := handler.analyzer.Contributions(ctx, weeks)
	if err != nil {
		log.Errorf("failed to get contributions: %s", err)
		http.Error(w, "failed to get contributions", http.StatusInternalServerError)
		return
	}

	responseJson, err := json.Marshal(contributions)
	if err != nil {
		log.Errorf("failed to marshal contributions response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(responseJson))
}
