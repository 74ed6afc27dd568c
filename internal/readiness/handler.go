package readiness

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/gymstats-backend/internal/telemetry/metrics"
	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/pkg"

	log "github.com/sirupsen/logrus"
)

type readinessService interface {
	Evaluate(ctx context.Context) (Assessment, error)
	RecordDailyHealth(ctx context.Context, health DailyHealth) (*DailyHealth, error)
	RecordWellnessScore(ctx context.Context, score WellnessScore) (*WellnessScore, error)
}

type Handler struct {
	service readinessService
	metrics *metrics.Manager
}

func NewHandler(service readinessService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metricsManager,
	}
}

// HandleGet returns the readiness assessment for today.
func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.readiness.get")
	defer span.End()

	handler.metrics.CounterReadinessChecks.Inc()

	assessment, err := handler.service.Evaluate(ctx)
	if err != nil {
		log.Errorf("failed to evaluate readiness: %s", err)
		http.Error(w, "failed to evaluate readiness", http.StatusInternalServerError)
		return
	}

	responseJson, err := json.Marshal(assessment)
	if err != nil {
		log.Errorf("failed to marshal readiness response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(responseJson))
}

// HandleAddDailyHealth stores the raw health signals for one day.
func (handler *Handler) HandleAddDailyHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.readiness.addDailyHealth")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var health DailyHealth
	if err := json.NewDecoder(r.Body).Decode(&health); err != nil {
		log.Tracef("add daily health, unmarshal json params: %s", err)
		http.Error(w, "add daily health failed", http.StatusBadRequest)
		return
	}

	saved, err := handler.service.RecordDailyHealth(ctx, health)
	if err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			log.Tracef("add daily health, invalid record: %s", err)
			http.Error(w, "error, invalid daily health record", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to add daily health: %s", err)
		http.Error(w, "add daily health failed", http.StatusInternalServerError)
		return
	}

	savedJson, err := json.Marshal(saved)
	if err != nil {
		log.Errorf("failed to marshal daily health response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, savedJson, http.StatusCreated)
}

// HandleAddWellness stores the external wellness summary for one day.
func (handler *Handler) HandleAddWellness(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.readiness.addWellness")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var score WellnessScore
	if err := json.NewDecoder(r.Body).Decode(&score); err != nil {
		log.Tracef("add wellness score, unmarshal json params: %s", err)
		http.Error(w, "add wellness score failed", http.StatusBadRequest)
		return
	}

	saved, err := handler.service.RecordWellnessScore(ctx, score)
	if err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			log.Tracef("add wellness score, invalid record: %s", err)
			http.Error(w, "error, invalid wellness score", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to add wellness score: %s", err)
		http.Error(w, "add wellness score failed", http.StatusInternalServerError)
		return
	}

	savedJson, err := json.Marshal(saved)
	if err != nil {
		log.Errorf("failed to marshal wellness score response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, savedJson, http.StatusCreated)
}
