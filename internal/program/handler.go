package program

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymstats-backend/internal/telemetry/metrics"
	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=program_test

type programEngine interface {
	CreatePlan(ctx context.Context, params CreatePlanParams) (*Plan, error)
	TodayPlan(ctx context.Context) (*TodayPlan, error)
	ActivePlan(ctx context.Context) (*Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	Plans(ctx context.Context) ([]Plan, error)
	CompleteDay(ctx context.Context, dayID uuid.UUID, sessionID *int) error
	RestoreArchivedPlan(ctx context.Context, id uuid.UUID) error
	DeleteArchivedPlan(ctx context.Context, id uuid.UUID) error
	Adherence(ctx context.Context, planID uuid.UUID) (*Adherence, error)
}

type ListPlansResponse struct {
	Plans []Plan `json:"plans"`
}

// ActivePlanResponse carries a null plan when no plan is active.
type ActivePlanResponse struct {
	Plan *Plan `json:"plan"`
}

// TodayPlanResponse carries a null today when no plan is active or
// nothing is due.
type TodayPlanResponse struct {
	Today *TodayPlan `json:"today"`
}

type RestorePlanResponse struct {
	RestoredID uuid.UUID `json:"restoredId"`
}

type DeletePlanResponse struct {
	DeletedID uuid.UUID `json:"deletedId"`
}

type CompleteDayRequest struct {
	SessionID *int `json:"sessionId,omitempty"`
}

type CompleteDayResponse struct {
	CompletedID uuid.UUID `json:"completedId"`
}

type Handler struct {
	engine  programEngine
	metrics *metrics.Manager
}

func NewHandler(engine programEngine, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		engine:  engine,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.create")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params CreatePlanParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("create plan, unmarshal json params: %s", err)
		http.Error(w, "create plan failed", http.StatusBadRequest)
		return
	}

	plan, err := handler.engine.CreatePlan(ctx, params)
	if err != nil {
		if errors.Is(err, ErrInvalidPlan) {
			log.Tracef("create plan invalid: %s", err)
			http.Error(w, "error, invalid plan", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to create plan [%s]: %s", params.Goal, err)
		http.Error(w, "error, failed to create plan", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterPlansCreated.Inc()

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("failed to marshal created plan: %s", err)
		http.Error(w, "error, failed to create plan", http.StatusInternalServerError)
		return
	}

	log.Debugf("new plan created: %s [%s]", plan.ID, plan.Name)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusCreated)
}

func (handler *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.today")
	defer span.End()

	today, err := handler.engine.TodayPlan(ctx)
	if err != nil {
		log.Errorf("failed to get today plan: %s", err)
		http.Error(w, "failed to get today plan", http.StatusInternalServerError)
		return
	}

	todayJson, err := json.Marshal(TodayPlanResponse{Today: today})
	if err != nil {
		log.Errorf("failed to marshal today plan: %s", err)
		http.Error(w, "failed to marshal today plan", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(todayJson))
}

func (handler *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.active")
	defer span.End()

	plan, err := handler.engine.ActivePlan(ctx)
	if err != nil {
		log.Errorf("failed to get active plan: %s", err)
		http.Error(w, "failed to get active plan", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(ActivePlanResponse{Plan: plan})
	if err != nil {
		log.Errorf("failed to marshal active plan: %s", err)
		http.Error(w, "failed to marshal active plan", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(planJson))
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.list")
	defer span.End()

	plans, err := handler.engine.Plans(ctx)
	if err != nil {
		log.Errorf("list plans error: %s", err)
		http.Error(w, "failed to get plans", http.StatusInternalServerError)
		return
	}

	plansJson, err := json.Marshal(ListPlansResponse{Plans: plans})
	if err != nil {
		log.Errorf("marshal plans error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(plansJson))
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.get")
	defer span.End()

	id, ok := planIDFromRequest(w, r)
	if !ok {
		return
	}

	plan, err := handler.engine.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get plan %s: %s", id, err)
		http.Error(w, "failed to get plan", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("failed to marshal plan: %s", err)
		http.Error(w, "failed to marshal plan", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(planJson))
}

func (handler *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.restore")
	defer span.End()

	id, ok := planIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := handler.engine.RestoreArchivedPlan(ctx, id); err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrPlanNotArchived) {
			http.Error(w, "plan not archived", http.StatusConflict)
			return
		}
		log.Errorf("failed to restore plan %s: %s", id, err)
		http.Error(w, "failed to restore plan", http.StatusInternalServerError)
		return
	}

	restoreRespJson, err := json.Marshal(RestorePlanResponse{
		RestoredID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal restore response: %s", err)
		http.Error(w, "failed to marshal restore response", http.StatusInternalServerError)
		return
	}

	log.Debugf("plan restored: %s", id)
	pkg.WriteJSONResponseOK(w, string(restoreRespJson))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.delete")
	defer span.End()

	id, ok := planIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := handler.engine.DeleteArchivedPlan(ctx, id); err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrPlanNotArchived) {
			http.Error(w, "plan not archived", http.StatusConflict)
			return
		}
		log.Errorf("failed to delete plan %s: %s", id, err)
		http.Error(w, "failed to delete plan", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeletePlanResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	log.Debugf("plan deleted: %s", id)
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *Handler) HandleCompleteDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.day.complete")
	defer span.End()

	id, ok := planIDFromRequest(w, r)
	if !ok {
		return
	}

	// the session link is optional, an empty body just checks the day off
	var req CompleteDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Tracef("complete day, unmarshal json params: %s", err)
		http.Error(w, "complete day failed", http.StatusBadRequest)
		return
	}

	if err := handler.engine.CompleteDay(ctx, id, req.SessionID); err != nil {
		if errors.Is(err, ErrDayNotFound) {
			http.Error(w, "program day not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to complete day %s: %s", id, err)
		http.Error(w, "failed to complete day", http.StatusInternalServerError)
		return
	}

	completeRespJson, err := json.Marshal(CompleteDayResponse{
		CompletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal complete response: %s", err)
		http.Error(w, "failed to marshal complete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(completeRespJson))
}

func (handler *Handler) HandleAdherence(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.adherence")
	defer span.End()

	id, ok := planIDFromRequest(w, r)
	if !ok {
		return
	}

	adherence, err := handler.engine.Adherence(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get adherence for plan %s: %s", id, err)
		http.Error(w, "failed to get adherence", http.StatusInternalServerError)
		return
	}

	adherenceJson, err := json.Marshal(adherence)
	if err != nil {
		log.Errorf("failed to marshal adherence: %s", err)
		http.Error(w, "failed to marshal adherence", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(adherenceJson))
}

func planIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "error, invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
