package training

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

var MuscleTag = struct {
	Biceps    string
	Triceps   string
	Back      string
	Legs      string
	Chest     string
	Shoulders string
	Core      string
	Cardio    string
	Other     string
}{
	Biceps:    "biceps",
	Triceps:   "triceps",
	Back:      "back",
	Legs:      "legs",
	Chest:     "chest",
	Shoulders: "shoulders",
	Core:      "core",
	Cardio:    "cardio",
	Other:     "other",
}

var MuscleTags = []string{
	MuscleTag.Biceps,
	MuscleTag.Triceps,
	MuscleTag.Back,
	MuscleTag.Legs,
	MuscleTag.Chest,
	MuscleTag.Shoulders,
	MuscleTag.Core,
	MuscleTag.Cardio,
	MuscleTag.Other,
}

//go:generate mockgen -source=$GOFILE -destination=catalog_mocks_test.go -package=training_test

type catalogRepo interface {
	GetCatalogEntry(ctx context.Context, id int) (_ CatalogEntry, err error)
	GetCatalog(ctx context.Context, params GetCatalogParams) (_ []CatalogEntry, err error)
	AddCatalogEntry(ctx context.Context, entry CatalogEntry) (_ *CatalogEntry, err error)
	UpdateCatalogEntry(ctx context.Context, entry CatalogEntry) (err error)
	DeleteCatalogEntry(ctx context.Context, id int) (err error)
}

type CatalogHandler struct {
	repo catalogRepo
}

func NewCatalogHandler(repo catalogRepo) *CatalogHandler {
	return &CatalogHandler{
		repo: repo,
	}
}

func (handler *CatalogHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.catalog.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var entry CatalogEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Errorf("new catalog entry, unmarshal json params: %s", err)
		http.Error(w, "add catalog entry failed", http.StatusBadRequest)
		return
	}

	if entry.Name == "" {
		http.Error(w, "error, name is required", http.StatusBadRequest)
		return
	}

	for i, tag := range entry.MuscleTags {
		entry.MuscleTags[i] = strings.ToLower(tag)
		if !slices.Contains(MuscleTags, entry.MuscleTags[i]) {
			http.Error(w, "error, invalid muscle tag", http.StatusBadRequest)
			return
		}
	}

	addedEntry, err := handler.repo.AddCatalogEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, ErrCatalogEntryExists) {
			http.Error(w, "catalog entry already exists", http.StatusConflict)
			return
		}
		log.Errorf("add catalog entry: %s", err)
		http.Error(w, "add catalog entry failed", http.StatusInternalServerError)
		return
	}

	addedEntryJson, err := json.Marshal(addedEntry)
	if err != nil {
		log.Errorf("marshal added catalog entry: %s", err)
		http.Error(w, "add catalog entry failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("new catalog entry added: %+v", addedEntry)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedEntryJson, http.StatusCreated)
}

func (handler *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.catalog.get")
	defer span.End()

	entries, err := handler.repo.GetCatalog(ctx, GetCatalogParams{
		MuscleTag: r.URL.Query().Get("tag"),
		Name:      r.URL.Query().Get("name"),
	})
	if err != nil {
		log.Errorf("get catalog: %s", err)
		http.Error(w, "get catalog failed", http.StatusInternalServerError)
		return
	}

	entriesJson, err := json.Marshal(entries)
	if err != nil {
		log.Errorf("marshal catalog: %s", err)
		http.Error(w, "get catalog failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, entriesJson, http.StatusOK)
}

func (handler *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.catalog.update")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var entry CatalogEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Errorf("update catalog entry, unmarshal json params: %s", err)
		http.Error(w, "update catalog entry failed", http.StatusBadRequest)
		return
	}

	if entry.ID == 0 || entry.Name == "" {
		http.Error(w, "error, entry id and name are required", http.StatusBadRequest)
		return
	}

	if err := handler.repo.UpdateCatalogEntry(ctx, entry); err != nil {
		if errors.Is(err, ErrCatalogEntryNotFound) {
			http.Error(w, "catalog entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("update catalog entry: %s", err)
		http.Error(w, "update catalog entry failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("catalog entry updated: %+v", entry)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.catalog.delete")
	defer span.End()

	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.DeleteCatalogEntry(ctx, id); err != nil {
		if errors.Is(err, ErrCatalogEntryNotFound) {
			http.Error(w, "catalog entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete catalog entry: %s", err)
		http.Error(w, "delete catalog entry failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("catalog entry deleted: %d", id)
	w.WriteHeader(http.StatusNoContent)
}
