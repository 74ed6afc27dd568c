package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/pkg"

	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrCatalogEntryNotFound = errors.New("catalog entry not found")
	ErrCatalogEntryExists   = errors.New("catalog entry already exists")
)

// CatalogEntry maps an exercise name to the muscle groups it works.
// The name is what sessions refer to in their exercise lists.
type CatalogEntry struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	MuscleTags []string  `json:"muscleTags"`
	CreatedAt  time.Time `json:"createdAt"`
}

type GetCatalogParams struct {
	MuscleTag string
	Name      string
}

func (r *Repo) GetCatalogEntry(ctx context.Context, id int) (_ CatalogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.catalog.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var entry CatalogEntry
	err = r.db.QueryRow(ctx, `
			SELECT id, name, muscle_tags, created_at
			FROM exercise_catalog
			WHERE id = $1
		`, id,
	).Scan(
		&entry.ID,
		&entry.Name,
		&entry.MuscleTags,
		&entry.CreatedAt,
	)
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("catalog entry [query row]: %w", err)
	}

	return entry, nil
}

func (r *Repo) GetCatalog(ctx context.Context, params GetCatalogParams) (_ []CatalogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.catalog.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	if params.MuscleTag != "" {
		span.SetAttributes(attribute.String("params.muscleTag", params.MuscleTag))
	}
	if params.Name != "" {
		span.SetAttributes(attribute.String("params.name", params.Name))
	}

	rows, err := r.db.Query(ctx, `
			SELECT id, name, muscle_tags, created_at
			FROM exercise_catalog
			WHERE ($1::text = '' OR $1 = ANY(muscle_tags)) AND ($2::text = '' OR name = $2)
			ORDER BY name
		`,
		params.MuscleTag,
		params.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog entries [query]: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog entries [rows error]: %w", err)
	}

	var entries []CatalogEntry
	for rows.Next() {
		var entry CatalogEntry
		err := rows.Scan(
			&entry.ID,
			&entry.Name,
			&entry.MuscleTags,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("catalog entries [rows scan]: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// MuscleTagsByName returns the catalog as a lookup from exercise name
// to its muscle tags.
func (r *Repo) MuscleTagsByName(ctx context.Context) (_ map[string][]string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.catalog.tagsbyname")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	entries, err := r.GetCatalog(ctx, GetCatalogParams{})
	if err != nil {
		return nil, err
	}

	tagsByName := make(map[string][]string, len(entries))
	for _, entry := range entries {
		tagsByName[entry.Name] = entry.MuscleTags
	}
	return tagsByName, nil
}

func (r *Repo) AddCatalogEntry(ctx context.Context, entry CatalogEntry) (_ *CatalogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.catalog.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.MuscleTags == nil {
		entry.MuscleTags = []string{}
	}

	err = r.db.QueryRow(ctx, `
			INSERT INTO exercise_catalog (name, muscle_tags, created_at)
			VALUES ($1, $2, $3)
			RETURNING id
		`,
		entry.Name,
		entry.MuscleTags,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrCatalogEntryExists
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("entry.id", entry.ID))

	return &entry, nil
}

func (r *Repo) UpdateCatalogEntry(ctx context.Context, entry CatalogEntry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.catalog.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `
			UPDATE exercise_catalog
			SET name = $2, muscle_tags = $3
			WHERE id = $1
		`,
		entry.ID,
		entry.Name,
		entry.MuscleTags,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrCatalogEntryNotFound
	}

	return nil
}

func (r *Repo) DeleteCatalogEntry(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.catalog.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `
			DELETE FROM exercise_catalog
			WHERE id = $1
		`, id,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrCatalogEntryNotFound
	}

	return nil
}
