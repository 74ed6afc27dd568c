package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/2beens/gymstats-backend/internal/program"
	"github.com/2beens/gymstats-backend/internal/readiness"
	"github.com/2beens/gymstats-backend/internal/training"
	"github.com/2beens/gymstats-backend/internal/training/analytics"
)

// SessionsRepo provides the stored training sessions (for dependency injection and testing).
type SessionsRepo interface {
	ListAll(ctx context.Context, params training.SessionParams) ([]training.Session, error)
}

// trainingAnalyzer provides training analytics (for dependency injection and testing).
type trainingAnalyzer interface {
	Streaks(ctx context.Context, restDays int) (*analytics.StreaksResponse, error)
	Change(ctx context.Context, windowDays int) (*analytics.ChangeResponse, error)
	ExerciseTrend(ctx context.Context, exerciseName string, days int) (*analytics.TrendResponse, error)
	Contributions(ctx context.Context, weeks int) (*analytics.ContributionsResponse, error)
}

// readinessEvaluator provides today's readiness assessment.
type readinessEvaluator interface {
	Evaluate(ctx context.Context) (readiness.Assessment, error)
}

// programEngine provides the adjusted prescription for today.
type programEngine interface {
	TodayPlan(ctx context.Context) (*program.TodayPlan, error)
}

// contextService provides training context data (schema, sessions, analytics,
// readiness, program). Used by Handler for testability.
type contextService interface {
	GetSchema(ctx context.Context) (string, error)
	ListSessions(ctx context.Context, params training.SessionParams) ([]training.Session, error)
	GetStreaks(ctx context.Context, restDays int) (*analytics.StreaksResponse, error)
	GetChange(ctx context.Context, windowDays int) (*analytics.ChangeResponse, error)
	GetTrend(ctx context.Context, exerciseName string, days int) (*analytics.TrendResponse, error)
	GetContributions(ctx context.Context, weeks int) (*analytics.ContributionsResponse, error)
	GetReadiness(ctx context.Context) (readiness.Assessment, error)
	GetTodayPlan(ctx context.Context) (*program.TodayPlan, error)
}

// ContextService holds dependencies and implements the training context business logic.
type ContextService struct {
	schema    SchemaRepo
	sessions  SessionsRepo
	analyzer  trainingAnalyzer
	readiness readinessEvaluator
	program   programEngine
}

// NewContextService builds a ContextService with the given dependencies.
func NewContextService(
	schemaRepo SchemaRepo,
	sessionsRepo SessionsRepo,
	analyzer trainingAnalyzer,
	readinessEvaluator readinessEvaluator,
	programEngine programEngine,
) *ContextService {
	return &ContextService{
		schema:    schemaRepo,
		sessions:  sessionsRepo,
		analyzer:  analyzer,
		readiness: readinessEvaluator,
		program:   programEngine,
	}
}

// GetSchema returns the DB schema (table names, columns, types) for training-related
// tables: training_session, exercise_catalog, daily_health, wellness_score,
// program_plan, program_day.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	cols, err := s.schema.GetTrainingColumns(ctx)
	if err != nil {
		return "", err
	}
	return formatTrainingSchema(cols), nil
}

func formatTrainingSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# Training DB Schema\n\nNo training tables found in the database.\n"
	}

	byTable := make(map[string][]SchemaColumn)
	for _, c := range cols {
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}

	tableOrder := make([]string, 0, len(byTable))
	for t := range byTable {
		tableOrder = append(tableOrder, t)
	}
	sort.Strings(tableOrder)

	var b strings.Builder
	b.WriteString("# Training DB Schema\n\n")
	b.WriteString("Tables: training_session, exercise_catalog, daily_health, wellness_score, program_plan, program_day (schema: public).\n\n")

	for _, tableName := range tableOrder {
		tableCols := byTable[tableName]
		b.WriteString("## ")
		b.WriteString(tableName)
		b.WriteString("\n\n| Column | Type | Nullable | Default |\n|--------|------|----------|--------|\n")
		for _, c := range tableCols {
			def := "—"
			if c.ColumnDef != nil && *c.ColumnDef != "" {
				def = *c.ColumnDef
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def))
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n\n") + "\n"
}

// ListSessions returns training sessions for the given params (time range, filters).
func (s *ContextService) ListSessions(ctx context.Context, params training.SessionParams) ([]training.Session, error) {
	return s.sessions.ListAll(ctx, params)
}

// GetStreaks returns the training day runs with the given rest day tolerance.
func (s *ContextService) GetStreaks(ctx context.Context, restDays int) (*analytics.StreaksResponse, error) {
	return s.analyzer.Streaks(ctx, restDays)
}

// GetChange compares the last windowDays days against the windowDays days before them.
func (s *ContextService) GetChange(ctx context.Context, windowDays int) (*analytics.ChangeResponse, error) {
	return s.analyzer.Change(ctx, windowDays)
}

// GetTrend returns the fitted trend line for one exercise over the given period.
func (s *ContextService) GetTrend(ctx context.Context, exerciseName string, days int) (*analytics.TrendResponse, error) {
	return s.analyzer.ExerciseTrend(ctx, exerciseName, days)
}

// GetContributions returns exercises and muscle groups ranked by progress.
func (s *ContextService) GetContributions(ctx context.Context, weeks int) (*analytics.ContributionsResponse, error) {
	return s.analyzer.Contributions(ctx, weeks)
}

// GetReadiness returns today's readiness assessment.
func (s *ContextService) GetReadiness(ctx context.Context) (readiness.Assessment, error) {
	return s.readiness.Evaluate(ctx)
}

// GetTodayPlan returns today's prescription from the active plan, adjusted for readiness.
func (s *ContextService) GetTodayPlan(ctx context.Context) (*program.TodayPlan, error) {
	return s.program.TodayPlan(ctx)
}
