package mcp

import (
	"github.com/2beens/gymstats-backend/internal/program"
	"github.com/2beens/gymstats-backend/internal/readiness"
	"github.com/2beens/gymstats-backend/internal/training"
	"github.com/2beens/gymstats-backend/internal/training/analytics"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server with training tools: schema, sessions, streaks,
// change metrics, exercise trend, progress contributions, readiness, today's plan.
// Used by the main backend when mounting MCP at /mcp (internal/server) and by
// the stdio command (cmd/mcp).
func NewServer(
	pool *pgxpool.Pool,
	trainingRepo *training.Repo,
	readinessService *readiness.Service,
	programEngine *program.Engine,
) *mcp.Server {
	analyzer := analytics.NewAnalyzer(trainingRepo, trainingRepo)
	svc := NewContextService(NewPoolSchemaRepo(pool), trainingRepo, analyzer, readinessService, programEngine)
	h := NewHandler(svc)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "gymstats-context",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_training_schema",
		Description: "Returns the DB schema for training-related tables (training_session, exercise_catalog, daily_health, wellness_score, program_plan, program_day): table names, columns, types, nullable, default. Use when developing the gymstats app and you need the actual backend schema.",
	}, h.GetTrainingSchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_sessions_for_time_range",
		Description: "Returns training sessions (with exercises and sets) done within the given date range. Optional filter: exercise (e.g. Bench Press). Use when you need to see what was logged in a period.",
	}, h.GetSessionsForTimeRangeTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_streak_runs",
		Description: "Returns runs of consecutive training days, tolerating up to rest_days rest days between two of them (default 1), plus the current and longest run. Use when you want to see training consistency.",
	}, h.GetStreakRunsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_change_metrics",
		Description: "Compares the last window_days days against the window_days days before them (default 30): session count, total volume, avg session duration, with percent change. The window is null when either half has no sessions. Use when you want to see short term direction.",
	}, h.GetChangeMetricsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_exercise_trend",
		Description: "Fits a linear trend over the best set values of one exercise during the last days days (default 90). The trend is null with fewer than two training days. Args: exercise (name), days. Use when you want progression for a single lift.",
	}, h.GetExerciseTrendTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_progress_contributions",
		Description: "Ranks exercises and muscle groups by how much their best set values moved between the last weeks weeks and the weeks before them (default 8): gainers and decliners. Use when you want to see what drives or drags progress.",
	}, h.GetProgressContributionsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_readiness",
		Description: "Returns today's readiness assessment (score 0-100, band low/moderate/high, contributing factors) from wellness self reports or resting heart rate and sleep. Use before suggesting training intensity.",
	}, h.GetReadinessTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_today_plan",
		Description: "Returns today's (or the earliest overdue) uncompleted day of the active program plan, with the prescription already adjusted for readiness. Use when you want to know what to train today.",
	}, h.GetTodayPlanTool())

	return s
}
