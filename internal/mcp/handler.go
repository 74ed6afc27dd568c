package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2beens/gymstats-backend/internal/training"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service contextService
}

// NewHandler builds a handler with the given service.
func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error()), nil, nil
	}
	return textResult(string(raw)), nil, nil
}

// GetTrainingSchemaTool returns the MCP tool handler for get_training_schema.
func (h *Handler) GetTrainingSchemaTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return textResult(text), nil, nil
	}
}

// SessionsTimeRangeInput is the input for get_sessions_for_time_range.
type SessionsTimeRangeInput struct {
	FromDate string `json:"from_date" jsonschema:"Start date (YYYY-MM-DD)"`
	ToDate   string `json:"to_date" jsonschema:"End date (YYYY-MM-DD)"`
	Exercise string `json:"exercise,omitempty" jsonschema:"Filter by exercise name (e.g. Bench Press)"`
}

// GetSessionsForTimeRangeTool returns the MCP tool handler for get_sessions_for_time_range.
func (h *Handler) GetSessionsForTimeRangeTool() func(context.Context, *mcp.CallToolRequest, SessionsTimeRangeInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SessionsTimeRangeInput) (*mcp.CallToolResult, any, error) {
		from, err := time.Parse("2006-01-02", in.FromDate)
		if err != nil {
			return errorResult("Invalid from_date: use YYYY-MM-DD"), nil, nil
		}
		to, err := time.Parse("2006-01-02", in.ToDate)
		if err != nil {
			return errorResult("Invalid to_date: use YYYY-MM-DD"), nil, nil
		}
		to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999999999, to.Location())

		params := training.SessionParams{
			From:         &from,
			To:           &to,
			ExerciseName: in.Exercise,
		}
		list, err := h.service.ListSessions(ctx, params)
		if err != nil {
			return errorResult("Error listing sessions: " + err.Error()), nil, nil
		}
		return jsonResult(list)
	}
}

// StreakRunsInput is the input for get_streak_runs.
type StreakRunsInput struct {
	RestDays int `json:"rest_days,omitempty" jsonschema:"Tolerated rest days between two training days (default 1)"`
}

// GetStreakRunsTool returns the MCP tool handler for get_streak_runs.
func (h *Handler) GetStreakRunsTool() func(context.Context, *mcp.CallToolRequest, StreakRunsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in StreakRunsInput) (*mcp.CallToolResult, any, error) {
		restDays := in.RestDays
		if restDays < 0 {
			return errorResult("Invalid rest_days: must be zero or positive"), nil, nil
		}
		streaks, err := h.service.GetStreaks(ctx, restDays)
		if err != nil {
			return errorResult("Error fetching streaks: " + err.Error()), nil, nil
		}
		return jsonResult(streaks)
	}
}

// ChangeMetricsInput is the input for get_change_metrics.
type ChangeMetricsInput struct {
	WindowDays int `json:"window_days,omitempty" jsonschema:"Window length in days (default 30)"`
}

// GetChangeMetricsTool returns the MCP tool handler for get_change_metrics.
func (h *Handler) GetChangeMetricsTool() func(context.Context, *mcp.CallToolRequest, ChangeMetricsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ChangeMetricsInput) (*mcp.CallToolResult, any, error) {
		windowDays := in.WindowDays
		if windowDays == 0 {
			windowDays = 30
		}
		if windowDays < 0 {
			return errorResult("Invalid window_days: must be positive"), nil, nil
		}
		change, err := h.service.GetChange(ctx, windowDays)
		if err != nil {
			return errorResult("Error fetching change metrics: " + err.Error()), nil, nil
		}
		return jsonResult(change)
	}
}

// ExerciseTrendInput is the input for get_exercise_trend.
type ExerciseTrendInput struct {
	Exercise string `json:"exercise" jsonschema:"Exercise name (e.g. Bench Press)"`
	Days     int    `json:"days,omitempty" jsonschema:"Period length in days (default 90)"`
}

// GetExerciseTrendTool returns the MCP tool handler for get_exercise_trend.
func (h *Handler) GetExerciseTrendTool() func(context.Context, *mcp.CallToolRequest, ExerciseTrendInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ExerciseTrendInput) (*mcp.CallToolResult, any, error) {
		if in.Exercise == "" {
			return errorResult("Invalid exercise: must not be empty"), nil, nil
		}
		days := in.Days
		if days == 0 {
			days = 90
		}
		if days < 0 {
			return errorResult("Invalid days: must be positive"), nil, nil
		}
		trend, err := h.service.GetTrend(ctx, in.Exercise, days)
		if err != nil {
			return errorResult("Error fetching trend: " + err.Error()), nil, nil
		}
		return jsonResult(trend)
	}
}

// ProgressContributionsInput is the input for get_progress_contributions.
type ProgressContributionsInput struct {
	Weeks int `json:"weeks,omitempty" jsonschema:"Window length in weeks (default 8)"`
}

// GetProgressContributionsTool returns the MCP tool handler for get_progress_contributions.
func (h *Handler) GetProgressContributionsTool() func(context.Context, *mcp.CallToolRequest, ProgressContributionsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ProgressContributionsInput) (*mcp.CallToolResult, any, error) {
		weeks := in.Weeks
		if weeks == 0 {
			weeks = 8
		}
		if weeks < 0 {
			return errorResult("Invalid weeks: must be positive"), nil, nil
		}
		contributions, err := h.service.GetContributions(ctx, weeks)
		if err != nil {
			return errorResult("Error fetching contributions: " + err.Error()), nil, nil
		}
		return jsonResult(contributions)
	}
}

// GetReadinessTool returns the MCP tool handler for get_readiness.
func (h *Handler) GetReadinessTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		assessment, err := h.service.GetReadiness(ctx)
		if err != nil {
			return errorResult("Error fetching readiness: " + err.Error()), nil, nil
		}
		return jsonResult(assessment)
	}
}

// GetTodayPlanTool returns the MCP tool handler for get_today_plan.
func (h *Handler) GetTodayPlanTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		today, err := h.service.GetTodayPlan(ctx)
		if err != nil {
			return errorResult("Error fetching today plan: " + err.Error()), nil, nil
		}
		if today == nil {
			return textResult("No active plan or nothing due today."), nil, nil
		}
		return jsonResult(today)
	}
}
