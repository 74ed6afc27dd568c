package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/2beens/gymstats-backend/internal/program"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) deleteAllPlans(ctx context.Context) {
	// program days go away through the cascade
	_, err := s.dbPool.Exec(ctx, "DELETE FROM program_plan")
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) TestProgram() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.deleteAllPlans(ctx)
	s.deleteAllSessions(ctx)
	s.deleteReadinessRecords(ctx)

	t.Run("no active plan yet", func(t *testing.T) {
		var activeResp program.ActivePlanResponse
		s.getProgram(ctx, t, "/program/active", &activeResp)
		assert.Nil(t, activeResp.Plan)

		var todayResp program.TodayPlanResponse
		s.getProgram(ctx, t, "/program/today", &todayResp)
		assert.Nil(t, todayResp.Today)
	})

	t.Run("invalid goal rejected", func(t *testing.T) {
		resp := s.createPlanRequest(ctx, program.CreatePlanParams{
			Goal:        "cardio-madness",
			DaysPerWeek: 3,
		})
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	firstPlan := s.createPlan(ctx, program.CreatePlanParams{
		Goal:            program.GoalStrength,
		DaysPerWeek:     3,
		StartDate:       time.Now(),
		WeightIncrement: 2.5,
	})
	require.NotEqual(t, uuid.Nil, firstPlan.ID)
	assert.Equal(t, program.StatusActive, firstPlan.Status)
	assert.Equal(t, "strength 3x week", firstPlan.Name)
	require.Len(t, firstPlan.Days, program.PlanWeeks*3)
	for _, day := range firstPlan.Days {
		assert.NotEmpty(t, day.Focus)
		assert.NotEmpty(t, day.Exercises)
	}

	t.Run("created plan is the active one", func(t *testing.T) {
		var activeResp program.ActivePlanResponse
		s.getProgram(ctx, t, "/program/active", &activeResp)
		require.NotNil(t, activeResp.Plan)
		assert.Equal(t, firstPlan.ID, activeResp.Plan.ID)
	})

	t.Run("today is due on the start date", func(t *testing.T) {
		var todayResp program.TodayPlanResponse
		s.getProgram(ctx, t, "/program/today", &todayResp)
		require.NotNil(t, todayResp.Today)
		assert.Equal(t, firstPlan.ID, todayResp.Today.PlanID)
		assert.Equal(t, 1, todayResp.Today.Day.Week)
		assert.False(t, todayResp.Today.Overdue)
		// no health signals stored, readiness stays neutral
		assert.Equal(t, program.AdjustmentNone, todayResp.Today.Adjustment)
	})

	secondPlan := s.createPlan(ctx, program.CreatePlanParams{
		Name:            "summer shred",
		Goal:            program.GoalHypertrophy,
		DaysPerWeek:     4,
		StartDate:       time.Now(),
		WeightIncrement: 2.5,
	})
	assert.Equal(t, "summer shred", secondPlan.Name)

	t.Run("creating a plan archives the previous one", func(t *testing.T) {
		var listResp program.ListPlansResponse
		s.getProgram(ctx, t, "/program", &listResp)
		assert.Len(t, listResp.Plans, 2)

		var activeResp program.ActivePlanResponse
		s.getProgram(ctx, t, "/program/active", &activeResp)
		require.NotNil(t, activeResp.Plan)
		assert.Equal(t, secondPlan.ID, activeResp.Plan.ID)

		var archived program.Plan
		s.getProgram(ctx, t, fmt.Sprintf("/program/%s", firstPlan.ID), &archived)
		assert.Equal(t, program.StatusArchived, archived.Status)
		assert.NotNil(t, archived.ArchivedAt)
	})

	t.Run("restore an archived plan", func(t *testing.T) {
		req := s.newAppRequest(ctx, "POST", fmt.Sprintf("/program/%s/restore", firstPlan.ID), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		var restoreResp program.RestorePlanResponse
		require.NoError(t, json.Unmarshal(respBytes, &restoreResp))
		assert.Equal(t, firstPlan.ID, restoreResp.RestoredID)

		var activeResp program.ActivePlanResponse
		s.getProgram(ctx, t, "/program/active", &activeResp)
		require.NotNil(t, activeResp.Plan)
		assert.Equal(t, firstPlan.ID, activeResp.Plan.ID)
	})

	t.Run("restoring the active plan conflicts", func(t *testing.T) {
		req := s.newAppRequest(ctx, "POST", fmt.Sprintf("/program/%s/restore", firstPlan.ID), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("restoring an unknown plan is not found", func(t *testing.T) {
		req := s.newAppRequest(ctx, "POST", fmt.Sprintf("/program/%s/restore", uuid.New()), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("complete today and check adherence", func(t *testing.T) {
		var todayResp program.TodayPlanResponse
		s.getProgram(ctx, t, "/program/today", &todayResp)
		require.NotNil(t, todayResp.Today)

		dayID := todayResp.Today.Day.ID
		req := s.newAppRequest(ctx, "POST", fmt.Sprintf("/program/day/%s/complete", dayID), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		var completeResp program.CompleteDayResponse
		require.NoError(t, json.Unmarshal(respBytes, &completeResp))
		assert.Equal(t, dayID, completeResp.CompletedID)

		var adherence program.Adherence
		s.getProgram(ctx, t, fmt.Sprintf("/program/%s/adherence", firstPlan.ID), &adherence)
		assert.Equal(t, firstPlan.ID, adherence.PlanID)
		assert.Equal(t, 1, adherence.DueDays)
		assert.Equal(t, 1, adherence.CompletedDays)
		assert.InDelta(t, 1, adherence.Rate, 0.0001)
	})

	t.Run("completing an unknown day is not found", func(t *testing.T) {
		req := s.newAppRequest(ctx, "POST", fmt.Sprintf("/program/day/%s/complete", uuid.New()), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete archived plan", func(t *testing.T) {
		req := s.newAppRequest(ctx, "DELETE", fmt.Sprintf("/program/%s", secondPlan.ID), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		var deleteResp program.DeletePlanResponse
		require.NoError(t, json.Unmarshal(respBytes, &deleteResp))
		assert.Equal(t, secondPlan.ID, deleteResp.DeletedID)

		// deleted for good
		getReq := s.newAppRequest(ctx, "GET", fmt.Sprintf("/program/%s", secondPlan.ID), nil)
		getResp, err := s.httpClient.Do(getReq)
		require.NoError(t, err)
		require.NoError(t, getResp.Body.Close())
		assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	})

	t.Run("deleting the active plan conflicts", func(t *testing.T) {
		req := s.newAppRequest(ctx, "DELETE", fmt.Sprintf("/program/%s", firstPlan.ID), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func (s *IntegrationTestSuite) createPlanRequest(
	ctx context.Context,
	params program.CreatePlanParams,
) *http.Response {
	paramsJson, err := json.Marshal(params)
	require.NoError(s.T(), err)

	req := s.newAppRequest(ctx, "POST", "/program", paramsJson)
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	return resp
}

func (s *IntegrationTestSuite) createPlan(
	ctx context.Context,
	params program.CreatePlanParams,
) program.Plan {
	resp := s.createPlanRequest(ctx, params)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var plan program.Plan
	require.NoError(s.T(), json.Unmarshal(respBytes, &plan))
	return plan
}

func (s *IntegrationTestSuite) getProgram(
	ctx context.Context,
	t *testing.T,
	path string,
	response interface{},
) {
	req := s.newAppRequest(ctx, "GET", path, nil)
	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(respBytes, response))
}
