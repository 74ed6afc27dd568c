package test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/2beens/gymstats-backend/internal/readiness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) deleteReadinessRecords(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, "DELETE FROM daily_health")
	require.NoError(s.T(), err)
	_, err = s.dbPool.Exec(ctx, "DELETE FROM wellness_score")
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) TestReadiness() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.deleteReadinessRecords(ctx)

	t.Run("no signals, neutral default", func(t *testing.T) {
		assessment := s.getReadiness(ctx, t)
		assert.Equal(t, 50, assessment.Score)
		assert.Equal(t, readiness.BandModerate, assessment.Band)
		assert.Equal(t, readiness.SourceDefault, assessment.Source)
	})

	t.Run("daily health heuristic", func(t *testing.T) {
		// 9h of sleep against an 8h target, no heart rate baseline yet:
		// sleep component (9-8)/8 weighted by 0.4 -> 50 + 5
		healthJson, err := json.Marshal(readiness.DailyHealth{
			SleepHours: 9,
		})
		require.NoError(t, err)

		req := s.newAppRequest(ctx, "POST", "/readiness/health", healthJson)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		var saved readiness.DailyHealth
		require.NoError(t, json.Unmarshal(respBytes, &saved))
		assert.False(t, saved.Day.IsZero())
		assert.InDelta(t, 9, saved.SleepHours, 0.0001)

		assessment := s.getReadiness(ctx, t)
		assert.Equal(t, 55, assessment.Score)
		assert.Equal(t, readiness.BandModerate, assessment.Band)
		assert.Equal(t, readiness.SourceHealth, assessment.Source)
	})

	t.Run("wellness score wins over health", func(t *testing.T) {
		readinessScore := 85
		sleepScore := 70
		wellnessJson, err := json.Marshal(readiness.WellnessScore{
			Day:       time.Now(),
			Readiness: &readinessScore,
			Sleep:     &sleepScore,
		})
		require.NoError(t, err)

		req := s.newAppRequest(ctx, "POST", "/readiness/wellness", wellnessJson)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		assessment := s.getReadiness(ctx, t)
		assert.Equal(t, 85, assessment.Score)
		assert.Equal(t, readiness.BandHigh, assessment.Band)
		assert.Equal(t, readiness.SourceWellness, assessment.Source)
	})

	t.Run("invalid wellness score rejected", func(t *testing.T) {
		badScore := 150
		wellnessJson, err := json.Marshal(readiness.WellnessScore{
			Readiness: &badScore,
		})
		require.NoError(t, err)

		req := s.newAppRequest(ctx, "POST", "/readiness/wellness", wellnessJson)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, "error, invalid wellness score", strings.TrimSpace(string(respBytes)))
	})

	t.Run("invalid daily health rejected", func(t *testing.T) {
		healthJson, err := json.Marshal(readiness.DailyHealth{
			SleepHours: 30,
		})
		require.NoError(t, err)

		req := s.newAppRequest(ctx, "POST", "/readiness/health", healthJson)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	// leave no signals behind for the other tests
	s.deleteReadinessRecords(ctx)
}

func (s *IntegrationTestSuite) getReadiness(ctx context.Context, t *testing.T) readiness.Assessment {
	req := s.newAppRequest(ctx, "GET", "/readiness", nil)
	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var assessment readiness.Assessment
	require.NoError(t, json.Unmarshal(respBytes, &assessment))
	return assessment
}
