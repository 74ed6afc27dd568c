package test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/2beens/gymstats-backend/internal/training"
	"github.com/2beens/gymstats-backend/internal/training/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAnalytics seeds a small, hand checkable session history:
//
//	10 days ago: bench 80, squat 100
//	 4 days ago: bench 80
//	 2 days ago: bench 90, squat 90
//	 1 day ago:  bench 100
//
// and then checks the streaks, change, trend and contributions
// endpoints against it. Everything is seeded up front because the
// analyzer caches responses per parameter set.
func (s *IntegrationTestSuite) TestAnalytics() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.deleteAllSessions(ctx)
	s.deleteCatalog(ctx)

	s.addCatalogEntry(ctx, "Bench Press", "chest")
	s.addCatalogEntry(ctx, "Squat", "legs")

	now := time.Now()
	daysAgo := func(days int) time.Time {
		return now.Add(-time.Duration(days) * 24 * time.Hour)
	}

	s.addSessionRequest(ctx, testSession(
		daysAgo(10),
		strengthExercise("Bench Press", 80, 8, 3),
		strengthExercise("Squat", 100, 5, 3),
	))
	s.addSessionRequest(ctx, testSession(
		daysAgo(4),
		strengthExercise("Bench Press", 80, 8, 3),
	))
	s.addSessionRequest(ctx, testSession(
		daysAgo(2),
		strengthExercise("Bench Press", 90, 6, 3),
		strengthExercise("Squat", 90, 5, 3),
	))
	s.addSessionRequest(ctx, testSession(
		daysAgo(1),
		strengthExercise("Bench Press", 100, 3, 3),
	))

	t.Run("streaks, no rest days tolerated", func(t *testing.T) {
		var streaks analytics.StreaksResponse
		s.getAnalytics(ctx, t, "/analytics/streaks?rest-days=0", &streaks)

		assert.Equal(t, 0, streaks.RestDays)
		// training days 10/4/2/1 days ago fall apart into three runs
		require.Len(t, streaks.Runs, 3)
		assert.Equal(t, 1, streaks.Runs[0].Days)
		assert.Equal(t, 1, streaks.Runs[1].Days)
		assert.Equal(t, 2, streaks.Runs[2].Days)

		require.NotNil(t, streaks.Longest)
		assert.Equal(t, 2, streaks.Longest.Days)

		// the last session was yesterday, the run is still alive
		require.NotNil(t, streaks.Current)
		assert.Equal(t, 2, streaks.Current.Days)
	})

	t.Run("streaks, one rest day tolerated", func(t *testing.T) {
		var streaks analytics.StreaksResponse
		s.getAnalytics(ctx, t, "/analytics/streaks?rest-days=1", &streaks)

		// the 4/2/1 days ago sessions now merge into a single run
		require.Len(t, streaks.Runs, 2)
		require.NotNil(t, streaks.Longest)
		assert.Equal(t, 3, streaks.Longest.Days)
	})

	t.Run("change over a 3 day window", func(t *testing.T) {
		var change analytics.ChangeResponse
		s.getAnalytics(ctx, t, "/analytics/change?window-days=3", &change)

		assert.Equal(t, 3, change.WindowDays)
		require.NotNil(t, change.Window)
		require.Len(t, change.Metrics, 3)

		sessionsMetric := change.Metrics[0]
		assert.Equal(t, "sessions", sessionsMetric.Title)
		assert.InDelta(t, 2, sessionsMetric.Current, 0.0001)
		assert.InDelta(t, 1, sessionsMetric.Previous, 0.0001)
		assert.InDelta(t, 1, sessionsMetric.Delta, 0.0001)
		require.NotNil(t, sessionsMetric.Percent)
		assert.InDelta(t, 1, *sessionsMetric.Percent, 0.0001)

		assert.Equal(t, "total volume", change.Metrics[1].Title)
		assert.Equal(t, "avg duration min", change.Metrics[2].Title)
	})

	t.Run("change with no previous sessions", func(t *testing.T) {
		// only the 1 and 2 days ago sessions fall in the last 2 days,
		// the previous interval (4 to 2 days ago, exclusive) is empty
		var change analytics.ChangeResponse
		s.getAnalytics(ctx, t, "/analytics/change?window-days=2", &change)
		assert.Nil(t, change.Window)
		assert.Empty(t, change.Metrics)
	})

	t.Run("bench press trend is improving", func(t *testing.T) {
		path := "/analytics/trend?days=90&exercise=" + url.QueryEscape("Bench Press")

		var trend analytics.TrendResponse
		s.getAnalytics(ctx, t, path, &trend)

		assert.Equal(t, "Bench Press", trend.Exercise)
		assert.Equal(t, 90, trend.Days)
		// four distinct training days with bench press
		assert.Equal(t, 4, trend.Points)
		require.NotNil(t, trend.Trend)
		assert.Greater(t, trend.Trend.Slope, 0.0)
		assert.Equal(t, analytics.TrendImproving, trend.Trend.Direction)
	})

	t.Run("trend without enough data", func(t *testing.T) {
		path := "/analytics/trend?days=90&exercise=" + url.QueryEscape("Overhead Press")

		var trend analytics.TrendResponse
		s.getAnalytics(ctx, t, path, &trend)
		assert.Equal(t, 0, trend.Points)
		assert.Nil(t, trend.Trend)
	})

	t.Run("trend without exercise param", func(t *testing.T) {
		req := s.newAppRequest(ctx, "GET", "/analytics/trend", nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("contributions over one week periods", func(t *testing.T) {
		var contributions analytics.ContributionsResponse
		s.getAnalytics(ctx, t, "/analytics/contributions?weeks=1", &contributions)

		assert.Equal(t, 1, contributions.Weeks)

		// bench went 80 -> 100 between the two weeks, squat 100 -> 90
		require.Len(t, contributions.Exercises.Gainers, 1)
		benchContribution := contributions.Exercises.Gainers[0]
		assert.Equal(t, "Bench Press", benchContribution.Subject)
		assert.InDelta(t, 100, benchContribution.Recent, 0.0001)
		assert.InDelta(t, 80, benchContribution.Prior, 0.0001)
		assert.InDelta(t, 20, benchContribution.Delta, 0.0001)

		require.Len(t, contributions.Exercises.Decliners, 1)
		squatContribution := contributions.Exercises.Decliners[0]
		assert.Equal(t, "Squat", squatContribution.Subject)
		assert.InDelta(t, -10, squatContribution.Delta, 0.0001)

		// the catalog maps bench to chest and squat to legs
		require.Len(t, contributions.Muscles.Gainers, 1)
		assert.Equal(t, "chest", contributions.Muscles.Gainers[0].Subject)
		assert.InDelta(t, 20, contributions.Muscles.Gainers[0].Delta, 0.0001)
		require.Len(t, contributions.Muscles.Decliners, 1)
		assert.Equal(t, "legs", contributions.Muscles.Decliners[0].Subject)
	})
}

func (s *IntegrationTestSuite) getAnalytics(
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

func (s *IntegrationTestSuite) addCatalogEntry(ctx context.Context, name string, muscleTags ...string) {
	entryJson, err := json.Marshal(training.CatalogEntry{
		Name:       name,
		MuscleTags: muscleTags,
	})
	require.NoError(s.T(), err)

	req := s.newAppRequest(ctx, "POST", "/sessions/catalog", entryJson)
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.NoError(s.T(), resp.Body.Close())
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
}
