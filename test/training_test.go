package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/2beens/gymstats-backend/internal/training"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) deleteAllSessions(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, "DELETE FROM training_session")
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) deleteCatalog(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, "DELETE FROM exercise_catalog")
	require.NoError(s.T(), err)
}

// newAppRequest makes a request the way the ios app does, carrying the
// app secret instead of a login token
func (s *IntegrationTestSuite) newAppRequest(
	ctx context.Context,
	method, path string,
	body []byte,
) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, bodyReader)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", testIOSAppUserAgent)
	req.Header.Set("Authorization", testGymStatsIOSAppSecret)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *IntegrationTestSuite) addSessionRequest(
	ctx context.Context,
	session training.Session,
) training.AddSessionResponse {
	sessionJson, err := json.Marshal(session)
	require.NoError(s.T(), err)

	req := s.newAppRequest(ctx, "POST", "/sessions", sessionJson)
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var addedSession training.AddSessionResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &addedSession))

	return addedSession
}

func testSession(startedAt time.Time, exercises ...training.Exercise) training.Session {
	return training.Session{
		StartedAt:       startedAt,
		Name:            gofakeit.VerbAction(),
		DurationMinutes: gofakeit.Number(30, 90),
		Exercises:       exercises,
	}
}

func strengthExercise(name string, weight float64, reps, sets int) training.Exercise {
	ex := training.Exercise{Name: name}
	for i := 0; i < sets; i++ {
		ex.Sets = append(ex.Sets, training.Set{
			Order:  i + 1,
			Weight: weight,
			Reps:   reps,
		})
	}
	return ex
}

func (s *IntegrationTestSuite) TestSessions_CRUD() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.deleteAllSessions(ctx)

	added := s.addSessionRequest(ctx, testSession(
		time.Now().Add(-2*time.Hour),
		strengthExercise("Bench Press", 80, 8, 3),
		strengthExercise("Squat", 100, 5, 5),
	))
	require.NotZero(t, added.ID)
	require.Len(t, added.Exercises, 2)
	assert.Equal(t, 1, added.CountThisWeek)

	t.Run("get", func(t *testing.T) {
		req := s.newAppRequest(ctx, "GET", fmt.Sprintf("/sessions/%d", added.ID), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var gotten training.Session
		require.NoError(t, json.Unmarshal(respBytes, &gotten))
		assert.Equal(t, added.ID, gotten.ID)
		assert.Equal(t, added.Name, gotten.Name)
		require.Len(t, gotten.Exercises, 2)
		assert.Equal(t, "Bench Press", gotten.Exercises[0].Name)
		assert.InDelta(t, 80*8*3+100*5*5, gotten.TotalVolume(), 0.0001)
	})

	t.Run("get unknown", func(t *testing.T) {
		req := s.newAppRequest(ctx, "GET", "/sessions/99999", nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			s.addSessionRequest(ctx, testSession(
				time.Now().Add(-time.Duration(i+1)*24*time.Hour),
				strengthExercise("Deadlift", 120, 5, 3),
			))
		}

		req := s.newAppRequest(ctx, "GET", "/sessions/list/page/1/size/2", nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var listResp training.ListResponse
		require.NoError(t, json.Unmarshal(respBytes, &listResp))
		assert.Equal(t, 4, listResp.Total)
		assert.Len(t, listResp.Sessions, 2)
	})

	t.Run("update", func(t *testing.T) {
		updated := added.Session
		updated.Name = "renamed session"
		updatedJson, err := json.Marshal(updated)
		require.NoError(t, err)

		req := s.newAppRequest(ctx, "PUT", "/sessions", updatedJson)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var updateResp training.UpdateSessionResponse
		require.NoError(t, json.Unmarshal(respBytes, &updateResp))
		assert.Equal(t, added.ID, updateResp.UpdatedID)
	})

	t.Run("delete", func(t *testing.T) {
		req := s.newAppRequest(ctx, "DELETE", fmt.Sprintf("/sessions/%d", added.ID), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var deleteResp training.DeleteSessionResponse
		require.NoError(t, json.Unmarshal(respBytes, &deleteResp))
		assert.Equal(t, added.ID, deleteResp.DeletedID)

		getReq := s.newAppRequest(ctx, "GET", fmt.Sprintf("/sessions/%d", added.ID), nil)
		getResp, err := s.httpClient.Do(getReq)
		require.NoError(t, err)
		require.NoError(t, getResp.Body.Close())
		assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	})
}

func (s *IntegrationTestSuite) TestCatalog_CRUD() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.deleteCatalog(ctx)

	entry := training.CatalogEntry{
		Name:       "Bench Press",
		MuscleTags: []string{"chest", "triceps"},
	}
	entryJson, err := json.Marshal(entry)
	require.NoError(t, err)

	req := s.newAppRequest(ctx, "POST", "/sessions/catalog", entryJson)
	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var addedEntry training.CatalogEntry
	require.NoError(t, json.Unmarshal(respBytes, &addedEntry))
	require.NotZero(t, addedEntry.ID)

	t.Run("duplicate name conflicts", func(t *testing.T) {
		req := s.newAppRequest(ctx, "POST", "/sessions/catalog", entryJson)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("invalid muscle tag rejected", func(t *testing.T) {
		badEntryJson, err := json.Marshal(training.CatalogEntry{
			Name:       "Mystery Machine",
			MuscleTags: []string{"mystery"},
		})
		require.NoError(t, err)

		req := s.newAppRequest(ctx, "POST", "/sessions/catalog", badEntryJson)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get by tag", func(t *testing.T) {
		req := s.newAppRequest(ctx, "GET", "/sessions/catalog?tag=chest", nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var entries []training.CatalogEntry
		require.NoError(t, json.Unmarshal(respBytes, &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "Bench Press", entries[0].Name)
		assert.Equal(t, []string{"chest", "triceps"}, entries[0].MuscleTags)
	})

	t.Run("update", func(t *testing.T) {
		addedEntry.MuscleTags = []string{"chest"}
		updatedJson, err := json.Marshal(addedEntry)
		require.NoError(t, err)

		req := s.newAppRequest(ctx, "PUT", "/sessions/catalog", updatedJson)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		req := s.newAppRequest(ctx, "DELETE", fmt.Sprintf("/sessions/catalog/%d", addedEntry.ID), nil)
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		// deleting again reports not found
		req = s.newAppRequest(ctx, "DELETE", fmt.Sprintf("/sessions/catalog/%d", addedEntry.ID), nil)
		resp, err = s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
