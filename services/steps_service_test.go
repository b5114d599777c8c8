package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepsToday_SumsAggregateBuckets(t *testing.T) {
	now := time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fitness/v1/users/me/dataset:aggregate", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var req aggregateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.AggregateBy, 1)
		assert.Equal(t, "com.google.step_count.delta", req.AggregateBy[0].DataTypeName)
		assert.Equal(t, now.Truncate(24*time.Hour).UnixMilli(), req.StartTimeMillis)
		assert.Equal(t, now.UnixMilli(), req.EndTimeMillis)

		w.Write([]byte(`{"bucket":[
			{"dataset":[{"point":[{"value":[{"intVal":4200}]}]}]},
			{"dataset":[{"point":[{"value":[{"intVal":1300}, {"intVal":500}]}]}]}
		]}`))
	}))
	defer srv.Close()

	s := NewStepsService("token-123")
	s.baseURL = srv.URL

	count := s.StepsToday(context.Background(), now)
	assert.Equal(t, StepCount{Steps: 6000, Source: "googlefit"}, count)
}

func TestStepsToday_FallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewStepsService("token-123")
	s.baseURL = srv.URL

	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	count := s.StepsToday(context.Background(), now)
	assert.Equal(t, "estimated", count.Source)
	assert.Equal(t, 4000, count.Steps, "noon means half the daily estimate")
}

func TestStepsToday_EstimatesWithoutToken(t *testing.T) {
	s := NewStepsService("")

	morning := time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)
	count := s.StepsToday(context.Background(), morning)
	assert.Equal(t, StepCount{Steps: 2000, Source: "estimated"}, count)

	midnight := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	assert.Zero(t, s.StepsToday(context.Background(), midnight).Steps)
}
