package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGeminiTest points a service at a stub server with retry delays
// shrunk so failure paths finish quickly.
func newGeminiTest(t *testing.T, handler http.HandlerFunc) *GeminiService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewGeminiService("test-key", "gemini-test")
	s.baseURL = srv.URL
	s.baseDelay = time.Millisecond
	return s
}

// modelReply wraps text in the generateContent candidate envelope.
func modelReply(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	require.NoError(t, err)
	return body
}

func TestGemini_EstimateFood(t *testing.T) {
	var gotPath atomic.Value
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path + "?" + r.URL.RawQuery)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Contains(t, req.SystemInstruction.Parts[0].Text, "nutritionist")
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "one apple")

		w.Write(modelReply(t, `{"name":"Apple","cals":95,"protein":0}`))
	})

	est, err := s.EstimateFood(context.Background(), "one apple")
	require.NoError(t, err)
	assert.Equal(t, &FoodEstimate{Name: "Apple", Cals: 95, Protein: 0}, est)

	path := gotPath.Load().(string)
	assert.True(t, strings.HasPrefix(path, "/v1beta/models/gemini-test:generateContent"), path)
	assert.Contains(t, path, "key=test-key")
}

func TestGemini_EstimateFood_UnnamedReplyNotRetried(t *testing.T) {
	var calls atomic.Int32
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write(modelReply(t, `{"name":"","cals":0,"protein":0}`))
	})

	_, err := s.EstimateFood(context.Background(), "???")
	require.ErrorIs(t, err, ErrUnidentified)
	assert.Equal(t, int32(1), calls.Load(), "a delivered reply is never retried")
}

func TestGemini_MalformedReplyIsUnidentified(t *testing.T) {
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(modelReply(t, "Sure! Here is your estimate: about 95 calories."))
	})

	_, err := s.EstimateFood(context.Background(), "one apple")
	assert.ErrorIs(t, err, ErrUnidentified)
}

func TestGemini_EmptyCandidatesIsUnidentified(t *testing.T) {
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := s.EstimateFood(context.Background(), "one apple")
	assert.ErrorIs(t, err, ErrUnidentified)
}

func TestGemini_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write(modelReply(t, `{"name":"Apple","cals":95,"protein":0}`))
	})

	est, err := s.EstimateFood(context.Background(), "one apple")
	require.NoError(t, err)
	assert.Equal(t, "Apple", est.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGemini_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := s.EstimateFood(context.Background(), "one apple")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnidentified, "transport exhaustion is not a parse failure")
	assert.Equal(t, int32(s.maxAttempts), calls.Load(), "attempts are bounded")
}

func TestGemini_EstimateActivity(t *testing.T) {
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt := req.Contents[0].Parts[0].Text
		assert.Contains(t, prompt, "30 minutes")
		assert.Contains(t, prompt, "87.5 kg")

		w.Write(modelReply(t, `{"name":"Brisk Walk","calories":180}`))
	})

	est, err := s.EstimateActivity(context.Background(), "walked to work", 30, 87.5)
	require.NoError(t, err)
	assert.Equal(t, &ActivityEstimate{Name: "Brisk Walk", Calories: 180}, est)
}

func TestGemini_EstimateActivity_RejectsNonPositiveCalories(t *testing.T) {
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(modelReply(t, `{"name":"Sitting","calories":0}`))
	})

	_, err := s.EstimateActivity(context.Background(), "sat on the couch", 30, 90)
	assert.ErrorIs(t, err, ErrUnidentified)
}

func TestGemini_CoachSummary(t *testing.T) {
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt := req.Contents[0].Parts[0].Text
		assert.Contains(t, prompt, `"currentWeight":88`)
		assert.Contains(t, prompt, "Target 80.0kg")

		w.Write(modelReply(t, `{"message":"Great pace. Keep protein high today."}`))
	})

	reply, err := s.CoachSummary(context.Background(), CoachStats{
		CurrentWeight: 88,
		GoalWeight:    80,
		EndDate:       "2025-02-09",
		TargetCals:    1627,
	})
	require.NoError(t, err)
	assert.Equal(t, "Great pace. Keep protein high today.", reply.Message)
}

func TestGemini_ContextCancelStopsRetrying(t *testing.T) {
	s := newGeminiTest(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	s.baseDelay = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.EstimateFood(ctx, "one apple")
	require.Error(t, err)
}
