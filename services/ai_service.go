package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// ErrUnidentified means the model replied, but not in the required shape.
// Callers surface it as a "could not identify" toast and move on.
var ErrUnidentified = errors.New("could not identify from description")

// FoodEstimate is the required reply shape of the food-parsing prompt.
type FoodEstimate struct {
	Name    string `json:"name"`
	Cals    int    `json:"cals"`
	Protein int    `json:"protein"`
}

// ActivityEstimate is the required reply shape of the calories-burned prompt.
type ActivityEstimate struct {
	Name     string `json:"name"`
	Calories int    `json:"calories"`
}

// CoachStats is the snapshot serialized into the coaching prompt.
type CoachStats struct {
	CurrentWeight float64      `json:"currentWeight"`
	DaysLeft      int          `json:"daysLeft"`
	TotalLost     float64      `json:"totalLost"`
	RecentHabits  []HabitStats `json:"recentHabits"`
	TodayCals     int          `json:"todayCals"`
	TargetCals    int          `json:"targetCals"`
	GoalWeight    float64      `json:"goalWeight"`
	EndDate       string       `json:"endDate"`
}

// HabitStats is one day of habit flags inside CoachStats.
type HabitStats struct {
	Date    string `json:"date"`
	NoSugar bool   `json:"noSugar"`
	LowSalt bool   `json:"lowSalt"`
}

// CoachReply is the required reply shape of the coaching prompt.
type CoachReply struct {
	Message string `json:"message"`
}

// AIGateway turns natural-language descriptions into structured nutrition
// and exercise estimates, and produces short coaching advice.
type AIGateway interface {
	EstimateFood(ctx context.Context, description string) (*FoodEstimate, error)
	EstimateActivity(ctx context.Context, description string, durationMinutes int, currentWeightKg float64) (*ActivityEstimate, error)
	CoachSummary(ctx context.Context, stats CoachStats) (*CoachReply, error)
}

// GeminiService calls the generateContent endpoint with a system
// instruction constraining the reply to JSON. Transport and non-2xx
// failures are retried up to maxAttempts with exponentially doubling delay.
type GeminiService struct {
	client      *http.Client
	apiKey      string
	model       string
	baseURL     string
	maxAttempts int
	baseDelay   time.Duration
}

func NewGeminiService(apiKey, model string) *GeminiService {
	return &GeminiService{
		client:      &http.Client{Timeout: 15 * time.Second},
		apiKey:      apiKey,
		model:       model,
		baseURL:     "https://generativelanguage.googleapis.com",
		maxAttempts: 5,
		baseDelay:   time.Second,
	}
}

const foodSystemPrompt = `You are a nutritionist. Parse the food description into a JSON object with keys: "name" (short string), "cals" (integer), "protein" (integer grams). Estimate portion sizes if not specified. Example: {"name": "Chicken Sandwich", "cals": 450, "protein": 30}. Return ONLY JSON.`

func (s *GeminiService) EstimateFood(ctx context.Context, description string) (*FoodEstimate, error) {
	prompt := fmt.Sprintf("User description: %q. Estimate calories and protein.", description)
	var est FoodEstimate
	if err := s.generateJSON(ctx, prompt, foodSystemPrompt, &est); err != nil {
		return nil, err
	}
	if strings.TrimSpace(est.Name) == "" {
		return nil, ErrUnidentified
	}
	return &est, nil
}

const activitySystemPrompt = `You are a fitness coach. Estimate the calories burned for the described activity and duration, for a person of the given body weight. Reply with a JSON object with keys: "name" (short activity label) and "calories" (integer kcal burned). Example: {"name": "Brisk Walk", "calories": 180}. Return ONLY JSON.`

func (s *GeminiService) EstimateActivity(ctx context.Context, description string, durationMinutes int, currentWeightKg float64) (*ActivityEstimate, error) {
	prompt := fmt.Sprintf("Activity: %q. Duration: %d minutes. Body weight: %.1f kg.", description, durationMinutes, currentWeightKg)
	var est ActivityEstimate
	if err := s.generateJSON(ctx, prompt, activitySystemPrompt, &est); err != nil {
		return nil, err
	}
	if strings.TrimSpace(est.Name) == "" || est.Calories <= 0 {
		return nil, ErrUnidentified
	}
	return &est, nil
}

const coachSystemPrompt = `You are a fitness coach. Analyze JSON data. Provide JSON object with one field "message" containing short, punchy advice (max 2 sentences).`

func (s *GeminiService) CoachSummary(ctx context.Context, stats CoachStats) (*CoachReply, error) {
	blob, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"User Stats: %s. User Goal: Lose weight by %s (Target %.1fkg). Current Dynamic Calorie Goal: %d",
		blob, stats.EndDate, stats.GoalWeight, stats.TargetCals,
	)
	var reply CoachReply
	if err := s.generateJSON(ctx, prompt, coachSystemPrompt, &reply); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply.Message) == "" {
		return nil, ErrUnidentified
	}
	return &reply, nil
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generateJSON sends one prompt and decodes the model's JSON-only reply
// into out. Only transport and non-2xx errors are retried; a reply that
// arrives but cannot be decoded is reported as ErrUnidentified.
func (s *GeminiService) generateJSON(ctx context.Context, prompt, systemInstruction string, out any) error {
	payload := generateRequest{
		Contents:          []content{{Parts: []part{{Text: prompt}}}},
		SystemInstruction: &content{Parts: []part{{Text: systemInstruction}}},
		GenerationConfig:  &generationConfig{ResponseMimeType: "application/json"},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal generate payload: %w", err)
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.baseDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = time.Minute
	eb.MaxElapsedTime = 0

	body, err := backoff.RetryWithData(func() ([]byte, error) {
		return s.doGenerate(ctx, u, b)
	}, backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.maxAttempts-1)), ctx))
	if err != nil {
		return err
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return fmt.Errorf("parse generate response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return ErrUnidentified
	}
	text := gr.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), out); err != nil {
		logrus.WithError(err).Debug("model reply was not the requested JSON shape")
		return ErrUnidentified
	}
	return nil
}

func (s *GeminiService) doGenerate(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generate endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generate API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
