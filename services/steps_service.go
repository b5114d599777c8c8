package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// StepsService queries today's step count from the Google Fitness
// aggregate API. It is strictly best-effort: without a token, or on any
// failure, it falls back to an estimated count instead of erroring.
type StepsService struct {
	client  *http.Client
	baseURL string
	hasAuth bool
}

// NewStepsService builds a client around a static OAuth token. An empty
// token yields a service that always estimates.
func NewStepsService(token string) *StepsService {
	s := &StepsService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://www.googleapis.com",
	}
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		s.client = oauth2.NewClient(context.Background(), src)
		s.client.Timeout = 10 * time.Second
		s.hasAuth = true
	}
	return s
}

// StepCount is today's steps plus where the number came from.
type StepCount struct {
	Steps  int    `json:"steps"`
	Source string `json:"source"` // "googlefit" | "estimated"
}

type aggregateRequest struct {
	AggregateBy []struct {
		DataTypeName string `json:"dataTypeName"`
	} `json:"aggregateBy"`
	BucketByTime struct {
		DurationMillis int64 `json:"durationMillis"`
	} `json:"bucketByTime"`
	StartTimeMillis int64 `json:"startTimeMillis"`
	EndTimeMillis   int64 `json:"endTimeMillis"`
}

type aggregateResponse struct {
	Bucket []struct {
		Dataset []struct {
			Point []struct {
				Value []struct {
					IntVal int `json:"intVal"`
				} `json:"value"`
			} `json:"point"`
		} `json:"dataset"`
	} `json:"bucket"`
}

// StepsToday returns today's step total, degrading to an estimate on any
// failure.
func (s *StepsService) StepsToday(ctx context.Context, now time.Time) StepCount {
	if !s.hasAuth {
		return StepCount{Steps: estimateSteps(now), Source: "estimated"}
	}
	steps, err := s.querySteps(ctx, now)
	if err != nil {
		logrus.WithError(err).Debug("step query failed, falling back to estimate")
		return StepCount{Steps: estimateSteps(now), Source: "estimated"}
	}
	return StepCount{Steps: steps, Source: "googlefit"}
}

func (s *StepsService) querySteps(ctx context.Context, now time.Time) (int, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var req aggregateRequest
	req.AggregateBy = append(req.AggregateBy, struct {
		DataTypeName string `json:"dataTypeName"`
	}{DataTypeName: "com.google.step_count.delta"})
	req.BucketByTime.DurationMillis = 24 * time.Hour.Milliseconds()
	req.StartTimeMillis = dayStart.UnixMilli()
	req.EndTimeMillis = now.UnixMilli()

	b, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}

	u := s.baseURL + "/fitness/v1/users/me/dataset:aggregate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("call fitness API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read fitness response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fitness API error %d: %s", resp.StatusCode, string(body))
	}

	var ar aggregateResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return 0, fmt.Errorf("parse fitness response: %w", err)
	}

	total := 0
	for _, bucket := range ar.Bucket {
		for _, ds := range bucket.Dataset {
			for _, p := range ds.Point {
				for _, v := range p.Value {
					total += v.IntVal
				}
			}
		}
	}
	return total, nil
}

// estimateSteps fakes a plausible count that grows over the day, so the
// dashboard stays alive when no fitness account is linked.
func estimateSteps(now time.Time) int {
	minutes := now.Hour()*60 + now.Minute()
	fraction := float64(minutes) / (24 * 60)
	return int(8000 * fraction)
}
