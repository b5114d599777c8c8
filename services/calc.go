package services

import (
	"math"
	"time"

	"github.com/VP171097/vitality/models"
)

// Pure calculation helpers behind the dashboard and analytics views.
// Nothing here touches the clock or the store; callers pass "today" in.

// DynamicCalorieGoal derives the daily kcal target from the Mifflin-St Jeor
// BMR estimate, a light-activity TDEE multiplier and a 750 kcal deficit,
// floored at 1500 kcal.
func DynamicCalorieGoal(weightKg, heightCm, ageYears float64) int {
	bmr := 10*weightKg + 6.25*heightCm - 5*ageYears + 5
	tdee := bmr * 1.3
	goal := int(math.Round(tdee - 750))
	if goal < 1500 {
		return 1500
	}
	return goal
}

// IdealWeightAt linearly interpolates between startWeight at startDate and
// goalWeight at endDate, rounded to one decimal. totalDays is floored at 1
// so a same-day goal never divides by zero.
func IdealWeightAt(date time.Time, s models.Settings) float64 {
	start, err1 := time.Parse(models.DateLayout, s.StartDate)
	end, err2 := time.Parse(models.DateLayout, s.EndDate)
	if err1 != nil || err2 != nil {
		return round1(s.StartWeight)
	}
	totalDays := end.Sub(start).Hours() / 24
	if totalDays < 1 {
		totalDays = 1
	}
	daysPassed := date.Sub(start).Hours() / 24
	ideal := s.StartWeight - (s.StartWeight-s.GoalWeight)*(daysPassed/totalDays)
	return round1(ideal)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// DayPoint is one element of the chart series.
type DayPoint struct {
	Date         string   `json:"date"`
	ActualWeight *float64 `json:"actualWeight"` // nil when no log exists
	IdealWeight  float64  `json:"idealWeight"`
	CaloriesIn   int      `json:"caloriesIn"`
	CaloriesOut  int      `json:"caloriesOut"`
	HabitScore   int      `json:"habitScore"`
}

// DailyAggregate collapses the logs and the two day buckets for one date.
func DailyAggregate(date string, s models.Settings, logs []models.DailyLog, food models.FoodBuckets, activity models.ActivityBuckets) DayPoint {
	p := DayPoint{
		Date:        date,
		CaloriesIn:  food.Calories(date),
		CaloriesOut: activity.Calories(date),
	}
	if d, err := time.Parse(models.DateLayout, date); err == nil {
		p.IdealWeight = IdealWeightAt(d, s)
	}
	for _, l := range logs {
		if l.Date == date {
			w := l.Weight
			p.ActualWeight = &w
			p.HabitScore = l.HabitScore()
			break
		}
	}
	return p
}

// BuildSeries produces one DayPoint per day from startDate through endDate
// inclusive. Empty when startDate is after endDate or either date is
// malformed.
func BuildSeries(s models.Settings, logs []models.DailyLog, food models.FoodBuckets, activity models.ActivityBuckets) []DayPoint {
	start, err1 := time.Parse(models.DateLayout, s.StartDate)
	end, err2 := time.Parse(models.DateLayout, s.EndDate)
	if err1 != nil || err2 != nil || start.After(end) {
		return []DayPoint{}
	}

	series := make([]DayPoint, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		series = append(series, DailyAggregate(d.Format(models.DateLayout), s, logs, food, activity))
	}
	return series
}

// CurrentWeight is the most recent logged weight, falling back to the
// configured start weight before the first log.
func CurrentWeight(logs []models.DailyLog, s models.Settings) float64 {
	if len(logs) == 0 {
		return s.StartWeight
	}
	return logs[len(logs)-1].Weight
}

// TotalLost is kg lost since the start, one decimal.
func TotalLost(logs []models.DailyLog, s models.Settings) float64 {
	return round1(s.StartWeight - CurrentWeight(logs, s))
}

// DaysRemaining counts whole days left until endDate, never negative.
func DaysRemaining(s models.Settings, now time.Time) int {
	end, err := time.Parse(models.DateLayout, s.EndDate)
	if err != nil {
		return 0
	}
	days := int(math.Ceil(end.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
