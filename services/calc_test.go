package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VP171097/vitality/models"
)

func testSettings() models.Settings {
	return models.Settings{
		Name:        "Test User",
		StartWeight: 90,
		GoalWeight:  80,
		StartDate:   "2025-01-01",
		EndDate:     "2025-01-31",
		Height:      175,
		Age:         30,
		Gender:      "male",
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestDynamicCalorieGoal_Floor(t *testing.T) {
	// BMR = 10*70 + 6.25*175 - 5*30 + 5 = 1648.75
	// TDEE = 2143.375, minus 750 = 1393.375 -> rounds to 1393, floored at 1500
	assert.Equal(t, 1500, DynamicCalorieGoal(70, 175, 30))
}

func TestDynamicCalorieGoal_AboveFloor(t *testing.T) {
	// BMR = 10*90 + 6.25*175 - 5*30 + 5 = 1848.75
	// TDEE = 2403.375, minus 750 = 1653.375 -> 1653
	assert.Equal(t, 1653, DynamicCalorieGoal(90, 175, 30))
}

func TestDynamicCalorieGoal_NeverBelow1500(t *testing.T) {
	for w := 0.0; w <= 150; w += 7.5 {
		for h := 0.0; h <= 220; h += 20 {
			for a := 0.0; a <= 90; a += 15 {
				if got := DynamicCalorieGoal(w, h, a); got < 1500 {
					t.Fatalf("DynamicCalorieGoal(%v,%v,%v) = %d, below 1500", w, h, a, got)
				}
			}
		}
	}
}

func TestIdealWeightAt_Boundaries(t *testing.T) {
	s := testSettings()
	assert.Equal(t, s.StartWeight, IdealWeightAt(mustDate(t, s.StartDate), s))
	assert.Equal(t, s.GoalWeight, IdealWeightAt(mustDate(t, s.EndDate), s))
}

func TestIdealWeightAt_SameDayGoal(t *testing.T) {
	s := testSettings()
	s.EndDate = s.StartDate
	// totalDays floored at 1, no division by zero
	assert.Equal(t, s.StartWeight, IdealWeightAt(mustDate(t, s.StartDate), s))
}

func TestBuildSeries_LengthAndShape(t *testing.T) {
	s := testSettings()
	series := BuildSeries(s, nil, models.FoodBuckets{}, models.ActivityBuckets{})
	require.Len(t, series, 31)

	for i, p := range series {
		assert.Nil(t, p.ActualWeight, "no logs -> actualWeight nil at %s", p.Date)
		assert.Zero(t, p.CaloriesIn)
		assert.Zero(t, p.CaloriesOut)
		assert.Zero(t, p.HabitScore)
		if i > 0 {
			assert.Less(t, p.IdealWeight, series[i-1].IdealWeight,
				"ideal weight must strictly decrease toward the goal")
		}
	}
	assert.Equal(t, "2025-01-01", series[0].Date)
	assert.Equal(t, "2025-01-31", series[30].Date)
}

func TestBuildSeries_EmptyWhenStartAfterEnd(t *testing.T) {
	s := testSettings()
	s.StartDate = "2025-02-01"
	s.EndDate = "2025-01-01"
	assert.Empty(t, BuildSeries(s, nil, models.FoodBuckets{}, models.ActivityBuckets{}))
}

func TestBuildSeries_EmptyOnMalformedDates(t *testing.T) {
	s := testSettings()
	s.EndDate = "not-a-date"
	assert.Empty(t, BuildSeries(s, nil, models.FoodBuckets{}, models.ActivityBuckets{}))
}

func TestDailyAggregate(t *testing.T) {
	s := testSettings()
	logs := []models.DailyLog{
		{Date: "2025-01-02", Weight: 89.5, Workout: true, NoSugar: true},
	}
	food := models.FoodBuckets{
		"2025-01-02": {{ID: 1, Name: "Apple", Cals: 95}, {ID: 2, Name: "Dal", Cals: 140, Protein: 8}},
	}
	activity := models.ActivityBuckets{
		"2025-01-02": {{ID: 3, Name: "Run", Calories: 300}},
	}

	p := DailyAggregate("2025-01-02", s, logs, food, activity)
	require.NotNil(t, p.ActualWeight)
	assert.Equal(t, 89.5, *p.ActualWeight)
	assert.Equal(t, 235, p.CaloriesIn)
	assert.Equal(t, 300, p.CaloriesOut)
	assert.Equal(t, 50, p.HabitScore)

	// absent day bucket and no log
	empty := DailyAggregate("2025-01-03", s, logs, food, activity)
	assert.Nil(t, empty.ActualWeight)
	assert.Zero(t, empty.CaloriesIn)
	assert.Zero(t, empty.CaloriesOut)
	assert.Zero(t, empty.HabitScore)
}

func TestCurrentWeightAndTotals(t *testing.T) {
	s := testSettings()
	assert.Equal(t, 90.0, CurrentWeight(nil, s))

	logs := []models.DailyLog{
		{Date: "2025-01-02", Weight: 89},
		{Date: "2025-01-05", Weight: 87.5},
	}
	assert.Equal(t, 87.5, CurrentWeight(logs, s))
	assert.Equal(t, 2.5, TotalLost(logs, s))
}

func TestDaysRemaining(t *testing.T) {
	s := testSettings()
	assert.Equal(t, 10, DaysRemaining(s, mustDate(t, "2025-01-21")))
	assert.Zero(t, DaysRemaining(s, mustDate(t, "2025-03-01")), "never negative")
}

func TestHabitScore(t *testing.T) {
	cases := []struct {
		name string
		log  models.DailyLog
		want int
	}{
		{"none", models.DailyLog{}, 0},
		{"one", models.DailyLog{Workout: true}, 25},
		{"all", models.DailyLog{Workout: true, NoSugar: true, LowSalt: true, Vacuums: true}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.log.HabitScore())
		})
	}
}
