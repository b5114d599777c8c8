package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoodBucketsClone(t *testing.T) {
	orig := FoodBuckets{
		"2025-01-10": {{ID: 1, Name: "Apple", Cals: 95}},
	}
	clone := orig.Clone()

	orig["2025-01-10"] = append(orig["2025-01-10"], FoodEntry{ID: 2, Name: "Dal", Cals: 140})
	orig["2025-01-11"] = []FoodEntry{{ID: 3, Name: "Eggs", Cals: 155}}

	assert.Len(t, clone["2025-01-10"], 1, "clone keeps the state at copy time")
	assert.NotContains(t, clone, "2025-01-11")
	assert.Equal(t, 95, clone.Calories("2025-01-10"))
}

func TestActivityBucketsClone(t *testing.T) {
	orig := ActivityBuckets{
		"2025-01-10": {{ID: 1, Name: "Run", Calories: 300}},
	}
	clone := orig.Clone()

	orig["2025-01-10"][0].Calories = 999

	assert.Equal(t, 300, clone["2025-01-10"][0].Calories, "entries are copied, not shared")
}
