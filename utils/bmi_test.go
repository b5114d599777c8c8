package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBMI(t *testing.T) {
	bmi, err := BMI(175, 90)
	require.NoError(t, err)
	assert.InDelta(t, 29.39, bmi, 0.01)

	for _, tc := range []struct {
		name   string
		height float64
		weight float64
	}{
		{"zero height", 0, 90},
		{"zero weight", 175, 0},
		{"negative", -175, 90},
		{"implausible height", 400, 90},
		{"implausible weight", 175, 900},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BMI(tc.height, tc.weight)
			assert.Error(t, err)
		})
	}
}

func TestBMICategory(t *testing.T) {
	assert.Equal(t, "Underweight", BMICategory(18.4))
	assert.Equal(t, "Normal weight", BMICategory(18.5))
	assert.Equal(t, "Normal weight", BMICategory(24.9))
	assert.Equal(t, "Overweight", BMICategory(25.0))
	assert.Equal(t, "Obese", BMICategory(30.0))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2!", hash)
	assert.True(t, CheckPasswordHash("hunter2!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestGenerateRandomToken(t *testing.T) {
	a := GenerateRandomToken(6)
	b := GenerateRandomToken(6)
	assert.Len(t, a, 6)
	assert.Regexp(t, `^[A-Za-z0-9]+$`, a)
	assert.NotEqual(t, a, b, "two codes should almost never collide")
}
