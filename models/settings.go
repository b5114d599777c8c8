package models

import "time"

// Settings is the singleton per-user configuration document
// (kind "settings"). Dates are YYYY-MM-DD strings on the wire.
type Settings struct {
	Name        string  `json:"name"`
	StartWeight float64 `json:"startWeight"` // kg
	GoalWeight  float64 `json:"goalWeight"`  // kg
	StartDate   string  `json:"startDate"`   // fixed at creation
	EndDate     string  `json:"endDate"`
	Height      float64 `json:"height"` // cm
	Age         float64 `json:"age"`    // years
	Gender      string  `json:"gender"` // collected but not used in any formula
}

const DateLayout = "2006-01-02"

// DefaultSettings is the document materialized for a brand-new user:
// a 90 -> 80 kg goal over the next 30 days.
func DefaultSettings(name string, today time.Time) Settings {
	if name == "" {
		name = "New User"
	}
	return Settings{
		Name:        name,
		StartWeight: 90,
		GoalWeight:  80,
		StartDate:   today.Format(DateLayout),
		EndDate:     today.AddDate(0, 0, 30).Format(DateLayout),
		Height:      175,
		Age:         30,
		Gender:      "male",
	}
}
