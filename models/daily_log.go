package models

// DailyLog is one tracker entry; Date is the unique key within the
// "logs" document, entries kept in ascending date order.
type DailyLog struct {
	Date    string  `json:"date"`
	Weight  float64 `json:"weight"` // kg; carry-forward of the prior weight when left blank
	Water   float64 `json:"water"`  // liters, 0-4 step 0.5
	Workout bool    `json:"workout"`
	NoSugar bool    `json:"noSugar"`
	LowSalt bool    `json:"lowSalt"`
	Vacuums bool    `json:"vacuums"`
}

// HabitScore is 25 points per completed habit, max 100.
func (l DailyLog) HabitScore() int {
	score := 0
	for _, done := range []bool{l.Workout, l.NoSugar, l.LowSalt, l.Vacuums} {
		if done {
			score += 25
		}
	}
	return score
}
