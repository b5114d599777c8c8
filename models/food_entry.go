package models

// FoodEntry is a single logged food item. ID is the creation timestamp
// in milliseconds and doubles as the removal key.
type FoodEntry struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Cals    int    `json:"cals"`
	Protein int    `json:"protein"` // grams
}

// FoodBuckets maps YYYY-MM-DD to that day's entries in log order.
type FoodBuckets map[string][]FoodEntry

// Clone copies the map and its buckets so the copy can be handed to
// another goroutine while the original keeps mutating.
func (b FoodBuckets) Clone() FoodBuckets {
	out := make(FoodBuckets, len(b))
	for date, entries := range b {
		bucket := make([]FoodEntry, len(entries))
		copy(bucket, entries)
		out[date] = bucket
	}
	return out
}

// Calories sums the kcal of a single day bucket.
func (b FoodBuckets) Calories(date string) int {
	total := 0
	for _, f := range b[date] {
		total += f.Cals
	}
	return total
}

// Protein sums the protein grams of a single day bucket.
func (b FoodBuckets) Protein(date string) int {
	total := 0
	for _, f := range b[date] {
		total += f.Protein
	}
	return total
}
