package models

// ActivityEntry is a single exercise log, usually AI-estimated from a
// free-text description plus duration.
type ActivityEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Calories int    `json:"calories"` // kcal burned
}

// ActivityBuckets maps YYYY-MM-DD to that day's entries.
type ActivityBuckets map[string][]ActivityEntry

// Clone copies the map and its buckets so the copy can be handed to
// another goroutine while the original keeps mutating.
func (b ActivityBuckets) Clone() ActivityBuckets {
	out := make(ActivityBuckets, len(b))
	for date, entries := range b {
		bucket := make([]ActivityEntry, len(entries))
		copy(bucket, entries)
		out[date] = bucket
	}
	return out
}

// Calories sums the kcal burned in a single day bucket.
func (b ActivityBuckets) Calories(date string) int {
	total := 0
	for _, a := range b[date] {
		total += a.Calories
	}
	return total
}
