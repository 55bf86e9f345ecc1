package domain

// Filters is the spec handed to the catalog gateway when building a room's
// master list.
type Filters struct {
	Genres    []string `json:"genres,omitempty"`
	MinYear   int      `json:"minYear,omitempty"`
	MaxYear   int      `json:"maxYear,omitempty"`
	MinRating float64  `json:"minRating,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// Relaxed returns a slightly widened copy of the filters. Refreshes use it so
// a room that exhausted its list sees some variety instead of the same
// candidates again.
func (f Filters) Relaxed() Filters {
	out := f
	if out.MinYear > 0 {
		out.MinYear -= 5
	}
	if out.MinRating > 0 {
		out.MinRating -= 0.5
		if out.MinRating < 0 {
			out.MinRating = 0
		}
	}
	return out
}
