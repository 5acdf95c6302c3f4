package users

import "time"

// firstGenerationYear is the year the first cohort joined.
const firstGenerationYear = 2013

// Generation returns the cohort number of a user who joined at t. Cohorts are
// calendar quarters counted from January 2013, starting at 1.
func Generation(t time.Time) int {
	return (t.Year()-firstGenerationYear)*4 + (int(t.Month())+2)/3
}

// GenerationRange returns the half-open interval [from, to) of sign-up times
// belonging to generation g in loc. g must be positive.
func GenerationRange(g int, loc *time.Location) (from, to time.Time) {
	year := firstGenerationYear + (g-1)/4
	month := time.Month((g-1)%4*3 + 1)
	from = time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 3, 0)
}
