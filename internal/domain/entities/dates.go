package entities

import "time"

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// YearBounds returns the first and last calendar day of t's year
func YearBounds(t time.Time) (time.Time, time.Time) {
	y := t.Year()
	return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last calendar day of a month
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// QuarterBounds returns the first and last calendar day of a quarter (1-4)
func QuarterBounds(year, quarter int) (time.Time, time.Time) {
	startMonth := time.Month((quarter-1)*3 + 1)
	first := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 3, -1)
}
