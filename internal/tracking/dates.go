package tracking

import "time"

const dateLayout = "2006-01-02"

// Day returns midnight of t's calendar date in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns b minus a in whole calendar days. Only the year, month
// and day fields of each value are used, so DST shifts do not matter.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// DateKey formats t's calendar date in loc as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// CivilKey formats a date-only value without timezone conversion.
func CivilKey(d time.Time) string {
	return d.Format(dateLayout)
}
