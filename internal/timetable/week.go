package timetable

import "time"

const dateKeyLayout = "2006-01-02"

// WeekOf returns the week number of date within its calendar year. Weeks run
// Sunday to Saturday and week 1 is the (possibly partial) week containing
// Jan 1. This is not ISO-8601 week numbering.
func WeekOf(date time.Time) int {
	firstDay := time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, date.Location())
	// YearDay counts calendar days, so a DST transition cannot drop one.
	daysSinceFirst := date.YearDay() - 1
	n := daysSinceFirst + int(firstDay.Weekday()) + 1
	return (n + 6) / 7
}

// WeekStart returns the Sunday that opens the given week, at midday in loc.
// For week 1 of a year that does not start on Sunday this falls in the
// previous year.
func WeekStart(year, week int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	d := time.Date(year, time.January, 1, 12, 0, 0, 0, loc)
	d = d.AddDate(0, 0, (week-1)*7)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeekEnd returns the Saturday that closes the given week.
func WeekEnd(year, week int, loc *time.Location) time.Time {
	return WeekStart(year, week, loc).AddDate(0, 0, 6)
}

// DateKey formats the local calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// midday pins t to 12:00 on its calendar date so that day arithmetic never
// lands on a daylight-saving gap.
func midday(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
