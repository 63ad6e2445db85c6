package timetable

import (
	"slices"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DailyTimetable is everything known about one calendar date.
type DailyTimetable struct {
	Date        time.Time
	Activities  []activity.Activity
	HoursWorked float64
}

func (d *DailyTimetable) clone() DailyTimetable {
	return DailyTimetable{
		Date:        d.Date,
		Activities:  slices.Clone(d.Activities),
		HoursWorked: d.HoursWorked,
	}
}

type weekBucket struct {
	hoursWorked float64
	days        *orderedmap.OrderedMap[string, *DailyTimetable]
}

func newWeekBucket() *weekBucket {
	return &weekBucket{days: orderedmap.New[string, *DailyTimetable]()}
}

// recompute rebuilds the weekly total from the days currently filed.
func (w *weekBucket) recompute() {
	total := 0.0
	for pair := w.days.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value.HoursWorked
	}
	w.hoursWorked = total
}

type yearBucket struct {
	weeks *orderedmap.OrderedMap[int, *weekBucket]
}

func newYearBucket() *yearBucket {
	return &yearBucket{weeks: orderedmap.New[int, *weekBucket]()}
}

// Store files daily timetables under year, week and date key. The path of a
// day is always derived from its date.
type Store struct {
	years *orderedmap.OrderedMap[int, *yearBucket]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{years: orderedmap.New[int, *yearBucket]()}
}

type path struct {
	year int
	week int
	key  string
}

func pathOf(date time.Time) path {
	return path{year: date.Year(), week: WeekOf(date), key: DateKey(date)}
}

func (s *Store) week(year, week int) (*weekBucket, bool) {
	y, ok := s.years.Get(year)
	if !ok {
		return nil, false
	}
	return y.weeks.Get(week)
}

// ensureWeek returns the week bucket for (year, week), creating missing
// containers along the way.
func (s *Store) ensureWeek(year, week int) *weekBucket {
	y, ok := s.years.Get(year)
	if !ok {
		y = newYearBucket()
		s.years.Set(year, y)
	}
	w, ok := y.weeks.Get(week)
	if !ok {
		w = newWeekBucket()
		y.weeks.Set(week, w)
	}
	return w
}

// ensureDay returns the bucket for date, creating it on first use.
func (s *Store) ensureDay(date time.Time) *DailyTimetable {
	p := pathOf(date)
	w := s.ensureWeek(p.year, p.week)
	d, ok := w.days.Get(p.key)
	if !ok {
		d = &DailyTimetable{Date: midday(date), Activities: []activity.Activity{}}
		w.days.Set(p.key, d)
	}
	return d
}

// day looks up the bucket for date without creating anything.
func (s *Store) day(date time.Time) (*DailyTimetable, bool) {
	p := pathOf(date)
	w, ok := s.week(p.year, p.week)
	if !ok {
		return nil, false
	}
	return w.days.Get(p.key)
}

// AddActivities files each activity under the date it starts on. Hour totals
// are untouched; hours only come from SetHoursWorked.
func (s *Store) AddActivities(activities []activity.Activity) {
	for _, a := range activities {
		d := s.ensureDay(a.Start)
		d.Activities = append(d.Activities, a)
	}
}

// SetHoursWorked records hours for date and recomputes the week's total.
// hours must already be validated.
func (s *Store) SetHoursWorked(date time.Time, hours float64) {
	s.ensureDay(date).HoursWorked = hours
	p := pathOf(date)
	w, _ := s.week(p.year, p.week)
	w.recompute()
}

// AllDates returns the date of every bucket in ascending order.
func (s *Store) AllDates() []time.Time {
	var dates []time.Time
	s.eachDay(func(_ path, d *DailyTimetable) {
		dates = append(dates, d.Date)
	})
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return dates
}

// AllDatesByWeek groups bucket dates by year and week, each list ascending.
func (s *Store) AllDatesByWeek() map[int]map[int][]time.Time {
	out := make(map[int]map[int][]time.Time)
	s.eachDay(func(p path, d *DailyTimetable) {
		weeks, ok := out[p.year]
		if !ok {
			weeks = make(map[int][]time.Time)
			out[p.year] = weeks
		}
		weeks[p.week] = append(weeks[p.week], d.Date)
	})
	for _, weeks := range out {
		for _, dates := range weeks {
			slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
		}
	}
	return out
}

// Clear drops every year, week and day.
func (s *Store) Clear() {
	s.years = orderedmap.New[int, *yearBucket]()
}

// Len returns the number of day buckets.
func (s *Store) Len() int {
	n := 0
	s.eachDay(func(path, *DailyTimetable) { n++ })
	return n
}

// eachDay walks every bucket in insertion order.
func (s *Store) eachDay(fn func(path, *DailyTimetable)) {
	for y := s.years.Oldest(); y != nil; y = y.Next() {
		for w := y.Value.weeks.Oldest(); w != nil; w = w.Next() {
			for d := w.Value.days.Oldest(); d != nil; d = d.Next() {
				fn(path{year: y.Key, week: w.Key, key: d.Key}, d.Value)
			}
		}
	}
}
