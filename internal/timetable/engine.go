// Package timetable buckets activities by calendar date, rolls them up into
// weekly and yearly aggregates alongside manually entered hours, and
// serializes the whole store to a snapshot.
//
// An Engine is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
package timetable

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
)

// WeeklyAggregate is a read-only copy of one week of the store.
type WeeklyAggregate struct {
	Year              int
	Week              int
	WeeklyHoursWorked float64
	// Keys lists date keys in the order the days were first recorded.
	Keys       []string
	Timetables map[string]DailyTimetable
}

// Engine is the public surface over a Store plus a cursor date.
type Engine struct {
	store   *Store
	loc     *time.Location
	current time.Time
	logger  *slog.Logger
}

// NewEngine returns an empty engine. Dates are interpreted in loc; nil means
// time.Local. The cursor starts on today.
func NewEngine(loc *time.Location, logger *slog.Logger) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:   NewStore(),
		loc:     loc,
		current: midday(time.Now().In(loc)),
		logger:  logger,
	}
}

// Location returns the location dates are bucketed in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) local(t time.Time) time.Time {
	return t.In(e.loc)
}

// AddActivities files activities under the local date each one starts on.
// Re-adding the same activity files a second copy.
func (e *Engine) AddActivities(activities []activity.Activity) {
	local := make([]activity.Activity, len(activities))
	for i, a := range activities {
		if !a.Valid() {
			e.logger.Debug("activity ends before it starts", "id", a.ID, "start", a.Start, "end", a.End)
		}
		a.Start = e.local(a.Start)
		a.End = e.local(a.End)
		local[i] = a
	}
	e.store.AddActivities(local)
	e.logger.Debug("added activities", "count", len(activities), "days", e.store.Len())
}

// SetHoursWorked records manual hours for date. Callers validate hours with
// ValidateHours first.
func (e *Engine) SetHoursWorked(date time.Time, hours float64) {
	date = e.local(date)
	e.store.SetHoursWorked(date, hours)
	e.logger.Debug("set hours worked", "date", DateKey(date), "hours", hours)
}

// HoursWorked returns the manual hours for date, or 0 if nothing is recorded.
func (e *Engine) HoursWorked(date time.Time) float64 {
	if d, ok := e.store.day(e.local(date)); ok {
		return d.HoursWorked
	}
	return 0
}

// TimetableForDate returns a copy of the bucket for date. The second result
// is false when the date was never touched.
func (e *Engine) TimetableForDate(date time.Time) (DailyTimetable, bool) {
	d, ok := e.store.day(e.local(date))
	if !ok {
		return DailyTimetable{}, false
	}
	return d.clone(), true
}

// AllDates returns every date with a bucket, ascending.
func (e *Engine) AllDates() []time.Time {
	return e.store.AllDates()
}

// AllDatesByWeek returns bucket dates grouped by year and week number.
func (e *Engine) AllDatesByWeek() map[int]map[int][]time.Time {
	return e.store.AllDatesByWeek()
}

// Week returns a copy of the week containing date.
func (e *Engine) Week(date time.Time) (WeeklyAggregate, bool) {
	date = e.local(date)
	return e.WeekByNumber(date.Year(), WeekOf(date))
}

// WeekByNumber returns a copy of week number week of year.
func (e *Engine) WeekByNumber(year, week int) (WeeklyAggregate, bool) {
	w, ok := e.store.week(year, week)
	if !ok {
		return WeeklyAggregate{}, false
	}
	agg := WeeklyAggregate{
		Year:              year,
		Week:              week,
		WeeklyHoursWorked: w.hoursWorked,
		Keys:              make([]string, 0, w.days.Len()),
		Timetables:        make(map[string]DailyTimetable, w.days.Len()),
	}
	for pair := w.days.Oldest(); pair != nil; pair = pair.Next() {
		agg.Keys = append(agg.Keys, pair.Key)
		agg.Timetables[pair.Key] = pair.Value.clone()
	}
	return agg, true
}

// WeeklyHoursWorked returns the manual hours total for a week, 0 if absent.
func (e *Engine) WeeklyHoursWorked(year, week int) float64 {
	if w, ok := e.store.week(year, week); ok {
		return w.hoursWorked
	}
	return 0
}

// SumActivityDurations returns the summed length of date's activities in
// hours. Concurrent activities are counted once each.
func (e *Engine) SumActivityDurations(date time.Time) float64 {
	d, ok := e.store.day(e.local(date))
	if !ok {
		return 0
	}
	return sumDurations(d.Activities).Hours()
}

// EstimateWorkedHours returns the hours covered by at least one of date's
// activities, merging overlapping and back-to-back spans.
func (e *Engine) EstimateWorkedHours(date time.Time) float64 {
	d, ok := e.store.day(e.local(date))
	if !ok || len(d.Activities) == 0 {
		return 0
	}
	return mergedDuration(d.Activities).Hours()
}

// ExportSnapshot serializes the whole store. It does not modify the engine.
func (e *Engine) ExportSnapshot() (string, error) {
	data, err := encodeStore(e.store)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return string(data), nil
}

// ImportSnapshot replaces the store with the decoded snapshot. On error the
// current store is left untouched.
func (e *Engine) ImportSnapshot(text string) error {
	s, err := decodeStore([]byte(text), e.loc)
	if err != nil {
		e.logger.Error("snapshot import rejected", "error", err)
		return err
	}
	e.store = s
	e.logger.Debug("imported snapshot", "days", s.Len())
	return nil
}

// Clear empties the store. The cursor is kept.
func (e *Engine) Clear() {
	e.store.Clear()
}

// SetCurrentDate moves the cursor to date's calendar day, pinned at noon.
func (e *Engine) SetCurrentDate(date time.Time) {
	e.current = midday(e.local(date))
}

// CurrentDate returns the cursor date.
func (e *Engine) CurrentDate() time.Time {
	return e.current
}

// CurrentDateBounds returns the first and last instant of the cursor day.
func (e *Engine) CurrentDateBounds() (time.Time, time.Time) {
	return startOfDay(e.current), endOfDay(e.current)
}

// CurrentDayActivities returns activities that start or end within the
// cursor day, sorted by start. Activities are filed under their start date,
// so every bucket up to the cursor day is scanned to catch ones spilling
// over from earlier days.
func (e *Engine) CurrentDayActivities() []activity.Activity {
	lo, hi := e.CurrentDateBounds()
	within := func(t time.Time) bool { return !t.Before(lo) && !t.After(hi) }

	var out []activity.Activity
	e.store.eachDay(func(_ path, d *DailyTimetable) {
		if d.Date.After(hi) {
			return
		}
		for _, a := range d.Activities {
			if within(a.Start) || within(a.End) {
				out = append(out, a)
			}
		}
	})
	slices.SortStableFunc(out, func(a, b activity.Activity) int { return a.Start.Compare(b.Start) })
	return out
}
