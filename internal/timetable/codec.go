package timetable

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
)

// Snapshots tag every mapping so that numeric keys and insertion order
// survive a round trip:
//
//	{"dataType":"Map","value":[[2024,{"weeks":{"dataType":"Map","value":[...]}}]]}
const mapDataType = "Map"

const instantLayout = "2006-01-02T15:04:05.000Z"

var instantPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)

// instant is a time encoded as a UTC ISO-8601 string with milliseconds.
type instant time.Time

func (i instant) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(i).UTC().Format(instantLayout))
}

func (i *instant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return malformed("date value %s is not a string", data)
	}
	if !instantPattern.MatchString(s) {
		return malformed("%q is not an ISO-8601 instant", s)
	}
	t, err := time.Parse(instantLayout, s)
	if err != nil {
		return malformed("parsing instant %q: %v", s, err)
	}
	*i = instant(t)
	return nil
}

type taggedMap struct {
	DataType string            `json:"dataType"`
	Value    []json.RawMessage `json:"value"`
}

type encodedMap struct {
	DataType string   `json:"dataType"`
	Value    [][2]any `json:"value"`
}

func newEncodedMap() encodedMap {
	return encodedMap{DataType: mapDataType, Value: [][2]any{}}
}

func (m *encodedMap) add(key, value any) {
	m.Value = append(m.Value, [2]any{key, value})
}

type encodedYear struct {
	Weeks encodedMap `json:"weeks"`
}

type encodedWeek struct {
	WeeklyHoursWorked float64    `json:"weeklyHoursWorked"`
	Timetables        encodedMap `json:"timetables"`
}

type encodedDay struct {
	Date        *instant          `json:"date"`
	Activities  []encodedActivity `json:"activities"`
	HoursWorked float64           `json:"hoursWorked"`
}

type encodedActivity struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Start       *instant `json:"start"`
	End         *instant `json:"end"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Source      string   `json:"source,omitempty"`
}

func encodeActivity(a activity.Activity) encodedActivity {
	start, end := instant(a.Start), instant(a.End)
	return encodedActivity{
		ID:          a.ID,
		Title:       a.Title,
		Start:       &start,
		End:         &end,
		Description: a.Description,
		Location:    a.Location,
		Source:      string(a.Source),
	}
}

// encodeStore renders the whole store in snapshot form.
func encodeStore(s *Store) ([]byte, error) {
	years := newEncodedMap()
	for y := s.years.Oldest(); y != nil; y = y.Next() {
		weeks := newEncodedMap()
		for w := y.Value.weeks.Oldest(); w != nil; w = w.Next() {
			days := newEncodedMap()
			for d := w.Value.days.Oldest(); d != nil; d = d.Next() {
				date := instant(d.Value.Date)
				day := encodedDay{
					Date:        &date,
					Activities:  make([]encodedActivity, 0, len(d.Value.Activities)),
					HoursWorked: d.Value.HoursWorked,
				}
				for _, a := range d.Value.Activities {
					day.Activities = append(day.Activities, encodeActivity(a))
				}
				days.add(d.Key, day)
			}
			weeks.add(w.Key, encodedWeek{WeeklyHoursWorked: w.Value.hoursWorked, Timetables: days})
		}
		years.add(y.Key, encodedYear{Weeks: weeks})
	}
	return json.Marshal(years)
}

// decodeStore parses snapshot text into a fresh store. The date key is the
// local calendar date the day was recorded under; the day is rebuilt at noon
// of that date in loc and must be filed under the path it resolves to.
// Weekly totals are recomputed rather than trusted.
func decodeStore(data []byte, loc *time.Location) (*Store, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed("empty input")
	}

	s := NewStore()
	err := decodeMap(data, "years", func(rawKey, rawValue json.RawMessage) error {
		var year int
		if err := json.Unmarshal(rawKey, &year); err != nil {
			return malformed("year key %s is not an integer", rawKey)
		}
		var y struct {
			Weeks json.RawMessage `json:"weeks"`
		}
		if err := json.Unmarshal(rawValue, &y); err != nil {
			return malformed("year %d: %v", year, err)
		}
		return decodeMap(y.Weeks, "weeks", func(rawKey, rawValue json.RawMessage) error {
			var week int
			if err := json.Unmarshal(rawKey, &week); err != nil {
				return malformed("week key %s in %d is not an integer", rawKey, year)
			}
			var w struct {
				Timetables json.RawMessage `json:"timetables"`
			}
			if err := json.Unmarshal(rawValue, &w); err != nil {
				return malformed("week %d/%d: %v", year, week, err)
			}
			bucket := s.ensureWeek(year, week)
			err := decodeMap(w.Timetables, "timetables", func(rawKey, rawValue json.RawMessage) error {
				var key string
				if err := json.Unmarshal(rawKey, &key); err != nil {
					return malformed("date key %s is not a string", rawKey)
				}
				localDate, err := time.ParseInLocation(dateKeyLayout, key, loc)
				if err != nil {
					return malformed("date key %q is not a date", key)
				}
				day, err := decodeDay(rawValue, loc)
				if err != nil {
					return err
				}
				if !noonOf(key, day.Date) {
					return malformed("timetable %s is not midday of %s in any zone",
						day.Date.UTC().Format(time.RFC3339), key)
				}
				day.Date = midday(localDate)
				if got := pathOf(day.Date); got != (path{year: year, week: week, key: key}) {
					return malformed("timetable %s filed under %d/%d/%s resolves to %d/%d/%s",
						key, year, week, key, got.year, got.week, got.key)
				}
				if _, dup := bucket.days.Get(key); dup {
					return malformed("duplicate timetable %s", key)
				}
				bucket.days.Set(key, day)
				return nil
			})
			if err != nil {
				return err
			}
			bucket.recompute()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// noonOf reports whether t could be midday of the calendar date key in some
// zone between UTC-12 and UTC+14.
func noonOf(key string, t time.Time) bool {
	noon, err := time.Parse(dateKeyLayout, key)
	if err != nil {
		return false
	}
	noon = noon.Add(12 * time.Hour)
	return !t.Before(noon.Add(-14*time.Hour)) && !t.After(noon.Add(12*time.Hour))
}

func decodeDay(data json.RawMessage, loc *time.Location) (*DailyTimetable, error) {
	var d encodedDay
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, asMalformed(err)
	}
	if d.Date == nil {
		return nil, malformed("timetable without date")
	}
	if err := ValidateHours(d.HoursWorked); err != nil {
		return nil, malformed("%v", err)
	}

	day := &DailyTimetable{
		Date:        time.Time(*d.Date).In(loc),
		Activities:  make([]activity.Activity, 0, len(d.Activities)),
		HoursWorked: d.HoursWorked,
	}
	for _, a := range d.Activities {
		if a.Start == nil || a.End == nil {
			return nil, malformed("activity %q without start or end", a.ID)
		}
		day.Activities = append(day.Activities, activity.Activity{
			ID:          a.ID,
			Title:       a.Title,
			Start:       time.Time(*a.Start).In(loc),
			End:         time.Time(*a.End).In(loc),
			Description: a.Description,
			Location:    a.Location,
			Source:      activity.Source(a.Source),
		})
	}
	return day, nil
}

// decodeMap unpacks a tagged Map and calls fn for each entry in order.
func decodeMap(data json.RawMessage, what string, fn func(key, value json.RawMessage) error) error {
	if len(data) == 0 {
		return malformed("missing %s map", what)
	}
	var m taggedMap
	if err := json.Unmarshal(data, &m); err != nil {
		return malformed("%s is not a tagged map: %v", what, err)
	}
	if m.DataType != mapDataType {
		return malformed("%s has dataType %q, want %q", what, m.DataType, mapDataType)
	}
	for i, raw := range m.Value {
		var entry []json.RawMessage
		if err := json.Unmarshal(raw, &entry); err != nil || len(entry) != 2 {
			return malformed("%s entry %d is not a [key, value] pair", what, i)
		}
		if err := fn(entry[0], entry[1]); err != nil {
			return err
		}
	}
	return nil
}

func asMalformed(err error) error {
	if errors.Is(err, ErrMalformedSnapshot) {
		return err
	}
	return malformed("%v", err)
}
