package timetable

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
)

func TestEncodeStoreShape(t *testing.T) {
	s := NewStore()
	s.SetHoursWorked(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 8)

	got, err := encodeStore(s)
	if err != nil {
		t.Fatalf("encodeStore: %v", err)
	}
	want := `{"dataType":"Map","value":[[2024,{"weeks":{"dataType":"Map","value":[[9,{"weeklyHoursWorked":8,"timetables":{"dataType":"Map","value":[["2024-03-01",{"date":"2024-03-01T12:00:00.000Z","activities":[],"hoursWorked":8}]]}}]]}}]]}`
	if string(got) != want {
		t.Fatalf("encoded snapshot mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestEncodeEmptyStore(t *testing.T) {
	got, err := encodeStore(NewStore())
	if err != nil {
		t.Fatalf("encodeStore: %v", err)
	}
	if string(got) != `{"dataType":"Map","value":[]}` {
		t.Fatalf("got %s", got)
	}
}

func TestDecodePreservesInsertionOrder(t *testing.T) {
	s := NewStore()
	s.SetHoursWorked(date(2024, 3, 4), 1)
	s.SetHoursWorked(date(2023, 6, 1), 1)
	s.SetHoursWorked(date(2024, 1, 2), 1)

	data, err := encodeStore(s)
	if err != nil {
		t.Fatalf("encodeStore: %v", err)
	}
	decoded, err := decodeStore(data, time.UTC)
	if err != nil {
		t.Fatalf("decodeStore: %v", err)
	}

	var keys []string
	decoded.eachDay(func(p path, _ *DailyTimetable) { keys = append(keys, p.key) })
	want := []string{"2024-03-04", "2024-01-02", "2023-06-01"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", keys, want)
	}
}

func TestDecodeKeepsDateLookingStrings(t *testing.T) {
	s := NewStore()
	s.AddActivities([]activity.Activity{{
		ID:    "csv-1",
		Title: "2024-03-01T09:00:00.000Z",
		Start: at(9, 0),
		End:   at(10, 0),
	}})
	data, _ := encodeStore(s)
	decoded, err := decodeStore(data, time.UTC)
	if err != nil {
		t.Fatalf("decodeStore: %v", err)
	}
	d, _ := decoded.day(at(9, 0))
	if d.Activities[0].Title != "2024-03-01T09:00:00.000Z" {
		t.Fatalf("title = %q", d.Activities[0].Title)
	}
	if !d.Activities[0].Start.Equal(at(9, 0)) {
		t.Fatalf("start = %v", d.Activities[0].Start)
	}
}

func TestDecodeRecomputesWeeklyTotal(t *testing.T) {
	text := `{"dataType":"Map","value":[[2024,{"weeks":{"dataType":"Map","value":[[9,{"weeklyHoursWorked":99,"timetables":{"dataType":"Map","value":[["2024-03-01",{"date":"2024-03-01T12:00:00.000Z","activities":[],"hoursWorked":8}]]}}]]}}]]}`
	s, err := decodeStore([]byte(text), time.UTC)
	if err != nil {
		t.Fatalf("decodeStore: %v", err)
	}
	w, _ := s.week(2024, 9)
	if w.hoursWorked != 8 {
		t.Fatalf("weekly total = %v, want 8", w.hoursWorked)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	day := `{"date":"2024-03-01T12:00:00.000Z","activities":[],"hoursWorked":8}`
	wrap := func(yearKey, weekKey, dayKey, day string) string {
		return `{"dataType":"Map","value":[[` + yearKey + `,{"weeks":{"dataType":"Map","value":[[` + weekKey +
			`,{"weeklyHoursWorked":8,"timetables":{"dataType":"Map","value":[[` + dayKey + `,` + day + `]]}}]]}}]]}`
	}

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"not json", "weeks: 9"},
		{"plain object", `{"2024":{}}`},
		{"wrong data type", `{"dataType":"Set","value":[]}`},
		{"entry not a pair", `{"dataType":"Map","value":[[2024]]}`},
		{"year key string", `{"dataType":"Map","value":[["2024",{"weeks":{"dataType":"Map","value":[]}}]]}`},
		{"missing weeks", `{"dataType":"Map","value":[[2024,{}]]}`},
		{"weeks plain object", `{"dataType":"Map","value":[[2024,{"weeks":{"9":{}}}]]}`},
		{"fractional week", wrap("2024", "9.5", `"2024-03-01"`, day)},
		{"date without millis", wrap("2024", "9", `"2024-03-01"`, `{"date":"2024-03-01T12:00:00Z","activities":[],"hoursWorked":8}`)},
		{"date missing", wrap("2024", "9", `"2024-03-01"`, `{"activities":[],"hoursWorked":8}`)},
		{"wrong week", wrap("2024", "10", `"2024-03-01"`, day)},
		{"wrong key", wrap("2024", "9", `"2024-03-02"`, day)},
		{"wrong year", wrap("2023", "9", `"2024-03-01"`, day)},
		{"key not a date", wrap("2024", "9", `"March 1"`, day)},
		{"date far from key", wrap("2024", "9", `"2024-03-01"`, `{"date":"2024-03-02T09:00:00.000Z","activities":[],"hoursWorked":8}`)},
		{"hours out of range", wrap("2024", "9", `"2024-03-01"`, `{"date":"2024-03-01T12:00:00.000Z","activities":[],"hoursWorked":25}`)},
		{"activity without end", wrap("2024", "9", `"2024-03-01"`, `{"date":"2024-03-01T12:00:00.000Z","activities":[{"id":"a","title":"x","start":"2024-03-01T09:00:00.000Z"}],"hoursWorked":1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeStore([]byte(tt.text), time.UTC)
			if !errors.Is(err, ErrMalformedSnapshot) {
				t.Fatalf("got %v, want ErrMalformedSnapshot", err)
			}
		})
	}
}

func TestInstantRejectsNonStrings(t *testing.T) {
	var i instant
	if err := i.UnmarshalJSON([]byte(`1709280000000`)); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("got %v", err)
	}
	if err := i.UnmarshalJSON([]byte(`"2024-03-01T09:00:00.000Z"`)); err != nil {
		t.Fatalf("valid instant rejected: %v", err)
	}
	if !time.Time(i).Equal(at(9, 0)) {
		t.Fatalf("decoded %v", time.Time(i))
	}
}
