package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/christopherklint97/worklog/internal/activity"
	"github.com/christopherklint97/worklog/internal/timetable"
)

func newTestApp() (*App, *timetable.Engine) {
	e := timetable.NewEngine(time.UTC, nil)
	e.SetCurrentDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	a := NewApp(e)
	a.today = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return a, e
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(a *App, keys ...string) {
	for _, k := range keys {
		a.Update(key(k))
	}
}

func TestNavigation(t *testing.T) {
	a, e := newTestApp()

	send(a, "right", "right")
	if got := timetable.DateKey(e.CurrentDate()); got != "2024-03-03" {
		t.Fatalf("after two rights = %s", got)
	}
	send(a, "left")
	if got := timetable.DateKey(e.CurrentDate()); got != "2024-03-02" {
		t.Fatalf("after left = %s", got)
	}
	send(a, "j")
	if got := timetable.DateKey(e.CurrentDate()); got != "2024-03-09" {
		t.Fatalf("after week down = %s", got)
	}
	send(a, "t")
	if got := timetable.DateKey(e.CurrentDate()); got != "2024-03-15" {
		t.Fatalf("after today = %s", got)
	}
}

func TestSetHoursThroughInput(t *testing.T) {
	a, e := newTestApp()

	send(a, "e", "7", ".", "5", "enter")
	if a.state != dayView {
		t.Fatal("expected to return to the day view")
	}
	if got := e.HoursWorked(e.CurrentDate()); got != 7.5 {
		t.Fatalf("hours = %v, want 7.5", got)
	}
	if !a.Changed() {
		t.Fatal("expected Changed after saving hours")
	}
	if !strings.Contains(a.View(), "Set 7.50h") {
		t.Fatalf("view missing status: %s", a.View())
	}
}

func TestRejectsInvalidHours(t *testing.T) {
	a, e := newTestApp()

	send(a, "e", "3", "0", "enter")
	if a.state != hoursView {
		t.Fatal("invalid input should keep the hours view open")
	}
	if a.errMsg == "" || !strings.Contains(a.View(), "Error") {
		t.Fatal("expected an error message")
	}
	if _, ok := e.TimetableForDate(e.CurrentDate()); ok {
		t.Fatal("invalid input created a bucket")
	}

	send(a, "esc")
	if a.state != dayView || a.Changed() {
		t.Fatal("esc should cancel without changes")
	}
}

func TestQuit(t *testing.T) {
	a, _ := newTestApp()
	_, cmd := a.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"8", 8, true},
		{" 7.25 ", 7.25, true},
		{"6h", 6, true},
		{"0", 0, true},
		{"24", 24, true},
		{"24.5", 0, false},
		{"-1", 0, false},
		{"NaN", 0, false},
		{"eight", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseHours(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseHours(%q) = %v, %v", tt.in, got, err)
		}
		if !tt.ok && !errors.Is(err, timetable.ErrInvalidHours) {
			t.Errorf("ParseHours(%q) error = %v, want ErrInvalidHours", tt.in, err)
		}
	}
}

func TestRenderDayShowsActivitiesAndTotals(t *testing.T) {
	e := timetable.NewEngine(time.UTC, nil)
	e.AddActivities([]activity.Activity{
		{Title: "Planning", Start: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Source: activity.SourceCalendar},
		{Title: "Review", Start: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), End: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), Source: activity.SourceCSV},
	})
	e.SetHoursWorked(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 8)
	e.SetCurrentDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	out := RenderDay(e)
	for _, want := range []string{"Fri 1 Mar 2024", "week 9", "Planning", "Review", "8.00h", "2.00h", "2.50h"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderDay missing %q:\n%s", want, out)
		}
	}
}

func TestRenderWeek(t *testing.T) {
	e := timetable.NewEngine(time.UTC, nil)
	e.SetHoursWorked(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 8)
	e.SetHoursWorked(time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC), 6)

	out := RenderWeek(e, 2024, 9)
	for _, want := range []string{"Week 9, 2024", "25 Feb", "2 Mar", "Fri 1 Mar", "14.00h"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderWeek missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDatesByWeek(t *testing.T) {
	if !strings.Contains(RenderDatesByWeek(nil), "No dates") {
		t.Fatal("expected empty message")
	}
	out := RenderDatesByWeek(map[int]map[int][]time.Time{
		2024: {9: {time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}},
	})
	if !strings.Contains(out, "2024") || !strings.Contains(out, "week  9") || !strings.Contains(out, "Fri 1 Mar") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
