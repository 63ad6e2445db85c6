package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
	"github.com/christopherklint97/worklog/internal/timetable"
)

func formatHours(h float64) string {
	return fmt.Sprintf("%.2fh", h)
}

func renderActivity(a activity.Activity) string {
	style, ok := sourceStyles[string(a.Source)]
	if !ok {
		style = dimStyle
	}
	line := fmt.Sprintf("%s-%s  %s", a.Start.Format("15:04"), a.End.Format("15:04"), a.Title)
	if a.Location != "" {
		line += dimStyle.Render("  @ " + a.Location)
	}
	return line + "  " + style.Render("["+string(a.Source)+"]")
}

// RenderDay describes the engine's cursor day: its activities, manual hours,
// estimated worked time and the week's total.
func RenderDay(e *timetable.Engine) string {
	date := e.CurrentDate()
	week := timetable.WeekOf(date)

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("worklog - %s (week %d)", date.Format("Mon 2 Jan 2006"), week)))
	b.WriteString("\n")

	activities := e.CurrentDayActivities()
	if len(activities) == 0 {
		b.WriteString(dimStyle.Render("No activities recorded for this day."))
		b.WriteString("\n")
	}
	for _, a := range activities {
		b.WriteString("  " + renderActivity(a) + "\n")
	}

	summary := fmt.Sprintf("Hours worked: %s\nEstimated from activities: %s (raw sum %s)\nWeek %d total: %s",
		highlightStyle.Render(formatHours(e.HoursWorked(date))),
		formatHours(e.EstimateWorkedHours(date)),
		formatHours(e.SumActivityDurations(date)),
		week,
		formatHours(e.WeeklyHoursWorked(date.Year(), week)),
	)
	b.WriteString("\n" + boxStyle.Render(summary))
	return b.String()
}

// RenderWeek lists each day of a week with its manual and estimated hours.
func RenderWeek(e *timetable.Engine, year, week int) string {
	start := timetable.WeekStart(year, week, e.Location())

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Week %d, %d (%s - %s)",
		week, year, start.Format("2 Jan"), timetable.WeekEnd(year, week, e.Location()).Format("2 Jan"))))
	b.WriteString("\n")

	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		line := fmt.Sprintf("  %-10s  %8s  %s", day.Format("Mon 2 Jan"),
			formatHours(e.HoursWorked(day)),
			subtitleStyle.Render("est. "+formatHours(e.EstimateWorkedHours(day))))
		if _, ok := e.TimetableForDate(day); !ok {
			line = dimStyle.Render(fmt.Sprintf("  %-10s  %8s", day.Format("Mon 2 Jan"), "-"))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + boxStyle.Render("Total: "+highlightStyle.Render(formatHours(e.WeeklyHoursWorked(year, week)))))
	return b.String()
}

// RenderDatesByWeek lists every known date grouped by year and week.
func RenderDatesByWeek(byWeek map[int]map[int][]time.Time) string {
	if len(byWeek) == 0 {
		return dimStyle.Render("No dates recorded yet.")
	}

	var b strings.Builder
	for _, year := range slices.Sorted(maps.Keys(byWeek)) {
		b.WriteString(titleStyle.Render(fmt.Sprint(year)) + "\n")
		weeks := byWeek[year]
		for _, week := range slices.Sorted(maps.Keys(weeks)) {
			days := make([]string, len(weeks[week]))
			for i, d := range weeks[week] {
				days[i] = d.Format("Mon 2 Jan")
			}
			fmt.Fprintf(&b, "  week %2d  %s\n", week, strings.Join(days, ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
