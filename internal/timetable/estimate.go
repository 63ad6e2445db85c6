package timetable

import (
	"slices"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
)

type interval struct {
	start time.Time
	end   time.Time
}

// sumDurations adds up every activity span, counting overlaps twice.
func sumDurations(activities []activity.Activity) time.Duration {
	var total time.Duration
	for _, a := range activities {
		total += a.Duration()
	}
	return total
}

// mergeIntervals collapses overlapping or touching spans. The result is
// sorted by start and independent of input order.
func mergeIntervals(activities []activity.Activity) []interval {
	if len(activities) == 0 {
		return nil
	}

	spans := make([]interval, len(activities))
	for i, a := range activities {
		spans[i] = interval{start: a.Start, end: a.End}
	}
	slices.SortFunc(spans, func(a, b interval) int { return a.start.Compare(b.start) })

	merged := []interval{spans[0]}
	for _, next := range spans[1:] {
		open := &merged[len(merged)-1]
		if !next.start.After(open.end) {
			if next.end.After(open.end) {
				open.end = next.end
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// mergedDuration is the time covered by at least one activity.
func mergedDuration(activities []activity.Activity) time.Duration {
	var total time.Duration
	for _, span := range mergeIntervals(activities) {
		total += span.end.Sub(span.start)
	}
	return total
}
