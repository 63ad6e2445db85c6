package ingest

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
	ical "github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

const defaultMaxOccurrences = 1000

// ICalLoader reads VEVENTs from an iCalendar stream. Recurring events are
// expanded into one activity per occurrence inside the recurrence window; an
// event with no occurrence in the window is kept as its first instance.
type ICalLoader struct {
	opts Options
}

func (l *ICalLoader) Load(r io.Reader) ([]activity.Activity, error) {
	loc := l.opts.location()
	logger := l.opts.logger()
	dec := ical.NewDecoder(r)

	var activities []activity.Activity
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, event := range cal.Events() {
			start, err := event.DateTimeStart(loc)
			if err != nil {
				logger.Debug("skipping event without start", "error", err)
				continue
			}
			end, err := event.DateTimeEnd(loc)
			if err != nil {
				end = start
			}

			base := activity.Activity{
				Title:  propText(event, ical.PropSummary),
				Start:  start,
				End:    end,
				Source: activity.SourceCalendar,
			}
			if base.Title == "" {
				base.Title = "Untitled Event"
			}
			base.Description = propText(event, ical.PropDescription)
			base.Location = propText(event, ical.PropLocation)

			uid := propText(event, ical.PropUID)
			if uid == "" {
				uid = newID(activity.SourceCalendar)
			}

			set, err := event.RecurrenceSet(loc)
			if err != nil {
				logger.Debug("ignoring bad recurrence rule", "uid", uid, "error", err)
			}
			if set == nil {
				base.ID = "calendar-" + uid
				activities = append(activities, base)
				continue
			}

			occurrences := l.occurrences(set, start)
			if len(occurrences) == 0 {
				logger.Debug("recurring event outside window, keeping first instance", "uid", uid, "start", start)
				base.ID = "calendar-" + uid
				activities = append(activities, base)
				continue
			}
			for _, occ := range occurrences {
				a := base
				a.ID = fmt.Sprintf("calendar-%s-%s", uid, occ.Format("20060102T150405"))
				a.Start = occ
				a.End = occ.Add(end.Sub(start))
				activities = append(activities, a)
			}
			logger.Debug("expanded recurring event", "uid", uid, "occurrences", len(occurrences))
		}
	}
	return activities, nil
}

// occurrences lists recurrence instants inside the configured window. The
// window defaults to the event's first start through now.
func (l *ICalLoader) occurrences(set *rrule.Set, first time.Time) []time.Time {
	from := l.opts.RecurrenceStart
	if from.IsZero() {
		from = first
	}
	to := l.opts.RecurrenceEnd
	if to.IsZero() {
		to = time.Now()
	}
	limit := l.opts.MaxOccurrences
	if limit <= 0 {
		limit = defaultMaxOccurrences
	}

	times := set.Between(from, to, true)
	if len(times) > limit {
		l.opts.logger().Warn("recurring event truncated", "cap", limit, "occurrences", len(times))
		times = times[:limit]
	}
	return times
}

func propText(event ical.Event, name string) string {
	v, err := event.Props.Text(name)
	if err != nil {
		return ""
	}
	return v
}
