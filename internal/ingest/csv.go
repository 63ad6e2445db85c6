package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
)

var csvTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// CSVLoader reads rows of title,start,end[,description[,location]]. A
// leading header row is skipped when it mentions title or start.
type CSVLoader struct {
	opts Options
}

func (l *CSVLoader) Load(r io.Reader) ([]activity.Activity, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	loc := l.opts.location()
	logger := l.opts.logger()

	var activities []activity.Activity
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if len(rec) < 3 {
			continue
		}

		start, err := parseTime(rec[1], loc)
		if err != nil {
			logger.Debug("skipping csv row with bad start", "line", line, "value", rec[1])
			continue
		}
		end := start
		if rec[2] != "" {
			if end, err = parseTime(rec[2], loc); err != nil {
				logger.Debug("skipping csv row with bad end", "line", line, "value", rec[2])
				continue
			}
		}

		a := activity.Activity{
			ID:     newID(activity.SourceCSV),
			Title:  rec[0],
			Start:  start,
			End:    end,
			Source: activity.SourceCSV,
		}
		if a.Title == "" {
			a.Title = "Untitled"
		}
		if len(rec) > 3 {
			a.Description = rec[3]
		}
		if len(rec) > 4 {
			a.Location = rec[4]
		}
		activities = append(activities, a)
	}
	return activities, nil
}

func isHeader(rec []string) bool {
	line := strings.ToLower(strings.Join(rec, ","))
	return strings.Contains(line, "title") || strings.Contains(line, "start")
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
