package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// parseDate accepts YYYY-MM-DD or natural language such as "yesterday" or
// "last friday", resolved against now in loc.
func parseDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "today") {
		return now.In(loc), nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := naturaldate.Parse(s, now.In(loc), naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t.In(loc), nil
}

// dateArg parses the optional first positional argument, defaulting to now.
func dateArg(args []string, now time.Time, loc *time.Location) (time.Time, error) {
	if len(args) == 0 {
		return now.In(loc), nil
	}
	return parseDate(strings.Join(args, " "), now, loc)
}
