package activity

import "time"

// Source identifies which ingestion path produced an activity.
type Source string

const (
	SourceCSV         Source = "csv"
	SourceCalendar    Source = "calendar"
	SourceMail        Source = "mail"
	SourceCardService Source = "card-service"
)

// Sources lists every known source in display order.
var Sources = []Source{SourceCSV, SourceCalendar, SourceMail, SourceCardService}

// ParseSource maps a source name to a Source. The second result is false for
// unknown names.
func ParseSource(s string) (Source, bool) {
	for _, src := range Sources {
		if string(src) == s {
			return src, true
		}
	}
	return "", false
}

// Activity is one imported event. Activities are treated as immutable once
// they are handed to the timetable.
type Activity struct {
	ID          string    `json:"id" jsonschema:"description=Opaque identifier prefixed by the source"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end" jsonschema:"description=Must not be before start"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Source      Source    `json:"source" jsonschema:"enum=csv,enum=calendar,enum=mail,enum=card-service"`
}

// Duration returns End - Start.
func (a Activity) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// Valid reports whether the activity ends no earlier than it starts.
func (a Activity) Valid() bool {
	return !a.End.Before(a.Start)
}
