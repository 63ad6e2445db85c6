// Package ingest turns exported calendars, mailboxes, delimited text and
// card-service comments into activities for the timetable.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
	"github.com/google/uuid"
)

// Loader parses one export format.
type Loader interface {
	Load(r io.Reader) ([]activity.Activity, error)
}

// Options are shared by the file loaders.
type Options struct {
	// Location is used for timestamps that carry no zone. Nil means time.Local.
	Location *time.Location
	// RecurrenceWindow bounds expansion of recurring calendar events.
	RecurrenceStart time.Time
	RecurrenceEnd   time.Time
	MaxOccurrences  int
	Logger          *slog.Logger
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// LoaderFor returns the loader for a file-based source.
func LoaderFor(source activity.Source, opts Options) (Loader, error) {
	switch source {
	case activity.SourceCSV:
		return &CSVLoader{opts: opts}, nil
	case activity.SourceCalendar:
		return &ICalLoader{opts: opts}, nil
	case activity.SourceMail:
		return &MailLoader{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported file source %q", source)
	}
}

// DetectSource guesses the source from a file name's extension.
func DetectSource(name string) (activity.Source, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return activity.SourceCSV, true
	case ".ics", ".ical", ".ifb":
		return activity.SourceCalendar, true
	case ".mbox", ".eml", ".mbx":
		return activity.SourceMail, true
	}
	return "", false
}

// fetchClient bounds calendar downloads, body included.
var fetchClient = &http.Client{Timeout: 30 * time.Second}

// Open returns a reader for a local path or an http(s) URL.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := fetchClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch returned status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", source, err)
	}
	return f, nil
}

// LoadFile opens source and parses it with the loader for its extension
// unless an explicit source is given.
func LoadFile(ctx context.Context, path string, source activity.Source, opts Options) ([]activity.Activity, error) {
	if source == "" {
		detected, ok := DetectSource(path)
		if !ok {
			return nil, fmt.Errorf("cannot tell the format of %s, pass --type", path)
		}
		source = detected
	}
	loader, err := LoaderFor(source, opts)
	if err != nil {
		return nil, err
	}

	r, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	activities, err := loader.Load(r)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	opts.logger().Debug("loaded activities", "path", path, "source", source, "count", len(activities))
	return activities, nil
}

func newID(source activity.Source) string {
	return string(source) + "-" + uuid.NewString()
}
