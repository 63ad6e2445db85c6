package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
)

func TestCSVLoader(t *testing.T) {
	input := `Title,Start,End,Description,Location
Standup,2024-03-01 09:00,2024-03-01 09:15,Daily sync,Room 4
"Review ""v2"" draft",2024-03-01T10:00:00Z,2024-03-01T11:30:00Z
,2024-03-02 14:00,,,
too,short
Broken,not a date,2024-03-01 10:00

`
	loader := &CSVLoader{opts: Options{Location: time.UTC}}
	got, err := loader.Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d activities, want 3: %+v", len(got), got)
	}

	standup := got[0]
	if standup.Title != "Standup" || standup.Description != "Daily sync" || standup.Location != "Room 4" {
		t.Errorf("standup = %+v", standup)
	}
	if !standup.Start.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)) || standup.Duration() != 15*time.Minute {
		t.Errorf("standup span = %v - %v", standup.Start, standup.End)
	}
	if standup.Source != activity.SourceCSV || !strings.HasPrefix(standup.ID, "csv-") {
		t.Errorf("standup id/source = %s/%s", standup.ID, standup.Source)
	}

	if got[1].Title != `Review "v2" draft` || got[1].Duration() != 90*time.Minute {
		t.Errorf("quoted row = %+v", got[1])
	}

	untitled := got[2]
	if untitled.Title != "Untitled" {
		t.Errorf("empty title = %q, want Untitled", untitled.Title)
	}
	if !untitled.End.Equal(untitled.Start) {
		t.Errorf("missing end should default to start, got %v - %v", untitled.Start, untitled.End)
	}

	if got[0].ID == got[1].ID {
		t.Error("ids are not unique")
	}
}

func TestCSVLoaderWithoutHeader(t *testing.T) {
	input := "Deploy,2024-03-01 16:00,2024-03-01 17:00\n"
	got, err := (&CSVLoader{opts: Options{Location: time.UTC}}).Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Deploy" {
		t.Fatalf("got %+v", got)
	}
}

func TestCSVLoaderUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	got, err := (&CSVLoader{opts: Options{Location: loc}}).Load(strings.NewReader("Call,2024-03-01 09:00,2024-03-01 10:00\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC); !got[0].Start.Equal(want) {
		t.Fatalf("start = %v, want %v", got[0].Start, want)
	}
}
