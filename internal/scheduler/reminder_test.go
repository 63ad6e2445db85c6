package scheduler

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/christopherklint97/worklog/internal/config"
)

type sent struct {
	title, message string
}

func newTestScheduler(t *testing.T, hours float64, hoursErr error, notifyEnabled bool) (*Scheduler, *[]sent) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Notifications.Enabled = notifyEnabled

	var notes []sent
	s := New(&cfg, func(time.Time) (float64, error) { return hours, hoursErr }, nil)
	s.notify = func(title, message string) error {
		notes = append(notes, sent{title, message})
		return nil
	}
	s.now = func() time.Time { return time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC) }
	return s, &notes
}

func TestCheckNotifiesWhenNoHours(t *testing.T) {
	s, notes := newTestScheduler(t, 0, nil, true)
	if !s.Check() {
		t.Fatal("expected a reminder")
	}
	if len(*notes) != 1 || (*notes)[0].message != "No hours logged for Fri Mar 1 yet. Run 'worklog hours today <n>'." {
		t.Fatalf("notes = %+v", *notes)
	}
}

func TestCheckQuietWhenHoursRecorded(t *testing.T) {
	s, notes := newTestScheduler(t, 7.5, nil, true)
	if s.Check() || len(*notes) != 0 {
		t.Fatal("reminder sent although hours exist")
	}
}

func TestCheckRespectsDisabledNotifications(t *testing.T) {
	s, notes := newTestScheduler(t, 0, nil, false)
	if s.Check() || len(*notes) != 0 {
		t.Fatal("reminder sent with notifications disabled")
	}
}

func TestCheckSkipsOnError(t *testing.T) {
	s, notes := newTestScheduler(t, 0, errors.New("db locked"), true)
	if s.Check() || len(*notes) != 0 {
		t.Fatal("reminder sent despite lookup failure")
	}
}

func TestParseSchedule(t *testing.T) {
	sched, err := ParseSchedule("0 17 * * 1-5")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	// Saturday afternoon rolls over to Monday.
	next := sched.Next(time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC))
	if want := time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}

	if _, err := ParseSchedule("every day at five"); err == nil {
		t.Fatal("expected an error for a bad expression")
	}
}

func TestPIDRoundTrip(t *testing.T) {
	t.Setenv("WORKLOG_HOME", t.TempDir())

	if _, err := ReadPID(); err == nil {
		t.Fatal("expected an error without a PID file")
	}
	if err := writePID(); err != nil {
		t.Fatalf("writePID: %v", err)
	}
	pid, err := ReadPID()
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("pid = %d, want %d", pid, os.Getpid())
	}
	removePID()
	if _, err := ReadPID(); err == nil {
		t.Fatal("PID file survived removePID")
	}
}
