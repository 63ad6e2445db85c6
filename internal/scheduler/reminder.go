package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/christopherklint97/worklog/internal/config"
	"github.com/gen2brain/beeep"
	"github.com/robfig/cron/v3"
)

// HoursFunc reports the manual hours recorded for a date.
type HoursFunc func(date time.Time) (float64, error)

// Notifier shows a desktop notification.
type Notifier func(title, message string) error

// SendNotification is the default Notifier.
func SendNotification(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Scheduler nags on a cron schedule when no hours are recorded for today.
type Scheduler struct {
	cfg    *config.Config
	hours  HoursFunc
	notify Notifier
	logger *slog.Logger
	now    func() time.Time
}

func New(cfg *config.Config, hours HoursFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		cfg:    cfg,
		hours:  hours,
		notify: SendNotification,
		logger: logger,
		now:    time.Now,
	}
}

// ParseSchedule validates a five-field cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing reminder schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Run blocks until ctx is done, checking on every tick of the schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	sched, err := ParseSchedule(s.cfg.Reminder.Schedule)
	if err != nil {
		return err
	}
	if err := writePID(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePID()

	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() { s.Check() }))
	c.Start()

	fmt.Printf("Reminder started (schedule: %s, next: %s)\n",
		s.cfg.Reminder.Schedule, sched.Next(s.now()).Format("Mon 15:04"))

	<-ctx.Done()
	<-c.Stop().Done()
	fmt.Println("\nReminder stopped.")
	return nil
}

// Check sends a reminder if today has no hours. It reports whether a
// reminder was sent.
func (s *Scheduler) Check() bool {
	today := s.now()
	hours, err := s.hours(today)
	if err != nil {
		s.logger.Error("reading today's hours", "error", err)
		return false
	}
	if hours > 0 {
		s.logger.Debug("hours already recorded", "date", today.Format(time.DateOnly), "hours", hours)
		return false
	}
	if !s.cfg.Notifications.Enabled {
		s.logger.Info("no hours recorded today", "date", today.Format(time.DateOnly))
		return false
	}

	msg := fmt.Sprintf("No hours logged for %s yet. Run 'worklog hours today <n>'.", today.Format("Mon Jan 2"))
	if err := s.notify("worklog", msg); err != nil {
		s.logger.Error("sending notification", "error", err)
		return false
	}
	return true
}

func pidPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "worklog.pid"), nil
}

func writePID() error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	path, err := pidPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePID() {
	if path, err := pidPath(); err == nil {
		os.Remove(path)
	}
}

func ReadPID() (int, error) {
	path, err := pidPath()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("no running reminder found")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file")
	}

	return pid, nil
}
