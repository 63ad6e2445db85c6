package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/christopherklint97/worklog/internal/config"
	"github.com/christopherklint97/worklog/internal/store"
	"github.com/christopherklint97/worklog/internal/timetable"
)

const (
	cursorStateKey = "cursor"
	snapshotsKept  = 50
)

// session holds the timetable restored from the newest saved snapshot.
type session struct {
	cfg    *config.Config
	db     *store.DB
	engine *timetable.Engine
	logger *slog.Logger
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

func openSession(logger *slog.Logger) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return openSessionWith(cfg, logger)
}

func openSessionWith(cfg *config.Config, logger *slog.Logger) (*session, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	loc, err := loadLocation(cfg.Storage.Timezone)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &session{
		cfg:    cfg,
		db:     db,
		engine: timetable.NewEngine(loc, logger),
		logger: logger,
	}
	if err := s.restoreLatest(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) restoreLatest() error {
	snap, err := s.db.LatestSnapshot()
	if err != nil {
		return fmt.Errorf("reading latest snapshot: %w", err)
	}
	if snap != nil {
		if err := s.engine.ImportSnapshot(snap.Body); err != nil {
			return fmt.Errorf("restoring snapshot %d: %w", snap.ID, err)
		}
		s.logger.Debug("restored snapshot", "id", snap.ID, "days", snap.Days)
	}

	cursor, err := s.db.GetState(cursorStateKey)
	if err != nil {
		return fmt.Errorf("reading cursor: %w", err)
	}
	if cursor != "" {
		if t, err := time.ParseInLocation(time.DateOnly, cursor, s.engine.Location()); err == nil {
			s.engine.SetCurrentDate(t)
		}
	}
	return nil
}

// save exports the engine and stores the result as the newest snapshot.
func (s *session) save(reason string) error {
	body, err := s.engine.ExportSnapshot()
	if err != nil {
		return err
	}
	id, err := s.db.SaveSnapshot(reason, len(s.engine.AllDates()), body)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	if n, err := s.db.PruneSnapshots(snapshotsKept); err != nil {
		s.logger.Error("pruning snapshots", "error", err)
	} else if n > 0 {
		s.logger.Debug("pruned snapshots", "count", n)
	}
	s.logger.Debug("saved snapshot", "id", id, "reason", reason)
	return nil
}

func (s *session) saveCursor() error {
	return s.db.SetState(cursorStateKey, timetable.DateKey(s.engine.CurrentDate()))
}

func (s *session) Close() error {
	return s.db.Close()
}
