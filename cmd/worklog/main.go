package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/christopherklint97/worklog/internal/activity"
	"github.com/christopherklint97/worklog/internal/config"
	"github.com/christopherklint97/worklog/internal/ingest"
	"github.com/christopherklint97/worklog/internal/scheduler"
	"github.com/christopherklint97/worklog/internal/store"
	"github.com/christopherklint97/worklog/internal/timetable"
	"github.com/christopherklint97/worklog/internal/tui"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "worklog",
	Short:         "Personal timetable built from calendars, mail and exports",
	Long:          "worklog buckets imported activities by day, week and year, keeps the hours you actually worked next to them, and estimates worked time from overlapping activities.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var importCmd = &cobra.Command{
	Use:   "import <file-or-url>...",
	Short: "Import activities from CSV, iCalendar or mbox files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Import card comments from Trello",
	RunE:  runFetch,
}

var hoursCmd = &cobra.Command{
	Use:   "hours <date> <hours>",
	Short: "Record the hours worked on a date",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runHours,
}

var showCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Show one day and move the cursor to it",
	RunE:  runShow,
}

var weekCmd = &cobra.Command{
	Use:   "week [date]",
	Short: "Show the week containing a date",
	RunE:  runWeek,
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List every recorded date grouped by week",
	RunE:  runDates,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the timetable snapshot to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var restoreCmd = &cobra.Command{
	Use:   "restore [file|-]",
	Short: "Replace the timetable with a snapshot file or a saved snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRestore,
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List saved snapshots",
	RunE:  runSnapshots,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every recorded day",
	RunE:  runClear,
}

var viewCmd = &cobra.Command{
	Use:   "view [date]",
	Short: "Browse days interactively",
	RunE:  runView,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send a notification when no hours are recorded for today",
	RunE:  runRemind,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running reminder",
	RunE:  runStop,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of an activity",
	RunE:  runSchema,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Import files dropped into an inbox directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	importCmd.Flags().String("type", "", "Force the source type (csv, calendar, mail)")
	fetchCmd.Flags().String("since", "", "Fetch comments after this date (default: lookback_years ago)")
	weekCmd.Flags().Int("year", 0, "Year of --week")
	weekCmd.Flags().Int("week", 0, "Week number within --year")
	restoreCmd.Flags().Int64("id", 0, "Restore a saved snapshot by id")
	snapshotsCmd.Flags().Int("limit", 20, "Number of snapshots to list")
	remindCmd.Flags().Bool("once", false, "Check once and exit")

	rootCmd.AddCommand(importCmd, fetchCmd, hoursCmd, showCmd, weekCmd, datesCmd,
		exportCmd, restoreCmd, snapshotsCmd, clearCmd, viewCmd, remindCmd, stopCmd,
		schemaCmd, configCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.Error(err.Error()))
		os.Exit(1)
	}
}

func ingestOptions(s *session, now time.Time) ingest.Options {
	return ingest.Options{
		Location:        s.engine.Location(),
		RecurrenceStart: now.AddDate(0, 0, -s.cfg.Calendar.RecurrenceLookbackDays),
		RecurrenceEnd:   now.AddDate(0, 0, s.cfg.Calendar.RecurrenceLookbackDays),
		MaxOccurrences:  s.cfg.Calendar.MaxOccurrences,
		Logger:          s.logger,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	typ, _ := cmd.Flags().GetString("type")
	var source activity.Source
	if typ != "" {
		src, ok := activity.ParseSource(typ)
		if !ok {
			return fmt.Errorf("unknown source type %q", typ)
		}
		source = src
	}

	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := importFiles(cmd.Context(), s, args, source, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return s.save("import")
}

// importFiles loads each path into the engine and reports the number of
// activities added.
func importFiles(ctx context.Context, s *session, paths []string, source activity.Source, out io.Writer) (int, error) {
	opts := ingestOptions(s, time.Now())
	total := 0
	for _, path := range paths {
		activities, err := ingest.LoadFile(ctx, path, source, opts)
		if err != nil {
			return total, err
		}
		s.engine.AddActivities(activities)
		total += len(activities)
		fmt.Fprintf(out, "Imported %d activities from %s\n", len(activities), path)
	}
	return total, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	tc := s.cfg.Trello
	if tc.APIKey == "" || tc.Token == "" || tc.Username == "" {
		return fmt.Errorf("trello credentials not configured, run 'worklog config' to set them up")
	}

	now := time.Now()
	since := now.AddDate(-tc.LookbackYears, 0, 0)
	if v, _ := cmd.Flags().GetString("since"); v != "" {
		if since, err = parseDate(v, now, s.engine.Location()); err != nil {
			return err
		}
	}

	client := ingest.NewCardClient(tc.APIKey, tc.Token, tc.Username, tc.BaseURL, s.logger)
	activities, err := client.FetchActivities(cmd.Context(), since, now)
	if err != nil {
		return fmt.Errorf("fetching card comments: %w", err)
	}
	s.engine.AddActivities(activities)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d card comments since %s\n", len(activities), since.Format(time.DateOnly))
	if len(activities) == 0 {
		return nil
	}
	return s.save("fetch")
}

func runHours(cmd *cobra.Command, args []string) error {
	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := recordHours(s, args[:len(args)-1], args[len(args)-1], time.Now()); err != nil {
		return err
	}
	date := s.engine.CurrentDate()
	fmt.Fprintln(cmd.OutOrStdout(), tui.Success(fmt.Sprintf("%s: %.2fh (week %d total %.2fh)",
		date.Format("Mon 2 Jan 2006"), s.engine.HoursWorked(date), timetable.WeekOf(date),
		s.engine.WeeklyHoursWorked(date.Year(), timetable.WeekOf(date)))))
	return s.save("hours")
}

// recordHours validates and records hours, then moves the cursor to the date.
func recordHours(s *session, dateArgs []string, value string, now time.Time) error {
	date, err := dateArg(dateArgs, now, s.engine.Location())
	if err != nil {
		return err
	}
	hours, err := tui.ParseHours(value)
	if err != nil {
		return err
	}
	s.engine.SetHoursWorked(date, hours)
	s.engine.SetCurrentDate(date)
	return s.saveCursor()
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) > 0 {
		date, err := dateArg(args, time.Now(), s.engine.Location())
		if err != nil {
			return err
		}
		s.engine.SetCurrentDate(date)
		if err := s.saveCursor(); err != nil {
			return fmt.Errorf("saving cursor: %w", err)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderDay(s.engine))
	return nil
}

func runWeek(cmd *cobra.Command, args []string) error {
	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	year, _ := cmd.Flags().GetInt("year")
	week, _ := cmd.Flags().GetInt("week")
	if week == 0 {
		date, err := dateArg(args, time.Now(), s.engine.Location())
		if err != nil {
			return err
		}
		year, week = date.Year(), timetable.WeekOf(date)
	} else if year == 0 {
		year = time.Now().In(s.engine.Location()).Year()
	}
	if week < 1 || week > 54 {
		return fmt.Errorf("week %d out of range", week)
	}

	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderWeek(s.engine, year, week))
	return nil
}

func runDates(cmd *cobra.Command, args []string) error {
	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderDatesByWeek(s.engine.AllDatesByWeek()))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	body, err := s.engine.ExportSnapshot()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), body)
		return nil
	}
	if err := os.WriteFile(args[0], []byte(body), 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.Success(fmt.Sprintf("Exported %d days to %s", len(s.engine.AllDates()), args[0])))
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetInt64("id")
	if id == 0 && len(args) == 0 {
		return fmt.Errorf("pass a snapshot file, - for stdin, or --id")
	}

	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	text, err := readSnapshot(s.db, id, args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := s.engine.ImportSnapshot(text); err != nil {
		if errors.Is(err, timetable.ErrMalformedSnapshot) {
			return fmt.Errorf("snapshot rejected, timetable unchanged: %w", err)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.Success(fmt.Sprintf("Restored %d days", len(s.engine.AllDates()))))
	return s.save("restore")
}

func readSnapshot(db *store.DB, id int64, args []string, stdin io.Reader) (string, error) {
	if id != 0 {
		snap, err := db.GetSnapshot(id)
		if err != nil {
			return "", err
		}
		if snap == nil {
			return "", fmt.Errorf("no snapshot with id %d", id)
		}
		return snap.Body, nil
	}

	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("reading snapshot: %w", err)
	}
	return string(data), nil
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	snaps, err := s.db.ListSnapshots(limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No snapshots saved.")
		return nil
	}
	for _, snap := range snaps {
		fmt.Fprintf(cmd.OutOrStdout(), "  %4d  %s  %-8s  %d days\n",
			snap.ID, snap.CreatedAt.Local().Format("2006-01-02 15:04"), snap.Reason, snap.Days)
	}
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	n := len(s.engine.AllDates())
	s.engine.Clear()
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d days. Restore with 'worklog restore --id' if needed.\n", n)
	return s.save("clear")
}

func runView(cmd *cobra.Command, args []string) error {
	s, err := openSession(newLogger(verbose))
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) > 0 {
		date, err := dateArg(args, time.Now(), s.engine.Location())
		if err != nil {
			return err
		}
		s.engine.SetCurrentDate(date)
	}

	app := tui.NewApp(s.engine)
	if _, err := tea.NewProgram(app).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	if err := s.saveCursor(); err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	if !app.Changed() {
		return nil
	}
	return s.save("view")
}

// todayHours reopens the database on every call so a long-running reminder
// sees hours recorded by other invocations.
func todayHours(cfg *config.Config) scheduler.HoursFunc {
	return func(date time.Time) (float64, error) {
		s, err := openSessionWith(cfg, newLogger(verbose))
		if err != nil {
			return 0, err
		}
		defer s.Close()
		return s.engine.HoursWorked(date), nil
	}
}

func runRemind(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if _, err := scheduler.ParseSchedule(cfg.Reminder.Schedule); err != nil {
		return err
	}

	sched := scheduler.New(cfg, todayHours(cfg), newLogger(verbose))
	if once, _ := cmd.Flags().GetBool("once"); once {
		if sched.Check() {
			fmt.Fprintln(cmd.OutOrStdout(), "Reminder sent.")
		}
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return sched.Run(ctx)
}

func runStop(cmd *cobra.Command, args []string) error {
	pid, err := scheduler.ReadPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending stop signal: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent stop signal to worklog (PID %d)\n", pid)
	return nil
}

func activitySchema() ([]byte, error) {
	r := &jsonschema.Reflector{DoNotReference: true}
	return json.MarshalIndent(r.Reflect(&activity.Activity{}), "", "  ")
}

func runSchema(cmd *cobra.Command, args []string) error {
	out, err := activitySchema()
	if err != nil {
		return fmt.Errorf("generating schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err := config.WriteDefault(configPath); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		// If editor fails, just print the path
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger(verbose)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dir := cfg.Storage.Inbox
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no inbox directory, pass one or set storage.inbox")
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return err
	}

	w, err := ingest.NewWatcher(dir, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for exports...\n", dir)
	for path := range w.Ready {
		if err := importDropped(ctx, cfg, logger, path, cmd.OutOrStdout()); err != nil {
			logger.Error("importing dropped file", "path", path, "error", err)
		}
	}
	return <-errCh
}

// importDropped imports one inbox file in its own session so each file
// becomes its own snapshot.
func importDropped(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string, out io.Writer) error {
	s, err := openSessionWith(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := importFiles(ctx, s, []string{path}, "", out)
	if err != nil || n == 0 {
		return err
	}
	return s.save("watch " + strconv.Quote(filepath.Base(path)))
}
