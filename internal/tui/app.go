package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/christopherklint97/worklog/internal/timetable"
)

type viewState int

const (
	dayView viewState = iota
	hoursView
)

// App browses the timetable one day at a time and edits manual hours.
type App struct {
	state   viewState
	engine  *timetable.Engine
	hours   hoursModel
	status  string
	errMsg  string
	changed bool
	today   func() time.Time
}

func NewApp(engine *timetable.Engine) *App {
	return &App{
		state:  dayView,
		engine: engine,
		today:  time.Now,
	}
}

// Changed reports whether hours were edited during the session.
func (a *App) Changed() bool {
	return a.changed
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.state {
	case dayView:
		return a.updateDay(msg)
	case hoursView:
		return a.updateHours(msg)
	}
	return a, nil
}

func (a *App) updateDay(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	cur := a.engine.CurrentDate()
	switch keyMsg.String() {
	case "q", "esc":
		return a, tea.Quit
	case "left", "h":
		a.move(cur.AddDate(0, 0, -1))
	case "right", "l":
		a.move(cur.AddDate(0, 0, 1))
	case "up", "k":
		a.move(cur.AddDate(0, 0, -7))
	case "down", "j":
		a.move(cur.AddDate(0, 0, 7))
	case "t":
		a.move(a.today())
	case "e", "enter":
		a.state = hoursView
		a.errMsg = ""
		a.hours = newHoursModel(cur.Format("Monday 2 January 2006"), a.engine.HoursWorked(cur))
		return a, a.hours.textInput.Focus()
	}
	return a, nil
}

func (a *App) move(date time.Time) {
	a.engine.SetCurrentDate(date)
	a.status = ""
	a.errMsg = ""
}

func (a *App) updateHours(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			a.state = dayView
			a.errMsg = ""
			return a, nil
		case "enter":
			h, err := ParseHours(a.hours.textInput.Value())
			if err != nil {
				a.errMsg = err.Error()
				return a, nil
			}
			cur := a.engine.CurrentDate()
			a.engine.SetHoursWorked(cur, h)
			a.changed = true
			a.status = fmt.Sprintf("Set %s for %s", formatHours(h), cur.Format("Mon 2 Jan"))
			a.errMsg = ""
			a.state = dayView
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.hours, cmd = a.hours.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	var out string
	switch a.state {
	case dayView:
		out = RenderDay(a.engine)
		if a.status != "" {
			out += "\n" + successStyle.Render(a.status)
		}
		out += "\n" + helpStyle.Render("←/→: day • ↑/↓: week • t: today • e: set hours • q: quit")
	case hoursView:
		out = a.hours.View()
	}
	if a.errMsg != "" {
		out += "\n" + Error(a.errMsg)
	}
	return out
}
