package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/christopherklint97/worklog/internal/timetable"
)

type hoursModel struct {
	textInput textinput.Model
	dateInfo  string
}

func newHoursModel(dateInfo string, current float64) hoursModel {
	ti := textinput.New()
	ti.Placeholder = "Hours worked (0-24)"
	ti.CharLimit = 6
	ti.Width = 20
	if current > 0 {
		ti.SetValue(strconv.FormatFloat(current, 'f', -1, 64))
	}
	ti.Focus()

	return hoursModel{textInput: ti, dateInfo: dateInfo}
}

func (m hoursModel) Update(msg tea.Msg) (hoursModel, tea.Cmd) {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m hoursModel) View() string {
	header := titleStyle.Render("Hours worked")
	dateLabel := subtitleStyle.Render(m.dateInfo)
	help := helpStyle.Render("Enter: save • Esc: cancel")
	return header + "\n" + dateLabel + "\n\n" + m.textInput.View() + "\n" + help
}

// ParseHours reads user input as hours and validates the range.
func ParseHours(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "h")
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", timetable.ErrInvalidHours, s)
	}
	if err := timetable.ValidateHours(h); err != nil {
		return 0, err
	}
	return h, nil
}
