package workspaces

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerTitleStyle    = lipgloss.NewStyle().MarginLeft(2).Bold(true)
	pickerItemStyle     = lipgloss.NewStyle().PaddingLeft(4)
	pickerSelectedStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	pickerHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1).MarginLeft(2)
)

// ErrPickerCancelled is returned when the user dismisses the picker.
var ErrPickerCancelled = errors.New("selection cancelled")

type pickerItem string

func (i pickerItem) FilterValue() string { return string(i) }

type pickerDelegate struct{}

func (d pickerDelegate) Height() int                             { return 1 }
func (d pickerDelegate) Spacing() int                            { return 0 }
func (d pickerDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d pickerDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(pickerItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, string(i))
	fn := pickerItemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return pickerSelectedStyle.Render("> " + strings.Join(s, " "))
		}
	}
	fmt.Fprint(w, fn(str))
}

type pickerModel struct {
	list     list.Model
	choice   string
	quitting bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		// While the filter input is focused, keys belong to the list.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.choice = ""
			return m, tea.Quit
		case "enter":
			if i, ok := m.list.SelectedItem().(pickerItem); ok {
				m.choice = string(i)
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}
	help := pickerHelpStyle.Render("↑/↓: navigate • /: filter • enter: select • esc: cancel")
	return fmt.Sprintf("%s\n\n%s", m.list.View(), help)
}

// Pick shows a filterable workspace picker and returns the chosen name.
func Pick(prompt string, names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.New("no workspaces to select from")
	}

	items := make([]list.Item, 0, len(names))
	for _, name := range names {
		items = append(items, pickerItem(name))
	}

	const defaultWidth = 80
	const listHeight = 14

	l := list.New(items, pickerDelegate{}, defaultWidth, listHeight)
	l.Title = prompt
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = pickerTitleStyle

	final, err := tea.NewProgram(pickerModel{list: l}).Run()
	if err != nil {
		return "", fmt.Errorf("error running picker: %w", err)
	}

	result := final.(pickerModel)
	if result.choice == "" {
		return "", ErrPickerCancelled
	}
	return result.choice, nil
}
