// Package ui provides terminal user interface components for grm.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/relicta-tech/grm/internal/domain/version"
)

// ErrPickerCanceled is returned when the user quits the picker without choosing.
var ErrPickerCanceled = errors.New("bump selection canceled")

// BumpOption is one choice offered by the picker.
type BumpOption struct {
	Bump    version.BumpType
	Version string
}

// BumpPickerModel is the Bubble Tea model for choosing the next release bump.
type BumpPickerModel struct {
	latest    string
	options   []BumpOption
	notes     []string
	cursor    int
	chosen    bool
	canceled  bool
	viewport  viewport.Model
	ready     bool
	width     int
	height    int
	showNotes bool
	showHelp  bool
	keymap    pickerKeyMap
	styles    pickerStyles
}

type pickerKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	Minor       key.Binding
	Patch       key.Binding
	Major       key.Binding
	ToggleNotes key.Binding
	Help        key.Binding
	Quit        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
}

type pickerStyles struct {
	title    lipgloss.Style
	subtle   lipgloss.Style
	bold     lipgloss.Style
	selected lipgloss.Style
	major    lipgloss.Style
	minor    lipgloss.Style
	patch    lipgloss.Style
	border   lipgloss.Style
	help     lipgloss.Style
}

func defaultPickerKeyMap() pickerKeyMap {
	return pickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("k/up", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("j/down", "next"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "choose"),
		),
		Minor: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "minor"),
		),
		Patch: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "patch"),
		),
		Major: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "major"),
		),
		ToggleNotes: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle notes"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "cancel"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "page down"),
		),
	}
}

func defaultPickerStyles() pickerStyles {
	return pickerStyles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1),
		subtle:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		bold:     lipgloss.NewStyle().Bold(true),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		major:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		minor:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		patch:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1),
	}
}

// NewBumpPickerModel creates a picker offering every bump type with the
// version it would produce. The cursor starts on initial.
func NewBumpPickerModel(catalog *version.Catalog, notes []string, initial version.BumpType) BumpPickerModel {
	m := BumpPickerModel{
		notes:  notes,
		keymap: defaultPickerKeyMap(),
		styles: defaultPickerStyles(),
	}
	if latest, ok := catalog.Latest(); ok {
		m.latest = latest.String()
	}
	for i, bump := range version.AllBumpTypes {
		m.options = append(m.options, BumpOption{Bump: bump, Version: catalog.MustSuggest(bump).String()})
		if bump == initial {
			m.cursor = i
		}
	}
	return m
}

// Init implements tea.Model.
func (m BumpPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m BumpPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		viewportHeight := max(m.height-14, 3)
		if !m.ready {
			m.viewport = viewport.New(max(m.width-4, 10), viewportHeight)
			m.viewport.SetContent(m.renderNotesContent())
			m.ready = true
		} else {
			m.viewport.Width = max(m.width-4, 10)
			m.viewport.Height = viewportHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.canceled = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Select):
			m.chosen = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Minor):
			return m.choose(version.BumpMinor)

		case key.Matches(msg, m.keymap.Patch):
			return m.choose(version.BumpPatch)

		case key.Matches(msg, m.keymap.Major):
			return m.choose(version.BumpMajor)

		case key.Matches(msg, m.keymap.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keymap.ToggleNotes):
			m.showNotes = !m.showNotes
			return m, nil

		case key.Matches(msg, m.keymap.Up):
			if m.showNotes {
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, m.keymap.Down):
			if m.showNotes {
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
			if m.showNotes {
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
		}
	}

	return m, cmd
}

func (m BumpPickerModel) choose(bump version.BumpType) (tea.Model, tea.Cmd) {
	for i, opt := range m.options {
		if opt.Bump == bump {
			m.cursor = i
		}
	}
	m.chosen = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m BumpPickerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.title.Render("New Release"))
	b.WriteString("\n\n")

	if m.latest != "" {
		b.WriteString(fmt.Sprintf("Last version is %s.", m.styles.bold.Render(m.latest)))
	} else {
		b.WriteString("No previous versions found.")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.subtle.Render(fmt.Sprintf("%d unreleased changelog entries", len(m.notes))))
	b.WriteString("\n\n")

	b.WriteString(m.renderOptions())
	b.WriteString("\n")

	if m.showNotes {
		b.WriteString(m.styles.bold.Render("Unreleased (scroll with j/k)"))
		b.WriteString("\n")
		b.WriteString(m.styles.border.Render(m.viewport.View()))
		b.WriteString("\n")
	} else {
		b.WriteString(m.styles.subtle.Render("Press [tab] to view unreleased changes"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(m.renderHelp())
	} else {
		b.WriteString(m.styles.help.Render("[m]inor  [p]atch  [M]ajor  enter choose  q cancel  ? help"))
		b.WriteString("\n")
	}

	return b.String()
}

func (m BumpPickerModel) renderOptions() string {
	var b strings.Builder
	title := cases.Title(language.English)

	for i, opt := range m.options {
		style := m.styles.patch
		switch opt.Bump {
		case version.BumpMajor:
			style = m.styles.major
		case version.BumpMinor:
			style = m.styles.minor
		}

		cursor := "  "
		label := style.Render(fmt.Sprintf("%-6s", title.String(string(opt.Bump))))
		target := opt.Version
		if i == m.cursor {
			cursor = m.styles.selected.Render("> ")
			target = m.styles.selected.Render(target)
		}
		b.WriteString(fmt.Sprintf("%s%s → %s\n", cursor, label, target))
	}
	return b.String()
}

func (m BumpPickerModel) renderNotesContent() string {
	if len(m.notes) == 0 {
		return m.styles.subtle.Render("No unreleased changes")
	}
	return strings.Join(m.notes, "\n")
}

func (m BumpPickerModel) renderHelp() string {
	var b strings.Builder

	b.WriteString(m.styles.bold.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, binding := range []key.Binding{
		m.keymap.Up, m.keymap.Down, m.keymap.Select,
		m.keymap.Minor, m.keymap.Patch, m.keymap.Major,
		m.keymap.ToggleNotes, m.keymap.Help, m.keymap.Quit,
	} {
		h := binding.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			m.styles.selected.Render(fmt.Sprintf("%-8s", h.Key)),
			m.styles.subtle.Render(h.Desc)))
	}

	b.WriteString("\n")
	b.WriteString(m.styles.subtle.Render("Press ? to close help"))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the option under the cursor.
func (m BumpPickerModel) Selected() BumpOption {
	return m.options[m.cursor]
}

// Chosen reports whether the user confirmed a choice.
func (m BumpPickerModel) Chosen() bool {
	return m.chosen && !m.canceled
}

type bumpProgramRunner interface {
	Run() (tea.Model, error)
}

var newBumpProgram = func(model BumpPickerModel) bumpProgramRunner {
	return tea.NewProgram(model, tea.WithAltScreen())
}

// RunBumpPicker runs the picker and returns the chosen bump type.
func RunBumpPicker(catalog *version.Catalog, notes []string, initial version.BumpType) (version.BumpType, error) {
	p := newBumpProgram(NewBumpPickerModel(catalog, notes, initial))

	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("TUI error: %w", err)
	}

	picker, ok := finalModel.(BumpPickerModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type returned from TUI")
	}
	if !picker.Chosen() {
		return "", ErrPickerCanceled
	}
	return picker.Selected().Bump, nil
}
