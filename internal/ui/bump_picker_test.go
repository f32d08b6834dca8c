package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/relicta-tech/grm/internal/domain/version"
)

func newTestPicker(initial version.BumpType) BumpPickerModel {
	catalog := version.NewCatalog([]string{"1.2.3", "v1.0.0", "not-a-version"})
	return NewBumpPickerModel(catalog, []string{"- Added export", "- Fixed login"}, initial)
}

func sendKey(m BumpPickerModel, msg tea.KeyMsg) (BumpPickerModel, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(BumpPickerModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewBumpPickerModel_Options(t *testing.T) {
	m := newTestPicker(version.BumpPatch)

	want := []BumpOption{
		{Bump: version.BumpMinor, Version: "1.3.0"},
		{Bump: version.BumpPatch, Version: "1.2.4"},
		{Bump: version.BumpMajor, Version: "2.0.0"},
	}
	if len(m.options) != len(want) {
		t.Fatalf("options = %v, want %v", m.options, want)
	}
	for i := range want {
		if m.options[i] != want[i] {
			t.Errorf("options[%d] = %v, want %v", i, m.options[i], want[i])
		}
	}
	if got := m.Selected().Bump; got != version.BumpPatch {
		t.Errorf("initial selection = %s, want patch", got)
	}
	if m.latest != "1.2.3" {
		t.Errorf("latest = %q, want 1.2.3", m.latest)
	}
}

func TestNewBumpPickerModel_EmptyCatalog(t *testing.T) {
	m := NewBumpPickerModel(version.NewCatalog(nil), nil, version.BumpMinor)

	if m.latest != "" {
		t.Errorf("latest = %q, want empty", m.latest)
	}
	if got := m.Selected().Version; got != "0.1.0" {
		t.Errorf("minor from empty catalog = %s, want 0.1.0", got)
	}
}

func TestBumpPickerModel_QuickSelect(t *testing.T) {
	tests := []struct {
		key  string
		want version.BumpType
	}{
		{"m", version.BumpMinor},
		{"p", version.BumpPatch},
		{"M", version.BumpMajor},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, cmd := sendKey(newTestPicker(version.BumpMinor), runes(tt.key))
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if !m.Chosen() {
				t.Fatal("expected choice to be confirmed")
			}
			if got := m.Selected().Bump; got != tt.want {
				t.Errorf("Selected = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBumpPickerModel_Navigation(t *testing.T) {
	m := newTestPicker(version.BumpMinor)

	m, _ = sendKey(m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.Selected().Bump; got != version.BumpMinor {
		t.Errorf("up at top moved to %s", got)
	}

	m, _ = sendKey(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = sendKey(m, runes("j"))
	m, _ = sendKey(m, runes("j"))
	if got := m.Selected().Bump; got != version.BumpMajor {
		t.Errorf("after moving down = %s, want major", got)
	}

	m, _ = sendKey(m, runes("k"))
	m, cmd := sendKey(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.Chosen() {
		t.Fatal("enter should confirm the selection")
	}
	if got := m.Selected().Bump; got != version.BumpPatch {
		t.Errorf("Selected = %s, want patch", got)
	}
}

func TestBumpPickerModel_Cancel(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m, cmd := sendKey(newTestPicker(version.BumpMinor), msg)
		if cmd == nil {
			t.Errorf("%s: expected quit command", msg)
		}
		if m.Chosen() {
			t.Errorf("%s: cancel should not confirm a choice", msg)
		}
	}
}

func TestBumpPickerModel_NotesViewportCapturesScroll(t *testing.T) {
	m := newTestPicker(version.BumpMinor)
	m, _ = sendKey(m, tea.KeyMsg{Type: tea.KeyTab})
	if !m.showNotes {
		t.Fatal("tab should show notes")
	}

	m, _ = sendKey(m, runes("j"))
	if got := m.Selected().Bump; got != version.BumpMinor {
		t.Errorf("scrolling notes moved the cursor to %s", got)
	}

	m, _ = sendKey(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.showNotes {
		t.Fatal("second tab should hide notes")
	}
}

func TestBumpPickerModel_View(t *testing.T) {
	m := newTestPicker(version.BumpMinor)
	if got := m.View(); got != "Initializing..." {
		t.Fatalf("View before size = %q", got)
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m = updated.(BumpPickerModel)

	view := m.View()
	for _, want := range []string{"New Release", "1.2.3", "Minor", "1.3.0", "Patch", "1.2.4", "Major", "2.0.0", "2 unreleased changelog entries"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}

	m, _ = sendKey(m, tea.KeyMsg{Type: tea.KeyTab})
	if !strings.Contains(m.View(), "- Fixed login") {
		t.Error("notes view missing changelog entry")
	}

	m, _ = sendKey(m, runes("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help view missing title")
	}
}

func TestRunBumpPicker_ReturnsSelection(t *testing.T) {
	orig := newBumpProgram
	t.Cleanup(func() { newBumpProgram = orig })
	newBumpProgram = func(model BumpPickerModel) bumpProgramRunner {
		chosen, _ := model.choose(version.BumpMajor)
		return stubBumpProgram{model: chosen}
	}

	got, err := RunBumpPicker(version.NewCatalog([]string{"1.0.0"}), nil, version.BumpMinor)
	if err != nil {
		t.Fatalf("RunBumpPicker error: %v", err)
	}
	if got != version.BumpMajor {
		t.Fatalf("RunBumpPicker = %s, want major", got)
	}
}

func TestRunBumpPicker_Canceled(t *testing.T) {
	orig := newBumpProgram
	t.Cleanup(func() { newBumpProgram = orig })
	newBumpProgram = func(model BumpPickerModel) bumpProgramRunner {
		return stubBumpProgram{model: model}
	}

	_, err := RunBumpPicker(version.NewCatalog(nil), nil, version.BumpMinor)
	if !errors.Is(err, ErrPickerCanceled) {
		t.Fatalf("RunBumpPicker error = %v, want ErrPickerCanceled", err)
	}
}

func TestRunBumpPicker_Errors(t *testing.T) {
	orig := newBumpProgram
	t.Cleanup(func() { newBumpProgram = orig })

	newBumpProgram = func(model BumpPickerModel) bumpProgramRunner {
		return stubBumpProgram{err: errors.New("no tty")}
	}
	if _, err := RunBumpPicker(version.NewCatalog(nil), nil, version.BumpMinor); err == nil {
		t.Fatal("expected program error")
	}

	newBumpProgram = func(model BumpPickerModel) bumpProgramRunner {
		return stubBumpProgram{model: invalidModel{}}
	}
	if _, err := RunBumpPicker(version.NewCatalog(nil), nil, version.BumpMinor); err == nil {
		t.Fatal("expected RunBumpPicker to fail with unexpected model")
	}
}

type stubBumpProgram struct {
	model tea.Model
	err   error
}

func (s stubBumpProgram) Run() (tea.Model, error) {
	return s.model, s.err
}

type invalidModel struct{}

func (invalidModel) Init() tea.Cmd { return nil }

func (invalidModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return invalidModel{}, nil }

func (invalidModel) View() string { return "" }
