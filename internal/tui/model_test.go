package tui

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/gridcalc/internal/engine"
	"github.com/vogtb/gridcalc/internal/store"
)

// fakeRunner answers every tool request with a fixed output
type fakeRunner struct {
	output   string
	requests []engine.ToolRequest
}

func (f *fakeRunner) Run(ctx context.Context, req engine.ToolRequest) string {
	f.requests = append(f.requests, req)
	return f.output
}

func newTestModel(t *testing.T, runner ToolRunner) (*Model, *store.Store) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	st, err := store.Open(filepath.Join(t.TempDir(), store.DefaultFileName), store.Options{Logger: logger})
	require.NoError(t, err)

	e := engine.New(engine.Layout14, engine.WithLogger(logger))
	session := engine.NewSession(e, engine.SessionConfig{Store: st, Logger: logger})
	m := New(session, runner, Options{Theme: st.Theme(), Version: "test", Logger: logger})
	return m, st
}

func send(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

func keyOf(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func TestUpdateKeys(t *testing.T) {
	t.Run("TypeAndCommit", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, runes("1+2"), keyOf(tea.KeyEnter))

		s := m.Session()
		assert.Equal(t, "1+2", s.Cell(0))
		assert.Equal(t, 1, s.Row())
		assert.Equal(t, "3", s.Results()[0].Display)
	})

	t.Run("SpaceIsTyped", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, runes("1"), keyOf(tea.KeySpace), runes("+ 1"))
		assert.Equal(t, "1 + 1", m.Session().Current())
	})

	t.Run("AltRunesIgnored", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true})
		assert.Equal(t, "", m.Session().Current())
	})

	t.Run("Navigation", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		s := m.Session()
		send(m, keyOf(tea.KeyDown), keyOf(tea.KeyTab))
		assert.Equal(t, 2, s.Row())
		send(m, keyOf(tea.KeyUp))
		assert.Equal(t, 1, s.Row())
		send(m, keyOf(tea.KeyCtrlB))
		assert.Equal(t, 13, s.Row())
		send(m, keyOf(tea.KeyCtrlT))
		assert.Equal(t, 0, s.Row())
	})

	t.Run("EditingKeys", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		s := m.Session()
		send(m, runes("123"), keyOf(tea.KeyLeft), keyOf(tea.KeyBackspace))
		assert.Equal(t, "13", s.Current())
		send(m, keyOf(tea.KeyCtrlA), keyOf(tea.KeyDelete))
		assert.Equal(t, "3", s.Current())
		send(m, keyOf(tea.KeyCtrlZ))
		assert.Equal(t, "13", s.Current())
		send(m, keyOf(tea.KeyCtrlL))
		assert.Equal(t, "", s.Current())
	})

	t.Run("DuplicateDown", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, runes("7"), keyOf(tea.KeyCtrlD))
		s := m.Session()
		assert.Equal(t, 1, s.Row())
		assert.Equal(t, "7", s.Cell(1))
		assert.Equal(t, float64(14), s.Aggregate().Sum)
	})

	t.Run("LockIgnoresEdits", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, keyOf(tea.KeyF4), runes("5"), keyOf(tea.KeyDown))
		s := m.Session()
		assert.True(t, s.Locked())
		assert.Equal(t, "", s.Current())
		assert.Equal(t, 0, s.Row())
		assert.Contains(t, m.View(), "Status = Locked")

		send(m, keyOf(tea.KeyF4))
		assert.False(t, s.Locked())
		assert.Contains(t, m.View(), "Status = Opened")
	})

	t.Run("SaveShowsBanner", func(t *testing.T) {
		m, st := newTestModel(t, nil)
		send(m, runes("42"), keyOf(tea.KeyF5))

		cells, ok := st.Load(store.HomeSection)
		require.True(t, ok)
		assert.Equal(t, "42", cells["A"])
		assert.Contains(t, m.View(), "Saved -> Section: [0]")

		send(m, keyOf(tea.KeyDown))
		assert.NotContains(t, m.View(), "Saved -> Section")
	})

	t.Run("SectionCycling", func(t *testing.T) {
		m, st := newTestModel(t, nil)
		require.NoError(t, st.Save("budget", map[string]string{"A": "10"}))

		send(m, keyOf(tea.KeyCtrlRight))
		s := m.Session()
		assert.Equal(t, "budget", s.Section())
		assert.Equal(t, "10", s.Cell(0))

		send(m, keyOf(tea.KeyHome))
		assert.Equal(t, store.HomeSection, s.Section())
	})

	t.Run("Help", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		short := m.View()
		send(m, keyOf(tea.KeyF1))
		assert.True(t, m.help.ShowAll)
		assert.Greater(t, len(m.View()), len(short))
	})

	t.Run("Quit", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		cmd := send(m, keyOf(tea.KeyCtrlC))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestUpdateTools(t *testing.T) {
	t.Run("CalcRoundTrip", func(t *testing.T) {
		runner := &fakeRunner{output: "4"}
		m, _ := newTestModel(t, runner)
		cmd := send(m, runes("s:2+2"), keyOf(tea.KeyEnter))
		require.NotNil(t, cmd)
		assert.Equal(t, 1, m.pending)
		assert.Contains(t, m.View(), "running helper")

		send(m, cmd())
		require.Len(t, runner.requests, 1)
		assert.Equal(t, engine.ToolCalc, runner.requests[0].Tool)
		assert.Equal(t, "2+2", runner.requests[0].Expr)

		s := m.Session()
		assert.Equal(t, 0, m.pending)
		assert.Equal(t, "4", s.Cell(0))
		assert.Equal(t, "4", s.Results()[0].Display)
	})

	t.Run("RateRoundTrip", func(t *testing.T) {
		runner := &fakeRunner{output: "1.0842"}
		m, _ := newTestModel(t, runner)
		cmd := send(m, runes("rate"), keyOf(tea.KeyEnter))
		require.NotNil(t, cmd)
		send(m, cmd())
		assert.Equal(t, engine.ToolRate, runner.requests[0].Tool)
		assert.Equal(t, "1.0842", m.Session().Cell(0))
	})

	t.Run("OutputDroppedAfterSectionChange", func(t *testing.T) {
		runner := &fakeRunner{output: "4"}
		m, st := newTestModel(t, runner)
		require.NoError(t, st.Save("other", map[string]string{"A": "1"}))

		cmd := send(m, runes("s:2+2"), keyOf(tea.KeyEnter))
		require.NotNil(t, cmd)
		send(m, keyOf(tea.KeyCtrlRight), cmd())

		s := m.Session()
		assert.Equal(t, "other", s.Section())
		assert.Equal(t, "1", s.Cell(0))
	})

	t.Run("PlainCommitHasNoCommand", func(t *testing.T) {
		m, _ := newTestModel(t, &fakeRunner{})
		assert.Nil(t, send(m, runes("5"), keyOf(tea.KeyEnter)))
	})
}

func TestUpdateMouse(t *testing.T) {
	t.Run("ClickPlacesCursor", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, keyOf(tea.KeyDown), keyOf(tea.KeyDown), runes("12345"))

		col := inputColumn(engine.Layout14)
		send(m, tea.MouseMsg{X: col + 2, Y: firstGridRow + 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
		s := m.Session()
		assert.Equal(t, 2, s.Row())
		assert.Equal(t, 2, s.Pos())

		send(m, tea.MouseMsg{X: col + 40, Y: firstGridRow + 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
		assert.Equal(t, 5, s.Pos())
	})

	t.Run("ClickOutsideGrid", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, tea.MouseMsg{X: 40, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
		send(m, tea.MouseMsg{X: 40, Y: firstGridRow + 30, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
		assert.Equal(t, 0, m.Session().Row())
	})

	t.Run("ReleaseIgnored", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, tea.MouseMsg{X: 40, Y: firstGridRow + 4, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
		assert.Equal(t, 0, m.Session().Row())
	})

	t.Run("WheelScrolls", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		m.step = 3
		send(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
		assert.Equal(t, 3, m.Session().Row())
		send(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp},
			tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
		assert.Equal(t, 0, m.Session().Row())
	})
}

func TestView(t *testing.T) {
	t.Run("Layout", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, runes("1000"), keyOf(tea.KeyEnter), runes("A*2"), keyOf(tea.KeyEnter))
		lines := strings.Split(ansi.Strip(m.View()), "\n")

		assert.Contains(t, lines[0], "gridcalc test")
		assert.Equal(t, "<- 0 ->", lines[2])
		assert.Equal(t, "A: ["+strings.Repeat(" ", 18)+"1,000] = [1000"+strings.Repeat(" ", 53)+"]", lines[firstGridRow])
		assert.True(t, strings.HasPrefix(lines[firstGridRow+1], "B: ["+strings.Repeat(" ", 18)+"2,000] = [A*2"))
		assert.True(t, strings.HasPrefix(lines[firstGridRow+13], "N: ["))
	})

	t.Run("Summary", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, runes("1000"), keyOf(tea.KeyEnter), runes("500"), keyOf(tea.KeyEnter))
		view := ansi.Strip(m.View())
		assert.Contains(t, view, "(A - K) Sum = Z = 1,500")
		assert.Contains(t, view, "(A - K) Average = 750")
		assert.Contains(t, view, "Recalculate & Save to -> Section: [0]")
		assert.Contains(t, view, strings.TrimSpace(footerText))
	})

	t.Run("CursorWidth", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, runes("12"), keyOf(tea.KeyLeft))
		line := strings.Split(ansi.Strip(m.View()), "\n")[firstGridRow]
		assert.Equal(t, 4+engine.Layout14.OutputWidth+5+engine.Layout14.InputWidth+1, len(line))
	})

	t.Run("TruncatesToWidth", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		send(m, tea.WindowSizeMsg{Width: 30, Height: 10})
		lines := strings.Split(m.View(), "\n")
		assert.Len(t, lines, 10)
		for _, line := range lines {
			assert.LessOrEqual(t, ansi.StringWidth(line), 30)
		}
	})

	t.Run("Remarks", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		m.Session().Grid().SetRemarks([]string{"", "pay rent"})
		assert.Contains(t, ansi.Strip(m.View()), "pay rent")
	})
}

func TestTheme(t *testing.T) {
	t.Run("ParseColor", func(t *testing.T) {
		for name, want := range map[string]string{
			"Green":    "10",
			"darkred":  "1",
			"DarkGray": "8",
			"gray":     "7",
			" White ":  "15",
		} {
			c, ok := ParseColor(name)
			assert.True(t, ok, name)
			assert.Equal(t, want, string(c), name)
		}
		_, ok := ParseColor("Chartreuse")
		assert.False(t, ok)
	})

	t.Run("ApplyAttribute", func(t *testing.T) {
		base := NewStyles(store.DefaultTheme).Normal
		style, ok := ApplyAttribute(base, "Bold")
		assert.True(t, ok)
		assert.True(t, style.GetBold())

		style, ok = ApplyAttribute(base, "underlined")
		assert.True(t, ok)
		assert.True(t, style.GetUnderline())

		style, ok = ApplyAttribute(base, "NoBold")
		assert.True(t, ok)
		assert.False(t, style.GetBold())

		_, ok = ApplyAttribute(base, "Sparkle")
		assert.False(t, ok)
	})

	t.Run("Fallback", func(t *testing.T) {
		styles := NewStyles(store.Theme{Color: "Chartreuse", Attribute: "Sparkle"})
		assert.Equal(t, colors["green"], styles.Current.GetForeground())
		assert.True(t, styles.Current.GetUnderline())
	})

	t.Run("Configured", func(t *testing.T) {
		styles := NewStyles(store.Theme{Color: "Magenta", Attribute: "Reverse"})
		assert.Equal(t, colors["magenta"], styles.Current.GetForeground())
		assert.True(t, styles.Current.GetReverse())
		assert.False(t, styles.Current.GetUnderline())
	})
}
