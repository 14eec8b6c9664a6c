// Package tui is the terminal host for a calculator session. It turns key
// and mouse events into session calls, recomputes once per event and renders
// the grid with lipgloss.
package tui

import (
	"context"
	"log"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vogtb/gridcalc/internal/engine"
	"github.com/vogtb/gridcalc/internal/store"
)

// ToolRunner runs the helper a commit asked for and returns the cell text
type ToolRunner interface {
	Run(ctx context.Context, req engine.ToolRequest) string
}

// toolDoneMsg carries helper output back into the update loop
type toolDoneMsg struct {
	req    engine.ToolRequest
	output string
}

// grid rows start below the title, a blank line and the header
const firstGridRow = 3

// Options configures the model
type Options struct {
	Theme   store.Theme
	Version string
	Logger  *log.Logger
}

// Model is the bubbletea model
type Model struct {
	session *engine.Session
	runner  ToolRunner
	styles  Styles
	keys    keyMap
	help    help.Model
	step    int
	version string
	logger  *log.Logger

	width   int
	height  int
	pending int
	banner  string
}

// New creates the model around a session
func New(session *engine.Session, runner ToolRunner, opts Options) *Model {
	m := &Model{
		session: session,
		runner:  runner,
		styles:  NewStyles(opts.Theme),
		keys:    defaultKeyMap(),
		help:    help.New(),
		step:    opts.Theme.Step,
		version: opts.Version,
		logger:  opts.Logger,
	}
	if m.step <= 0 {
		m.step = 1
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	return m
}

// Session returns the session the model drives
func (m *Model) Session() *engine.Session {
	return m.session
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		cmd := m.handleKey(msg)
		m.session.Recalculate()
		return m, cmd

	case tea.MouseMsg:
		m.handleMouse(msg)
		m.session.Recalculate()
		return m, nil

	case toolDoneMsg:
		m.pending--
		m.session.ApplyTool(msg.req, msg.output)
		m.session.Recalculate()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	s := m.session
	m.banner = ""

	switch {
	case key.Matches(msg, m.keys.PrevSection):
		s.NextSection(true)
	case key.Matches(msg, m.keys.NextSection):
		s.NextSection(false)
	case key.Matches(msg, m.keys.Lock):
		s.ToggleLock()
	case key.Matches(msg, m.keys.ClearSpan):
		s.ClearSpan()
	case key.Matches(msg, m.keys.ClearCell):
		s.ClearCell()
	case key.Matches(msg, m.keys.Undo):
		s.Undo()
	case key.Matches(msg, m.keys.Home):
		s.Home()
	case key.Matches(msg, m.keys.Save):
		if err := s.Save(); err != nil {
			m.logger.Printf("tui: save: %v", err)
		}
	case key.Matches(msg, m.keys.Clone):
		s.Clone()
	case key.Matches(msg, m.keys.Top):
		s.Top()
	case key.Matches(msg, m.keys.Bottom):
		s.Bottom()
	case key.Matches(msg, m.keys.Duplicate):
		s.DuplicateDown()
	case key.Matches(msg, m.keys.LineStart):
		s.LineStart()
	case key.Matches(msg, m.keys.LineEnd):
		s.LineEnd()
	case key.Matches(msg, m.keys.Up):
		s.MoveUp()
	case key.Matches(msg, m.keys.Down):
		s.MoveDown()
	case key.Matches(msg, m.keys.Left):
		s.MoveLeft()
	case key.Matches(msg, m.keys.Right):
		s.MoveRight()
	case key.Matches(msg, m.keys.Backspace):
		s.Backspace()
	case key.Matches(msg, m.keys.Delete):
		s.Delete()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Commit):
		if req := s.Commit(); req != nil {
			return m.runTool(*req)
		}
	case msg.Type == tea.KeySpace:
		s.Insert(' ')
	case msg.Type == tea.KeyRunes && !msg.Alt:
		for _, r := range msg.Runes {
			s.Insert(r)
		}
	}

	if status := s.Status(); status != "" {
		m.banner = status
		s.ClearStatus()
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	s := m.session
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		s.Scroll(-m.step)
	case tea.MouseButtonWheelDown:
		s.Scroll(m.step)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return
		}
		row := msg.Y - firstGridRow
		if row < 0 || row >= s.Grid().Len() {
			return
		}
		s.SetCursor(row, msg.X-inputColumn(s.Layout()))
	}
}

// runTool runs a helper off the update loop. the session only sees the
// output once it comes back as a message.
func (m *Model) runTool(req engine.ToolRequest) tea.Cmd {
	m.pending++
	runner := m.runner
	return func() tea.Msg {
		if runner == nil {
			return toolDoneMsg{req: req}
		}
		return toolDoneMsg{req: req, output: runner.Run(context.Background(), req)}
	}
}
