package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// SectionStore is the persistence the session needs. *store.Store satisfies
// it.
type SectionStore interface {
	Reload() error
	Has(name string) bool
	Load(name string) (map[string]string, bool)
	Save(name string, cells map[string]string) error
	Create(base string, clone bool) (string, error)
	Delete(name string) error
	Rename(oldName, newName string) error
	Next(name string, reverse bool) string
	Constants() map[string]string
	Remarks() []string
}

// GridFile is a flat file the grid is saved to instead of a section
type GridFile interface {
	Write(cells, remarks []string) error
}

// ToolKind names an external executable a commit can ask for
type ToolKind uint8

const (
	ToolCalc ToolKind = iota + 1
	ToolRate
)

func (t ToolKind) String() string {
	switch t {
	case ToolCalc:
		return "calc"
	case ToolRate:
		return "rate"
	default:
		return "unknown"
	}
}

// ToolRequest asks the host to run an external tool and report the output
// back through ApplyTool
type ToolRequest struct {
	Row     int
	Tool    ToolKind
	Expr    string
	Section string
}

// Messages written into the current cell when a command cannot run
const (
	MsgImportMissing = "Section not found."
	MsgConstMissing  = "Constant not found."
)

// DefaultSection is the section loaded at startup and by Home
const DefaultSection = "0"

// SessionConfig configures a Session
type SessionConfig struct {
	Store SectionStore

	// File, when set, receives saves instead of the store. Cells and
	// Remarks are its current contents.
	File    GridFile
	Cells   []string
	Remarks []string

	Home            string
	HistoryCapacity int
	Logger          *log.Logger
}

// Session is one interactive editing session: the grid, the cursor, the
// active section and the undo history. Every host event goes through one of
// its methods; none of them recompute, the host calls Recalculate once per
// event. It is not safe for concurrent use.
type Session struct {
	engine  *Engine
	layout  Layout
	grid    *Grid
	history *History
	store   SectionStore
	file    GridFile
	home    string
	logger  *log.Logger

	section string
	row     int
	pos     int
	locked  bool

	results []Result
	agg     Aggregate
	status  string
}

// NewSession creates a session showing the home section, or the file
// contents when a grid file is configured
func NewSession(e *Engine, cfg SessionConfig) *Session {
	s := &Session{
		engine:  e,
		layout:  e.Layout(),
		grid:    NewGrid(e.Layout()),
		history: NewHistory(cfg.HistoryCapacity),
		store:   cfg.Store,
		file:    cfg.File,
		home:    cfg.Home,
		logger:  cfg.Logger,
	}
	if s.home == "" {
		s.home = DefaultSection
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.section = s.home

	if s.store != nil {
		e.SetConstants(s.store.Constants())
		s.grid.SetRemarks(s.store.Remarks())
	}
	if s.file != nil {
		s.grid.Restore(cfg.Cells)
		s.grid.SetRemarks(cfg.Remarks)
	} else if s.store != nil {
		if cells, ok := s.store.Load(s.home); ok {
			s.grid.Load(cells)
		}
	}
	s.Recalculate()
	return s
}

// Recalculate runs one pass over the grid. z in this pass reads the
// aggregate of the previous one.
func (s *Session) Recalculate() {
	s.results, s.agg = s.engine.Recompute(s.grid.Cells(), s.agg)
}

func (s *Session) Engine() *Engine      { return s.engine }
func (s *Session) Layout() Layout       { return s.layout }
func (s *Session) Grid() *Grid          { return s.grid }
func (s *Session) Section() string      { return s.section }
func (s *Session) Row() int             { return s.row }
func (s *Session) Pos() int             { return s.pos }
func (s *Session) Locked() bool         { return s.locked }
func (s *Session) Results() []Result    { return s.results }
func (s *Session) Aggregate() Aggregate { return s.agg }
func (s *Session) History() *History    { return s.history }
func (s *Session) Remarks() []string    { return s.grid.Remarks() }
func (s *Session) Cell(row int) string  { return s.grid.Cell(row) }
func (s *Session) Current() string      { return s.grid.Cell(s.row) }
func (s *Session) HasFile() bool        { return s.file != nil }

// Status returns the last one-shot message for the host, like the save
// banner
func (s *Session) Status() string {
	return s.status
}

// ClearStatus drops the status message once the host has shown it
func (s *Session) ClearStatus() {
	s.status = ""
}

// Insert types c at the cursor. only ASCII is accepted and the cell never
// grows past the input width. z inside the aggregate span is refused with a
// note in the cell.
func (s *Session) Insert(c rune) {
	if s.locked || c > 0x7f || c < 0x20 {
		return
	}
	text := []rune(s.Current())
	if len(text) >= s.layout.InputWidth {
		return
	}

	s.history.Push(s.grid.Snapshot())
	if (c == 'z' || c == 'Z') && s.layout.InSpan(s.row) {
		s.setCurrent(s.layout.ZoneMessage())
		return
	}

	pos := s.clampPos(len(text))
	text = append(text[:pos], append([]rune{c}, text[pos:]...)...)
	s.grid.SetCell(s.row, string(text))
	s.pos = pos + 1
}

// Backspace removes the character before the cursor
func (s *Session) Backspace() {
	text := []rune(s.Current())
	pos := s.clampPos(len(text))
	if s.locked || pos == 0 {
		return
	}
	s.history.Push(s.grid.Snapshot())
	s.grid.SetCell(s.row, string(append(text[:pos-1], text[pos:]...)))
	s.pos = pos - 1
}

// Delete removes the character under the cursor
func (s *Session) Delete() {
	text := []rune(s.Current())
	pos := s.clampPos(len(text))
	if s.locked || pos >= len(text) {
		return
	}
	s.history.Push(s.grid.Snapshot())
	s.grid.SetCell(s.row, string(append(text[:pos], text[pos+1:]...)))
	s.pos = pos
}

// MoveUp moves to the previous row with the cursor at its end. it does not
// wrap.
func (s *Session) MoveUp() {
	if s.locked || s.row == 0 {
		return
	}
	s.row--
	s.endOfLine()
}

// MoveDown moves to the next row with the cursor at its end. it does not
// wrap.
func (s *Session) MoveDown() {
	if s.locked || s.row >= s.grid.Len()-1 {
		return
	}
	s.row++
	s.endOfLine()
}

func (s *Session) MoveLeft() {
	if s.locked {
		return
	}
	s.pos = max(s.clampPos(s.lineLen())-1, 0)
}

func (s *Session) MoveRight() {
	if s.locked {
		return
	}
	s.pos = min(s.pos+1, s.lineLen())
}

func (s *Session) LineStart() {
	if !s.locked {
		s.pos = 0
	}
}

func (s *Session) LineEnd() {
	if !s.locked {
		s.endOfLine()
	}
}

func (s *Session) Top() {
	if s.locked {
		return
	}
	s.row = 0
	s.endOfLine()
}

func (s *Session) Bottom() {
	if s.locked {
		return
	}
	s.row = s.grid.Len() - 1
	s.endOfLine()
}

// SetCursor places the cursor at a clicked row and column. the column is
// clamped to the end of the text.
func (s *Session) SetCursor(row, col int) {
	if s.locked || row < 0 || row >= s.grid.Len() {
		return
	}
	s.row = row
	s.pos = min(max(col, 0), s.lineLen())
}

// Scroll moves the cursor by delta rows, stopping at the first and last row
func (s *Session) Scroll(delta int) {
	if s.locked || delta == 0 {
		return
	}
	s.row = min(max(s.row+delta, 0), s.grid.Len()-1)
	s.endOfLine()
}

// ClearCell empties the current cell
func (s *Session) ClearCell() {
	if s.locked {
		return
	}
	s.history.Push(s.grid.Snapshot())
	s.grid.SetCell(s.row, "")
	s.pos = 0
}

// ClearSpan empties every cell of the aggregate span and returns to the top
func (s *Session) ClearSpan() {
	if s.locked {
		return
	}
	s.history.Push(s.grid.Snapshot())
	s.grid.ClearRange(0, s.layout.AggregateSpan)
	s.row, s.pos = 0, 0
}

// DuplicateDown copies a non-empty cell into the row below and moves there
func (s *Session) DuplicateDown() {
	if s.locked || strings.TrimSpace(s.Current()) == "" || s.row >= s.grid.Len()-1 {
		return
	}
	s.history.Push(s.grid.Snapshot())
	s.grid.SetCell(s.row+1, s.Current())
	s.row++
	s.endOfLine()
}

// Undo restores the most recent snapshot and puts the cursor at the end of
// the last non-empty cell. an empty history is a no-op.
func (s *Session) Undo() {
	if s.locked {
		return
	}
	snapshot, ok := s.history.Pop()
	if !ok {
		return
	}
	s.grid.Restore(snapshot)
	s.row = s.grid.LastNonEmpty()
	s.endOfLine()
}

// ToggleLock switches between editing and read-only
func (s *Session) ToggleLock() {
	s.locked = !s.locked
}

// NextSection loads the section after the active one, or before it when
// reverse is set
func (s *Session) NextSection(reverse bool) {
	if s.store == nil {
		return
	}
	s.refresh()
	name := s.store.Next(s.section, reverse)
	if cells, ok := s.store.Load(name); ok {
		s.switchTo(name, cells)
	}
}

// Home loads the home section
func (s *Session) Home() {
	if s.locked || s.store == nil {
		return
	}
	s.refresh()
	cells, _ := s.store.Load(s.home)
	s.switchTo(s.home, cells)
}

// Clone copies the active section under a new name and loads the copy
func (s *Session) Clone() {
	if s.locked || s.store == nil {
		return
	}
	if err := s.create(true); err != nil {
		s.status = userMessage(err)
	}
}

// Save writes the grid to the grid file, or merges it into the active
// section. a failure leaves the grid untouched and is reported in the
// status.
func (s *Session) Save() error {
	var err error
	if s.file != nil {
		err = s.file.Write(s.grid.Snapshot(), s.grid.Remarks())
	} else if s.store != nil {
		err = s.store.Save(s.section, s.grid.Labeled())
	}
	if err != nil {
		s.logger.Printf("session: save %q: %v", s.section, err)
		s.status = "Save failed: " + err.Error()
		return err
	}
	s.status = fmt.Sprintf("Saved -> Section: [%s]", s.section)
	return nil
}

// Commit handles Enter on the current cell. commands, imports and constants
// run immediately; external tools are returned for the host to run. any
// other text moves the cursor to the next row, wrapping to the top.
func (s *Session) Commit() *ToolRequest {
	if s.locked {
		return nil
	}
	d := s.engine.Classify(s.Current())

	switch d.Kind {
	case KindCommand:
		return s.command(d)
	case KindImport:
		s.importSection(d.Arg)
		return nil
	case KindConstant:
		if value, ok := s.engine.Constant(d.Arg); ok {
			s.message(value)
		} else {
			s.message(MsgConstMissing)
		}
		return nil
	case KindExternalCalc:
		return &ToolRequest{Row: s.row, Tool: ToolCalc, Expr: d.Arg, Section: s.section}
	}

	s.row = (s.row + 1) % s.grid.Len()
	s.endOfLine()
	return nil
}

// ApplyTool writes the output of a finished tool into the cell that asked for
// it. output from a request made in another section is dropped.
func (s *Session) ApplyTool(req ToolRequest, output string) {
	if req.Section != s.section || req.Row < 0 || req.Row >= s.grid.Len() {
		s.logger.Printf("session: dropping %s output for %s row %d", req.Tool, req.Section, req.Row)
		return
	}
	s.history.Push(s.grid.Snapshot())
	s.grid.SetCell(req.Row, output)
	if s.row == req.Row {
		s.endOfLine()
	}
}

func (s *Session) command(d Directive) *ToolRequest {
	switch d.Command {
	case CommandRate:
		return &ToolRequest{Row: s.row, Tool: ToolRate, Section: s.section}
	case CommandClear:
		s.history.Push(s.grid.Snapshot())
		s.grid.ClearRange(0, s.grid.Len())
		s.row, s.pos = 0, 0
		return nil
	}

	if s.store == nil {
		s.message(MsgImportMissing)
		return nil
	}

	var err error
	switch d.Command {
	case CommandRename:
		name := ""
		if fields := strings.Fields(d.Arg); len(fields) > 0 {
			name = fields[0]
		}
		if err = s.store.Rename(s.section, name); err == nil {
			cells, _ := s.store.Load(name)
			s.switchTo(name, cells)
		}
	case CommandNew:
		err = s.create(false)
	case CommandClone:
		err = s.create(true)
	case CommandDelete:
		if err = s.store.Delete(s.section); err == nil {
			cells, _ := s.store.Load(s.home)
			s.switchTo(s.home, cells)
		}
	}
	if err != nil {
		s.logger.Printf("session: %q in section %q: %v", s.Current(), s.section, err)
		s.message(userMessage(err))
	}
	return nil
}

func (s *Session) importSection(name string) {
	if s.store == nil {
		s.message(MsgImportMissing)
		return
	}
	s.refresh()
	cells, ok := s.store.Load(name)
	if !ok {
		s.message(MsgImportMissing)
		return
	}
	row := s.row
	s.switchTo(name, cells)
	s.row = row
	s.endOfLine()
}

func (s *Session) create(clone bool) error {
	name, err := s.store.Create(s.section, clone)
	if err != nil {
		return err
	}
	cells, _ := s.store.Load(name)
	s.switchTo(name, cells)
	return nil
}

// refresh picks up edits made to the store outside the program. a broken
// file keeps the previous contents.
func (s *Session) refresh() {
	if err := s.store.Reload(); err != nil {
		s.logger.Printf("session: reload: %v", err)
		s.status = "Reload failed: " + err.Error()
		return
	}
	s.engine.SetConstants(s.store.Constants())
	// a grid file carries its own remarks
	if s.file == nil {
		s.grid.SetRemarks(s.store.Remarks())
	}
}

// switchTo loads a section. undo does not cross sections.
func (s *Session) switchTo(name string, cells map[string]string) {
	s.grid.Load(cells)
	s.section = name
	s.row, s.pos = 0, 0
	s.history.Clear()
}

// message replaces the current cell's text
func (s *Session) message(text string) {
	s.history.Push(s.grid.Snapshot())
	s.setCurrent(text)
}

func (s *Session) setCurrent(text string) {
	s.grid.SetCell(s.row, text)
	s.endOfLine()
}

func (s *Session) endOfLine() {
	s.pos = s.lineLen()
}

func (s *Session) lineLen() int {
	return len([]rune(s.Current()))
}

func (s *Session) clampPos(n int) int {
	return min(max(s.pos, 0), n)
}

func userMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
