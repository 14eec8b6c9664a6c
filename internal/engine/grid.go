package engine

import (
	"iter"
	"strings"
)

// Grid holds the raw text of every cell plus the free-form remark lines shown
// under it
type Grid struct {
	layout  Layout
	cells   []string
	remarks []string
}

// NewGrid creates an empty grid for layout
func NewGrid(layout Layout) *Grid {
	return &Grid{
		layout: layout,
		cells:  make([]string, layout.Cells),
	}
}

// Len returns the number of cells
func (g *Grid) Len() int {
	return len(g.cells)
}

// Cell returns the text at row, or "" when row is out of range
func (g *Grid) Cell(row int) string {
	if row < 0 || row >= len(g.cells) {
		return ""
	}
	return g.cells[row]
}

// SetCell replaces the text at row
func (g *Grid) SetCell(row int, text string) {
	if row < 0 || row >= len(g.cells) {
		return
	}
	g.cells[row] = text
}

// Cells returns the cell texts. callers must not modify the slice.
func (g *Grid) Cells() []string {
	return g.cells
}

// Snapshot returns a copy of the cell texts
func (g *Grid) Snapshot() []string {
	return append([]string(nil), g.cells...)
}

// Restore replaces the cell texts with snapshot
func (g *Grid) Restore(snapshot []string) {
	for i := range g.cells {
		if i < len(snapshot) {
			g.cells[i] = snapshot[i]
		} else {
			g.cells[i] = ""
		}
	}
}

// ClearRange empties cells [from, to)
func (g *Grid) ClearRange(from, to int) {
	for i := max(from, 0); i < min(to, len(g.cells)); i++ {
		g.cells[i] = ""
	}
}

// Load empties the editable cells and fills in every label section defines.
// labels outside the layout are ignored.
func (g *Grid) Load(section map[string]string) {
	g.ClearRange(0, g.layout.Editable())
	for label, text := range section {
		if i := LabelIndex(label); i >= 0 && i < len(g.cells) {
			g.cells[i] = text
		}
	}
}

// Labeled returns every cell keyed by label, empty cells included
func (g *Grid) Labeled() map[string]string {
	out := make(map[string]string, len(g.cells))
	for label, text := range g.Iterate() {
		out[label] = text
	}
	return out
}

// LastNonEmpty returns the index of the last cell with text, or 0
func (g *Grid) LastNonEmpty() int {
	for i := len(g.cells) - 1; i >= 0; i-- {
		if strings.TrimSpace(g.cells[i]) != "" {
			return i
		}
	}
	return 0
}

// Remarks returns the remark lines
func (g *Grid) Remarks() []string {
	return g.remarks
}

// SetRemarks replaces the remark lines
func (g *Grid) SetRemarks(remarks []string) {
	g.remarks = append([]string(nil), remarks...)
}

// Iterate returns an iterator over (label, text) pairs in grid order
func (g *Grid) Iterate() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for i, text := range g.cells {
			if !yield(Label(i), text) {
				return
			}
		}
	}
}

// Span returns an iterator over (row, text) for rows [from, to)
func (g *Grid) Span(from, to int) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i := max(from, 0); i < min(to, len(g.cells)); i++ {
			if !yield(i, g.cells[i]) {
				return
			}
		}
	}
}
