package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/vogtb/gridcalc/internal/engine"
)

const footerText = " rate | fc.sec | cst.key | s:expr | clear | new | delete | clone | rename "

// inputColumn is the screen column of the first input character: the label,
// ": [", the output column and "] = [".
func inputColumn(l engine.Layout) int {
	return l.OutputWidth + 9
}

func (m *Model) View() string {
	s := m.session
	layout := s.Layout()
	lines := make([]string, 0, layout.Cells+12)

	title := " gridcalc"
	if m.version != "" {
		title += " " + m.version
	}
	lines = append(lines, m.styles.Title.Render(title+" "), "")
	lines = append(lines, m.styles.Header.Render(fmt.Sprintf("<- %s ->", s.Section())))

	results := s.Results()
	for row := 0; row < s.Grid().Len(); row++ {
		var r engine.Result
		if row < len(results) {
			r = results[row]
		}
		lines = append(lines, m.cellLine(row, r))
	}

	agg := s.Aggregate()
	formatter := s.Engine().Formatter()
	indent := strings.Repeat(" ", 13)
	lines = append(lines, "",
		indent+m.styles.Summary.Render(fmt.Sprintf("(%s) Sum = Z = %s", layout.SpanName(), formatter.Format(agg.Sum))),
		indent+m.styles.Summary.Render(fmt.Sprintf("(%s) Average = %s", layout.SpanName(), formatter.Format(agg.Average()))),
		"",
	)

	if m.banner != "" {
		lines = append(lines, m.styles.Saved.Render(m.banner))
	} else {
		lines = append(lines, m.styles.Saved.Render(fmt.Sprintf("Recalculate & Save to -> Section: [%s]", s.Section())))
	}
	if m.pending > 0 {
		lines = append(lines, m.styles.Remark.Render("running helper..."))
	}

	lines = append(lines, m.styles.Footer.Render(footerText))
	if s.Locked() {
		lines = append(lines, m.styles.Locked.Render("Status = Locked (F4 Status Switch)"))
	} else {
		lines = append(lines, m.styles.Opened.Render("Status = Opened (F4 Status Switch)"))
	}
	lines = append(lines, m.help.View(m.keys))

	for _, remark := range s.Remarks() {
		if remark == "" {
			continue
		}
		lines = append(lines, m.styles.Remark.Render(remark))
	}

	if m.width > 0 {
		for i, line := range lines {
			lines[i] = ansi.Truncate(line, m.width, "")
		}
	}
	if m.height > 0 && len(lines) > m.height {
		lines = lines[:m.height]
	}
	return strings.Join(lines, "\n")
}

// cellLine renders "A: [result] = [input]"
func (m *Model) cellLine(row int, r engine.Result) string {
	s := m.session
	layout := s.Layout()
	style := m.rowStyle(row, r)

	display := r.Display
	if lipgloss.Width(display) > layout.OutputWidth {
		display = ansi.Truncate(display, layout.OutputWidth, "")
	}
	prefix := fmt.Sprintf("%s: [%*s] = [", engine.Label(row), layout.OutputWidth, display)

	input := []rune(s.Cell(row))
	if len(input) > layout.InputWidth {
		input = input[:layout.InputWidth]
	}
	if row != s.Row() || s.Locked() {
		text := string(input) + strings.Repeat(" ", layout.InputWidth-len(input))
		return style.Render(prefix + text + "]")
	}

	pos := min(s.Pos(), len(input))
	under := " "
	after := ""
	if pos < len(input) {
		under = string(input[pos])
		after = string(input[pos+1:])
	}
	pad := layout.InputWidth - len(input) - 1
	if pos < len(input) {
		pad = layout.InputWidth - len(input)
	}
	return style.Render(prefix+string(input[:pos])) +
		m.styles.Cursor.Render(under) +
		style.Render(after+strings.Repeat(" ", max(pad, 0))+"]")
}

func (m *Model) rowStyle(row int, r engine.Result) lipgloss.Style {
	s := m.session
	inZone := !s.Layout().InSpan(row)
	switch {
	case r.Failed():
		return m.styles.Error
	case r.Kind == engine.KindImport:
		return m.styles.Directive
	case row == s.Row() && !s.Locked():
		return m.styles.Current
	case row == s.Row() && !inZone:
		return m.styles.Current
	case inZone:
		return m.styles.Zone
	}
	return m.styles.Normal
}
