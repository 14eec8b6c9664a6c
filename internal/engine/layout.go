package engine

import (
	"fmt"
	"strings"
)

// Layout fixes the shape of a grid. the aggregate span is the prefix of cells
// summed into Z; the cells after it form the trailing zone where Z may be
// referenced. the reserved tail is left alone by section imports.
type Layout struct {
	Cells         int
	AggregateSpan int
	ReservedTail  int
	InputWidth    int
	OutputWidth   int
	Precision     int
}

var (
	// Layout14 is the A..N grid, summing A..K
	Layout14 = Layout{Cells: 14, AggregateSpan: 11, ReservedTail: 1, InputWidth: 57, OutputWidth: 23, Precision: 3}

	// Layout20 is the A..T grid, summing A..Q
	Layout20 = Layout{Cells: 20, AggregateSpan: 17, ReservedTail: 1, InputWidth: 57, OutputWidth: 23, Precision: 3}
)

// LayoutFor returns the preset with the given number of cells
func LayoutFor(cells int) (Layout, error) {
	switch cells {
	case 0, Layout14.Cells:
		return Layout14, nil
	case Layout20.Cells:
		return Layout20, nil
	default:
		return Layout{}, fmt.Errorf("unsupported grid size %d, expected %d or %d", cells, Layout14.Cells, Layout20.Cells)
	}
}

// Label returns the label of the cell at index i
func Label(i int) string {
	return string(rune('A' + i))
}

// LabelIndex returns the index of a label, or -1
func LabelIndex(label string) int {
	if len(label) != 1 {
		return -1
	}
	c := label[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return -1
	}
	return int(c - 'A')
}

// Labels returns every label of the layout in order
func (l Layout) Labels() []string {
	labels := make([]string, l.Cells)
	for i := range labels {
		labels[i] = Label(i)
	}
	return labels
}

// Has reports whether label belongs to the layout
func (l Layout) Has(label string) bool {
	i := LabelIndex(label)
	return i >= 0 && i < l.Cells
}

// Editable is the number of leading cells a section import replaces
func (l Layout) Editable() int {
	return l.Cells - l.ReservedTail
}

// InSpan reports whether row is summed into the aggregate
func (l Layout) InSpan(row int) bool {
	return row >= 0 && row < l.AggregateSpan
}

// MaxResultWidth is the widest display string that fits the output column
func (l Layout) MaxResultWidth() int {
	return l.OutputWidth - 3
}

// SpanName renders the aggregate span as "A - K"
func (l Layout) SpanName() string {
	return Label(0) + " - " + Label(l.AggregateSpan-1)
}

// ZoneName renders the trailing zone as "L-N"
func (l Layout) ZoneName() string {
	return Label(l.AggregateSpan) + "-" + Label(l.Cells-1)
}

// ZoneMessage replaces a cell's text when Z is typed inside the span
func (l Layout) ZoneMessage() string {
	return fmt.Sprintf("# Global variable Z is limited to the %s area only", l.ZoneName())
}

func (l Layout) String() string {
	return fmt.Sprintf("%s..%s (sum %s)", Label(0), Label(l.Cells-1), strings.ReplaceAll(l.SpanName(), " ", ""))
}
