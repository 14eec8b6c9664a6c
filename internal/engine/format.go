package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// GroupSeparator is the thousands separator used in display values
const GroupSeparator = ","

// Formatter renders numbers for the output column
type Formatter struct {
	precision int
	decimal   string
	printer   *message.Printer
}

// NewFormatter creates a formatter showing at most precision decimal places
func NewFormatter(precision int) *Formatter {
	if precision < 0 {
		precision = 0
	}
	return &Formatter{
		precision: precision,
		decimal:   fmt.Sprintf("%%.%df", precision),
		printer:   message.NewPrinter(language.English),
	}
}

// Precision returns the configured number of decimal places
func (f *Formatter) Precision() int {
	return f.precision
}

// Format renders v with thousands grouping. exact integers have no decimal
// part; other values are rounded to the precision and lose trailing zeros.
func (f *Formatter) Format(v float64) string {
	var s string
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		s = f.printer.Sprintf("%d", int64(v))
	} else {
		s = f.printer.Sprintf(f.decimal, v)
		if strings.Contains(s, ".") {
			s = strings.TrimRight(s, "0")
			s = strings.TrimSuffix(s, ".")
		}
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// StripSeparators removes grouping separators from a display value
func StripSeparators(display string) string {
	return strings.ReplaceAll(display, GroupSeparator, "")
}

// ParseDisplay reads a display value back into a number. comments and
// grouping separators are ignored.
func ParseDisplay(display string) (float64, error) {
	s := strings.TrimSpace(StripSeparators(StripComment(display)))
	return strconv.ParseFloat(s, 64)
}
