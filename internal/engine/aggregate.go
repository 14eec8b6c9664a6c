package engine

import (
	"gonum.org/v1/gonum/floats"
)

// Aggregate is the sum and count of the numeric results in the aggregate
// span. it is computed after a pass and read by the next one through z.
type Aggregate struct {
	Sum   float64
	Count int
}

// Average returns Sum/Count, or 0 when nothing was counted
func (a Aggregate) Average() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// Collect sums the display values of the first span results that parse as
// numbers. placeholders, errors and empty cells are skipped.
func Collect(results []Result, span int) Aggregate {
	values := make([]float64, 0, span)
	for i, r := range results {
		if i >= span {
			break
		}
		if r.Failed() || r.Display == "" {
			continue
		}
		v, err := ParseDisplay(r.Display)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return Aggregate{Sum: floats.Sum(values), Count: len(values)}
}
