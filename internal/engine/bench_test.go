package engine

import (
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/vogtb/gridcalc/internal/arith"
)

func quietEngine(layout Layout, opts ...Option) *Engine {
	return New(layout, append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)...)
}

func BenchmarkRecomputeChain(b *testing.B) {
	e := quietEngine(Layout20)
	cells := make([]string, Layout20.Cells)
	cells[0] = "1"
	for i := 1; i < len(cells); i++ {
		cells[i] = fmt.Sprintf("%s*2+1", Label(i-1))
	}

	var agg Aggregate
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, agg = e.Recompute(cells, agg)
	}
}

func BenchmarkRecomputeEquations(b *testing.B) {
	e := quietEngine(Layout14)
	cells := make([]string, Layout14.Cells)
	for i := range cells {
		cells[i] = fmt.Sprintf("x*%d+%d=%d", i+1, i, 100*(i+1))
	}

	var agg Aggregate
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, agg = e.Recompute(cells, agg)
	}
}

func BenchmarkRecomputeWithoutCache(b *testing.B) {
	evaluator := arith.NewEvaluatorWithFunctions(arith.NewDefaultBuiltInFunctions(), 0)
	e := quietEngine(Layout14, WithEvaluator(evaluator))
	cells := make([]string, Layout14.Cells)
	for i := range cells {
		cells[i] = fmt.Sprintf("sqrt(%d)*pi()+round(%d/7, 2) # row %d", i+1, i*10, i)
	}

	var agg Aggregate
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, agg = e.Recompute(cells, agg)
	}
}

func BenchmarkSessionTyping(b *testing.B) {
	e := quietEngine(Layout14)
	s := NewSession(e, SessionConfig{Logger: log.New(io.Discard, "", 0)})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.ClearCell()
		for _, c := range "12*(3+4)/5" {
			s.Insert(c)
			s.Recalculate()
		}
	}
}
