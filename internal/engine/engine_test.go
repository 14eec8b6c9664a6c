package engine

import (
	"io"
	"log"
	"math"
	"testing"
)

type EngineTestCase struct {
	t       *testing.T
	name    string
	engine  *Engine
	cells   []string
	prev    Aggregate
	results []Result
	agg     Aggregate
	skipped bool
}

func NewEngineTestCase(t *testing.T, name string) *EngineTestCase {
	return NewEngineTestCaseWithLayout(t, name, Layout14)
}

func NewEngineTestCaseWithLayout(t *testing.T, name string, layout Layout) *EngineTestCase {
	return &EngineTestCase{
		t:      t,
		name:   name,
		engine: New(layout, WithLogger(log.New(io.Discard, "", 0))),
		cells:  make([]string, layout.Cells),
	}
}

func (tc *EngineTestCase) Skip(reason string) *EngineTestCase {
	if !tc.skipped {
		tc.t.Skipf("%s: %s", tc.name, reason)
		tc.skipped = true
	}
	return tc
}

func (tc *EngineTestCase) WithConstants(constants map[string]string) *EngineTestCase {
	tc.engine.SetConstants(constants)
	return tc
}

func (tc *EngineTestCase) Set(label, text string) *EngineTestCase {
	if tc.skipped {
		return tc
	}
	i := LabelIndex(label)
	if i < 0 || i >= len(tc.cells) {
		tc.t.Fatalf("%s: Set(%s): label outside the grid", tc.name, label)
	}
	tc.cells[i] = text
	return tc
}

// Run evaluates one pass. the aggregate of the pass becomes z for the next.
func (tc *EngineTestCase) Run() *EngineTestCase {
	if tc.skipped {
		return tc
	}
	tc.results, tc.agg = tc.engine.Recompute(tc.cells, tc.prev)
	tc.prev = tc.agg
	return tc
}

func (tc *EngineTestCase) result(label string) (Result, bool) {
	i := LabelIndex(label)
	if tc.results == nil {
		tc.t.Errorf("%s: no results for %s, call Run first", tc.name, label)
		return Result{}, false
	}
	if i < 0 || i >= len(tc.results) {
		tc.t.Errorf("%s: no result for %s", tc.name, label)
		return Result{}, false
	}
	return tc.results[i], true
}

func (tc *EngineTestCase) AssertDisplay(label, expected string) *EngineTestCase {
	if tc.skipped {
		return tc
	}
	if r, ok := tc.result(label); ok && r.Display != expected {
		tc.t.Errorf("%s: Cell %s = %q (err %v), want %q", tc.name, label, r.Display, r.Err, expected)
	}
	return tc
}

func (tc *EngineTestCase) AssertValue(label string, expected float64) *EngineTestCase {
	if tc.skipped {
		return tc
	}
	r, ok := tc.result(label)
	if !ok {
		return tc
	}
	if !r.Numeric {
		tc.t.Errorf("%s: Cell %s = %q is not numeric, want %v", tc.name, label, r.Display, expected)
	} else if math.Abs(r.Value-expected) > 1e-9 {
		tc.t.Errorf("%s: Cell %s = %v, want %v", tc.name, label, r.Value, expected)
	}
	return tc
}

func (tc *EngineTestCase) AssertErr(label string, code CellErrorCode) *EngineTestCase {
	if tc.skipped {
		return tc
	}
	r, ok := tc.result(label)
	if !ok {
		return tc
	}
	if r.Err == nil {
		tc.t.Errorf("%s: Cell %s = %q, want error %d", tc.name, label, r.Display, code)
		return tc
	}
	if r.Err.Code != code {
		tc.t.Errorf("%s: Cell %s has error %d (%v), want %d", tc.name, label, r.Err.Code, r.Err, code)
	}
	if r.Display != ErrorDisplay {
		tc.t.Errorf("%s: Cell %s shows %q, want %q", tc.name, label, r.Display, ErrorDisplay)
	}
	return tc
}

func (tc *EngineTestCase) AssertKind(label string, kind Kind) *EngineTestCase {
	if tc.skipped {
		return tc
	}
	if r, ok := tc.result(label); ok && r.Kind != kind {
		tc.t.Errorf("%s: Cell %s kind = %v, want %v", tc.name, label, r.Kind, kind)
	}
	return tc
}

func (tc *EngineTestCase) AssertAggregate(sum float64, count int) *EngineTestCase {
	if tc.skipped {
		return tc
	}
	if math.Abs(tc.agg.Sum-sum) > 1e-9 || tc.agg.Count != count {
		tc.t.Errorf("%s: aggregate = %+v, want sum %v count %d", tc.name, tc.agg, sum, count)
	}
	return tc
}

func (tc *EngineTestCase) End() {
}

func TestExpressions(t *testing.T) {
	t.Run("Arithmetic", func(t *testing.T) {
		NewEngineTestCase(t, "Addition").
			Set("A", "1+2").
			Run().
			AssertDisplay("A", "3").
			AssertKind("A", KindExpression).
			End()

		NewEngineTestCase(t, "Whitespace").
			Set("A", "  1 +  2 ").
			Run().
			AssertDisplay("A", "3").
			End()

		NewEngineTestCase(t, "Float division").
			Set("A", "7/2").
			Set("B", "1/3").
			Set("C", "2/3").
			Run().
			AssertDisplay("A", "3.5").
			AssertDisplay("B", "0.333").
			AssertDisplay("C", "0.667").
			End()

		NewEngineTestCase(t, "Float noise").
			Set("A", "0.1+0.2").
			Run().
			AssertDisplay("A", "0.3").
			End()

		NewEngineTestCase(t, "Grouping").
			Set("A", "1234567").
			Set("B", "-1234.5").
			Run().
			AssertDisplay("A", "1,234,567").
			AssertDisplay("B", "-1,234.5").
			End()

		NewEngineTestCase(t, "Functions").
			Set("A", "sqrt(16)+abs(-2)").
			Set("B", "max(1, 5, 3)").
			Run().
			AssertDisplay("A", "6").
			AssertDisplay("B", "5").
			End()
	})

	t.Run("Comments", func(t *testing.T) {
		NewEngineTestCase(t, "Trailing comment").
			Set("A", "2+3 # five").
			Run().
			AssertDisplay("A", "5").
			End()

		NewEngineTestCase(t, "Comment only").
			Set("A", "# just a note").
			Run().
			AssertDisplay("A", "").
			AssertKind("A", KindEmpty).
			End()
	})

	t.Run("Percent", func(t *testing.T) {
		NewEngineTestCase(t, "Literal percent").
			Set("A", "50%").
			Set("B", "200*10%").
			Set("C", "12.5%").
			Run().
			AssertDisplay("A", "0.5").
			AssertDisplay("B", "20").
			AssertDisplay("C", "0.125").
			End()

		NewEngineTestCase(t, "Number after percent").
			Set("A", "50%2").
			Set("B", "10%3").
			Run().
			AssertDisplay("A", "0.6").
			AssertDisplay("B", "0.13").
			End()

		NewEngineTestCase(t, "Modulo after group").
			Set("A", "(10)%3").
			Run().
			AssertDisplay("A", "1").
			End()
	})

	t.Run("Errors", func(t *testing.T) {
		NewEngineTestCase(t, "Syntax").
			Set("A", "1+").
			Run().
			AssertErr("A", CellErrorEval).
			End()

		NewEngineTestCase(t, "Division by zero").
			Set("A", "1/0").
			Run().
			AssertErr("A", CellErrorEval).
			End()

		NewEngineTestCase(t, "Too wide").
			Set("A", "10^20").
			Run().
			AssertErr("A", CellErrorOverflow).
			End()

		NewEngineTestCase(t, "Widest that fits").
			Set("A", "10^14").
			Run().
			AssertDisplay("A", "100,000,000,000,000").
			End()
	})
}

func TestReferences(t *testing.T) {
	t.Run("Bindings", func(t *testing.T) {
		NewEngineTestCase(t, "Chain").
			Set("A", "10").
			Set("B", "a*2").
			Set("C", "B/3").
			Run().
			AssertDisplay("B", "20").
			AssertDisplay("C", "6.667").
			End()

		NewEngineTestCase(t, "Grouped value").
			Set("A", "1000*1000").
			Set("B", "a+1").
			Run().
			AssertDisplay("A", "1,000,000").
			AssertDisplay("B", "1,000,001").
			End()

		NewEngineTestCase(t, "Rounded value is what later cells see").
			Set("A", "1/3").
			Set("B", "a*3").
			Run().
			AssertDisplay("B", "0.999").
			End()

		NewEngineTestCase(t, "Negative value").
			Set("A", "-2").
			Set("B", "a^2").
			Run().
			AssertDisplay("B", "4").
			End()

		NewEngineTestCase(t, "Labels inside function names").
			Set("A", "4").
			Set("B", "abs(a)+sqrt(a)").
			Run().
			AssertDisplay("B", "6").
			End()
	})

	t.Run("ForwardOnly", func(t *testing.T) {
		NewEngineTestCase(t, "Reference below").
			Set("A", "b+1").
			Set("B", "2").
			Run().
			AssertErr("A", CellErrorEval).
			AssertDisplay("B", "2").
			End()
	})

	t.Run("FailedCellsAreUnbound", func(t *testing.T) {
		NewEngineTestCase(t, "Error upstream").
			Set("A", "1/0").
			Set("B", "a+1").
			Run().
			AssertErr("A", CellErrorEval).
			AssertErr("B", CellErrorEval).
			End()

		NewEngineTestCase(t, "Directive upstream").
			Set("A", "fc.budget").
			Set("B", "a+1").
			Run().
			AssertErr("B", CellErrorEval).
			End()
	})

	t.Run("SelfReference", func(t *testing.T) {
		NewEngineTestCase(t, "Own label").
			Set("A", "a").
			Set("C", " C ").
			Run().
			AssertErr("A", CellErrorSelfReference).
			AssertErr("C", CellErrorSelfReference).
			End()
	})
}

func TestEquations(t *testing.T) {
	t.Run("Linear", func(t *testing.T) {
		NewEngineTestCase(t, "Solve for x").
			Set("A", "2*x+4=10").
			Run().
			AssertDisplay("A", "3").
			AssertKind("A", KindEquation).
			End()

		NewEngineTestCase(t, "Upper case unknown").
			Set("A", "2 * X = 8").
			Run().
			AssertDisplay("A", "4").
			End()

		NewEngineTestCase(t, "Division").
			Set("A", "x/4=2").
			Run().
			AssertDisplay("A", "8").
			End()

		NewEngineTestCase(t, "Right side read at zero").
			Set("A", "x=2*x-3").
			Run().
			AssertDisplay("A", "-3").
			End()

		NewEngineTestCase(t, "With bindings").
			Set("A", "100").
			Set("B", "x*a=250").
			Run().
			AssertDisplay("B", "2.5").
			End()

		NewEngineTestCase(t, "Percent").
			Set("A", "x*20%=50").
			Run().
			AssertDisplay("A", "250").
			End()
	})

	t.Run("Balance", func(t *testing.T) {
		NewEngineTestCase(t, "Balanced").
			Set("A", "2+2=4").
			Run().
			AssertDisplay("A", "4").
			End()

		NewEngineTestCase(t, "Unbalanced").
			Set("A", "1+1=3").
			Run().
			AssertErr("A", CellErrorUnbalanced).
			End()
	})

	t.Run("Invalid", func(t *testing.T) {
		NewEngineTestCase(t, "Zero coefficient").
			Set("A", "x-x=1").
			Run().
			AssertErr("A", CellErrorNotLinear).
			End()

		NewEngineTestCase(t, "Unknown on the right only").
			Set("A", "10=x+4").
			Set("B", "5=2*x+1").
			Run().
			AssertErr("A", CellErrorNotLinear).
			AssertErr("B", CellErrorNotLinear).
			End()

		NewEngineTestCase(t, "Two equals signs").
			Set("A", "x=1=2").
			Run().
			AssertErr("A", CellErrorFormat).
			End()

		NewEngineTestCase(t, "Comment equals sign ignored").
			Set("A", "1+1 # a=b").
			Run().
			AssertDisplay("A", "2").
			AssertKind("A", KindExpression).
			End()
	})
}

func TestDirectives(t *testing.T) {
	NewEngineTestCase(t, "Placeholders").
		WithConstants(map[string]string{"k": "1000.0 # Thousand"}).
		Set("A", "fc.budget").
		Set("B", "s:sqrt(2)").
		Set("C", "cst.k").
		Set("E", "new").
		Set("F", "rename foo").
		Run().
		AssertDisplay("A", ImportPlaceholder).
		AssertKind("A", KindImport).
		AssertDisplay("B", ExternalPlaceholder).
		AssertDisplay("C", ConstPlaceholder).
		AssertKind("C", KindConstant).
		AssertErr("E", CellErrorCommand).
		AssertErr("F", CellErrorCommand).
		AssertAggregate(0, 0).
		End()

	NewEngineTestCase(t, "Bare constant key is a label until commit").
		WithConstants(map[string]string{"k": "1000.0 # Thousand", "vat": "x*1.2"}).
		Set("K", "7").
		Set("L", "k").
		Set("M", "l+1").
		Set("N", "vat").
		Run().
		AssertDisplay("L", "7").
		AssertKind("L", KindExpression).
		AssertDisplay("M", "8").
		AssertErr("N", CellErrorEval).
		End()
}

func TestAggregate(t *testing.T) {
	t.Run("SumAndCount", func(t *testing.T) {
		NewEngineTestCase(t, "Span only").
			Set("A", "10").
			Set("B", "20").
			Set("C", "1/0").
			Set("D", "fc.x").
			Set("L", "1000").
			Run().
			AssertAggregate(30, 2).
			End()

		NewEngineTestCase(t, "Grouped values").
			Set("A", "1000").
			Set("K", "2000.5").
			Run().
			AssertAggregate(3000.5, 2).
			End()
	})

	t.Run("OnePassStale", func(t *testing.T) {
		tc := NewEngineTestCase(t, "z reads the previous pass").
			Set("A", "10").
			Set("B", "20").
			Set("L", "z").
			Set("M", "z/2").
			Set("N", "x=z+1").
			Run().
			AssertDisplay("L", "0").
			AssertDisplay("M", "0").
			AssertDisplay("N", "1")
		tc.Run().
			AssertDisplay("L", "30").
			AssertDisplay("M", "15").
			AssertDisplay("N", "31").
			AssertAggregate(30, 2).
			End()
	})

	t.Run("ZInsideSpan", func(t *testing.T) {
		NewEngineTestCase(t, "Bare z is zero").
			Set("A", "5").
			Set("B", "z").
			Run().
			Run().
			AssertDisplay("B", "0").
			AssertAggregate(5, 2).
			End()
	})
}

func TestWideLayout(t *testing.T) {
	NewEngineTestCaseWithLayout(t, "20 cells", Layout20).
		Set("A", "1").
		Set("Q", "2").
		Set("R", "q*10").
		Set("T", "z").
		Run().
		Run().
		AssertDisplay("R", "20").
		AssertDisplay("T", "3").
		AssertAggregate(3, 2).
		End()
}

func TestAverage(t *testing.T) {
	if got := (Aggregate{}).Average(); got != 0 {
		t.Errorf("empty average = %v, want 0", got)
	}
	if got := (Aggregate{Sum: 30, Count: 2}).Average(); got != 15 {
		t.Errorf("average = %v, want 15", got)
	}
}
