// Package engine evaluates a grid of labeled calculator cells.
//
// Each cell holds a short formula. A recompute walks the cells top to bottom,
// substituting the values of earlier cells into later ones, solving linear
// equations in x and summing the leading span of cells into an aggregate that
// later passes read back through the z variable.
package engine

import (
	"errors"
	"log"
	"math"
	"strings"

	"github.com/vogtb/gridcalc/internal/arith"
)

const (
	// VarUnknown is the unknown solved for in equations
	VarUnknown = "x"

	// VarAggregate reads the aggregate of the previous pass
	VarAggregate = "z"

	// balanceTolerance is the relative difference under which both sides of
	// an equation without x count as equal
	balanceTolerance = 1e-9
)

// Engine evaluates cells for a fixed layout. It is not safe for concurrent
// use; the host drives it from a single loop.
type Engine struct {
	layout    Layout
	formatter *Formatter
	resolver  *Resolver
	evaluator *arith.Evaluator
	constants map[string]string
	logger    *log.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithConstants sets the constant table used to classify bare keywords
func WithConstants(constants map[string]string) Option {
	return func(e *Engine) {
		e.SetConstants(constants)
	}
}

// WithEvaluator replaces the arithmetic evaluator
func WithEvaluator(evaluator *arith.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = evaluator
	}
}

// WithLogger sets the logger used for evaluation traces
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine for layout
func New(layout Layout, opts ...Option) *Engine {
	e := &Engine{
		layout:    layout,
		formatter: NewFormatter(layout.Precision),
		resolver:  NewResolver(layout.Labels()),
		evaluator: arith.NewEvaluator(),
		constants: map[string]string{},
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Layout returns the engine's layout
func (e *Engine) Layout() Layout {
	return e.layout
}

// Formatter returns the engine's value formatter
func (e *Engine) Formatter() *Formatter {
	return e.formatter
}

// SetConstants replaces the constant table. keys are matched lower-cased.
func (e *Engine) SetConstants(constants map[string]string) {
	e.constants = make(map[string]string, len(constants))
	for k, v := range constants {
		e.constants[strings.ToLower(k)] = v
	}
}

// Constant looks up a constant by key
func (e *Engine) Constant(key string) (string, bool) {
	v, ok := e.constants[strings.ToLower(key)]
	return v, ok
}

// Classify classifies text against the engine's constant table. it is the
// commit-time view: a bare keyword naming a constant is a constant lookup.
func (e *Engine) Classify(text string) Directive {
	return Classify(text, e.constants)
}

// Recompute evaluates every cell once, top to bottom, and returns the results
// together with the aggregate of this pass. prev is the aggregate of the
// previous pass; it is what z evaluates to.
func (e *Engine) Recompute(cells []string, prev Aggregate) ([]Result, Aggregate) {
	results := make([]Result, len(cells))
	bindings := make(Bindings, len(cells))

	for row, text := range cells {
		r := e.Evaluate(row, text, bindings, prev)
		results[row] = r
		if r.Numeric && !r.Failed() {
			bindings[strings.ToLower(r.Label)] = r.Display
		}
	}

	return results, Collect(results, e.layout.AggregateSpan)
}

// Evaluate computes a single cell at row against the bindings of the cells
// above it
func (e *Engine) Evaluate(row int, text string, bindings Bindings, prev Aggregate) Result {
	label := Label(row)
	// bare constant keywords are only looked up on commit. until then they
	// read as expressions, so a key like k still refers to cell K.
	d := Classify(text, nil)
	r := Result{Label: label, Kind: d.Kind}

	switch d.Kind {
	case KindEmpty:
		return r
	case KindImport:
		r.Display = ImportPlaceholder
		return r
	case KindExternalCalc:
		r.Display = ExternalPlaceholder
		return r
	case KindConstant:
		r.Display = ConstPlaceholder
		return r
	case KindCommand:
		return e.fail(r, NewCellError(CellErrorCommand, "command runs on commit", nil))
	}

	body := Compact(StripComment(text))
	if body == "" {
		r.Kind = KindEmpty
		return r
	}

	// z on its own inside the span would sum itself
	if e.layout.InSpan(row) && strings.EqualFold(body, VarAggregate) {
		r.Kind = KindExpression
		return e.succeed(r, 0)
	}

	var (
		v   float64
		err error
	)
	if d.Kind == KindEquation {
		v, err = e.solve(body, label, bindings, prev)
	} else {
		v, err = e.expression(body, label, bindings, prev)
	}
	if err != nil {
		return e.fail(r, err)
	}
	return e.succeed(r, v)
}

func (e *Engine) succeed(r Result, v float64) Result {
	display := e.formatter.Format(v)
	if len(display) > e.layout.MaxResultWidth() {
		return e.fail(r, NewCellError(CellErrorOverflow, "result too wide: "+display, nil))
	}
	r.Display = display
	r.Value = v
	r.Numeric = true
	return r
}

func (e *Engine) fail(r Result, err error) Result {
	var cellErr *CellError
	if !errors.As(err, &cellErr) {
		cellErr = NewCellError(CellErrorEval, "", err)
	}
	r.Err = cellErr
	r.Display = ErrorDisplay
	r.Numeric = false
	return r
}

// prepare substitutes bindings and applies the division and percent rewrites
func (e *Engine) prepare(expr, self string, bindings Bindings) (string, error) {
	resolved, err := e.resolver.Resolve(expr, self, bindings)
	if err != nil {
		return "", err
	}
	return RewritePercent(RewriteDivision(resolved)), nil
}

func (e *Engine) expression(body, self string, bindings Bindings, prev Aggregate) (float64, error) {
	expr, err := e.prepare(body, self, bindings)
	if err != nil {
		return 0, err
	}
	return e.evaluator.Eval(expr, map[string]float64{VarAggregate: prev.Sum})
}

// solve handles "lhs = rhs". without x both sides must agree and the left
// side is the result. with x, the left side is sampled at 0 and 1 and the
// right side at 0, giving x = (R0 - L0) / (L1 - L0). only the left side
// carries the coefficient, so x on the right alone is a zero coefficient.
// non-linear input is not detected.
func (e *Engine) solve(body, self string, bindings Bindings, prev Aggregate) (float64, error) {
	sides := strings.Split(body, "=")
	if len(sides) != 2 {
		return 0, NewCellError(CellErrorFormat, "expected exactly one '='", nil)
	}

	lhs, err := e.prepare(sides[0], self, bindings)
	if err != nil {
		return 0, err
	}
	rhs, err := e.prepare(sides[1], self, bindings)
	if err != nil {
		return 0, err
	}

	if !mentionsUnknown(lhs) && !mentionsUnknown(rhs) {
		vars := map[string]float64{VarAggregate: prev.Sum}
		l, err := e.evaluator.Eval(lhs, vars)
		if err != nil {
			return 0, err
		}
		r, err := e.evaluator.Eval(rhs, vars)
		if err != nil {
			return 0, err
		}
		if !balanced(l, r) {
			return 0, NewCellError(CellErrorUnbalanced, MsgUnbalanced, nil)
		}
		return l, nil
	}

	left := func(x float64) (float64, error) {
		return e.evaluator.Eval(lhs, map[string]float64{VarUnknown: x, VarAggregate: prev.Sum})
	}
	l0, err := left(0)
	if err != nil {
		return 0, err
	}
	l1, err := left(1)
	if err != nil {
		return 0, err
	}
	r0, err := e.evaluator.Eval(rhs, map[string]float64{VarUnknown: 0, VarAggregate: prev.Sum})
	if err != nil {
		return 0, err
	}

	coefficient := l1 - l0
	if coefficient == 0 {
		return 0, NewCellError(CellErrorNotLinear, MsgNotLinear, nil)
	}
	root := (r0 - l0) / coefficient
	if math.IsNaN(root) || math.IsInf(root, 0) {
		return 0, NewCellError(CellErrorNotLinear, MsgNotLinear, nil)
	}
	e.logger.Printf("engine: %s solved %q for x = %v", self, body, root)
	return root, nil
}

var unknownResolver = NewResolver([]string{VarUnknown})

func mentionsUnknown(expr string) bool {
	return unknownResolver.pattern.MatchString(expr)
}

func balanced(l, r float64) bool {
	scale := math.Max(1, math.Max(math.Abs(l), math.Abs(r)))
	return math.Abs(l-r) <= balanceTolerance*scale
}
