// Package arith evaluates arithmetic expressions over float64 values.
//
// An expression is a combination of numbers, the operators + - * / ^ and %,
// parentheses, calls to built-in functions and named variables supplied by
// the caller. Evaluation either returns a finite number or an *Error.
package arith

import (
	"fmt"
	"math"
)

const defaultCacheSize = 1024

// Evaluator parses and evaluates expressions, caching parsed trees. It is not
// safe for concurrent use.
type Evaluator struct {
	functions *BuiltInFunctions
	cache     *ASTCache
}

// NewEvaluator creates an evaluator with the default functions and cache
func NewEvaluator() *Evaluator {
	return &Evaluator{
		functions: NewDefaultBuiltInFunctions(),
		cache:     NewASTCache(defaultCacheSize),
	}
}

// NewEvaluatorWithFunctions creates an evaluator using the given functions,
// mostly so tests can pin RAND.
func NewEvaluatorWithFunctions(functions *BuiltInFunctions, cacheSize int) *Evaluator {
	return &Evaluator{
		functions: functions,
		cache:     NewASTCache(cacheSize),
	}
}

// Parse turns src into an AST, using the cache when possible
func (e *Evaluator) Parse(src string) (ASTNode, error) {
	if ast, ok := e.cache.Get(src); ok {
		return ast, nil
	}

	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	ast, err := NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}
	return e.cache.Put(src, ast), nil
}

// Eval evaluates src with the given variables. variable names are matched
// case-insensitively and must be passed in lower case.
func (e *Evaluator) Eval(src string, vars map[string]float64) (float64, error) {
	ast, err := e.Parse(src)
	if err != nil {
		return 0, err
	}

	v, err := ast.Eval(&Env{Vars: vars, Functions: e.functions})
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewError(ErrorCodeNum, fmt.Sprintf("result is not a finite number: %v", v))
	}
	return v, nil
}

// Eval evaluates src once without caching
func Eval(src string, vars map[string]float64) (float64, error) {
	return NewEvaluatorWithFunctions(defaultFunctions, 0).Eval(src, vars)
}
