package arith

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RandomGenerator interface provides random number generation for testing
type RandomGenerator interface {
	Float64() float64
}

// DefaultRandomGenerator uses the standard library's rand package
type DefaultRandomGenerator struct{}

func (d *DefaultRandomGenerator) Float64() float64 {
	return rand.Float64()
}

// BuiltInFunctions contains the functions callable from expressions
type BuiltInFunctions struct {
	rng RandomGenerator
}

var defaultFunctions = NewDefaultBuiltInFunctions()

// NewDefaultBuiltInFunctions creates a BuiltInFunctions with default
// implementations
func NewDefaultBuiltInFunctions() *BuiltInFunctions {
	return NewBuiltInFunctions(&DefaultRandomGenerator{})
}

func NewBuiltInFunctions(rng RandomGenerator) *BuiltInFunctions {
	return &BuiltInFunctions{rng: rng}
}

// Call invokes a built-in function by name with the given arguments.
// names are case-insensitive.
func (bf *BuiltInFunctions) Call(name string, args ...float64) (float64, error) {
	switch strings.ToUpper(name) {
	case "SUM":
		return bf.SUM(args...)
	case "AVG", "AVERAGE":
		return bf.AVERAGE(args...)
	case "MIN":
		return bf.MIN(args...)
	case "MAX":
		return bf.MAX(args...)
	case "ABS":
		return unary("ABS", math.Abs, args)
	case "ROUND":
		return bf.ROUND(args...)
	case "FLOOR":
		return unary("FLOOR", math.Floor, args)
	case "CEIL", "CEILING":
		return unary("CEILING", math.Ceil, args)
	case "SQRT":
		return bf.SQRT(args...)
	case "POW", "POWER":
		return bf.POWER(args...)
	case "MOD":
		return bf.MOD(args...)
	case "EXP":
		return unary("EXP", math.Exp, args)
	case "LN":
		return bf.LOG("LN", math.Log, args...)
	case "LOG", "LOG10":
		return bf.LOG("LOG", math.Log10, args...)
	case "SIN":
		return unary("SIN", math.Sin, args)
	case "COS":
		return unary("COS", math.Cos, args)
	case "TAN":
		return unary("TAN", math.Tan, args)
	case "ASIN":
		return unary("ASIN", math.Asin, args)
	case "ACOS":
		return unary("ACOS", math.Acos, args)
	case "ATAN":
		return unary("ATAN", math.Atan, args)
	case "PI":
		return constant("PI", math.Pi, args)
	case "E":
		return constant("E", math.E, args)
	case "RAND":
		return bf.RAND(args...)
	default:
		return 0, NewError(ErrorCodeName, fmt.Sprintf("Unknown function: %s", name))
	}
}

func unary(name string, fn func(float64) float64, args []float64) (float64, error) {
	if len(args) != 1 {
		return 0, NewError(ErrorCodeNA, name+" requires exactly 1 argument")
	}
	return fn(args[0]), nil
}

func constant(name string, v float64, args []float64) (float64, error) {
	if len(args) != 0 {
		return 0, NewError(ErrorCodeNA, name+" takes no arguments")
	}
	return v, nil
}

func (bf *BuiltInFunctions) SUM(args ...float64) (float64, error) {
	return floats.Sum(args), nil
}

func (bf *BuiltInFunctions) AVERAGE(args ...float64) (float64, error) {
	if len(args) == 0 {
		return 0, NewError(ErrorCodeDiv0, "AVERAGE requires at least 1 argument")
	}
	return stat.Mean(args, nil), nil
}

func (bf *BuiltInFunctions) MIN(args ...float64) (float64, error) {
	if len(args) == 0 {
		return 0, NewError(ErrorCodeNA, "MIN requires at least 1 argument")
	}
	return floats.Min(args), nil
}

func (bf *BuiltInFunctions) MAX(args ...float64) (float64, error) {
	if len(args) == 0 {
		return 0, NewError(ErrorCodeNA, "MAX requires at least 1 argument")
	}
	return floats.Max(args), nil
}

func (bf *BuiltInFunctions) ROUND(args ...float64) (float64, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, NewError(ErrorCodeNA, "ROUND requires 1 or 2 arguments")
	}

	places := 0.0
	if len(args) == 2 {
		places = args[1]
	}

	multiplier := math.Pow(10, places)
	return math.Round(args[0]*multiplier) / multiplier, nil
}

func (bf *BuiltInFunctions) SQRT(args ...float64) (float64, error) {
	if len(args) != 1 {
		return 0, NewError(ErrorCodeNA, "SQRT requires exactly 1 argument")
	}
	if args[0] < 0 {
		return 0, NewError(ErrorCodeNum, "SQRT requires a non-negative argument")
	}
	return math.Sqrt(args[0]), nil
}

func (bf *BuiltInFunctions) POWER(args ...float64) (float64, error) {
	if len(args) != 2 {
		return 0, NewError(ErrorCodeNA, "POWER requires exactly 2 arguments")
	}
	return math.Pow(args[0], args[1]), nil
}

func (bf *BuiltInFunctions) MOD(args ...float64) (float64, error) {
	if len(args) != 2 {
		return 0, NewError(ErrorCodeNA, "MOD requires exactly 2 arguments")
	}
	if args[1] == 0 {
		return 0, NewError(ErrorCodeDiv0, "Division by zero")
	}
	return math.Mod(args[0], args[1]), nil
}

func (bf *BuiltInFunctions) LOG(name string, fn func(float64) float64, args ...float64) (float64, error) {
	if len(args) != 1 {
		return 0, NewError(ErrorCodeNA, name+" requires exactly 1 argument")
	}
	if args[0] <= 0 {
		return 0, NewError(ErrorCodeNum, name+" requires a positive argument")
	}
	return fn(args[0]), nil
}

func (bf *BuiltInFunctions) RAND(args ...float64) (float64, error) {
	if len(args) != 0 {
		return 0, NewError(ErrorCodeNA, "RAND takes no arguments")
	}
	return bf.rng.Float64(), nil
}
