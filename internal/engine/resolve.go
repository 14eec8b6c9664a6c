package engine

import (
	"regexp"
	"strings"
)

// Bindings maps lower-cased labels to the display value of cells computed
// earlier in the current pass
type Bindings map[string]string

// Resolver substitutes bound labels into expression text
type Resolver struct {
	pattern *regexp.Regexp
}

// NewResolver compiles a single whole-word pattern matching any label
func NewResolver(labels []string) *Resolver {
	alternatives := make([]string, len(labels))
	for i, label := range labels {
		alternatives[i] = regexp.QuoteMeta(strings.ToLower(label))
	}
	return &Resolver{
		pattern: regexp.MustCompile(`\b(?:` + strings.Join(alternatives, "|") + `)\b`),
	}
}

// Resolve lower-cases expr and replaces every whole-word occurrence of a bound
// label with its value. all labels are replaced in one scan so a substituted
// value is never matched again. an expression consisting only of the cell's
// own label is a self reference and fails without looking at the bindings.
func (r *Resolver) Resolve(expr, self string, bindings Bindings) (string, error) {
	trimmed := strings.TrimSpace(expr)
	if self != "" && strings.EqualFold(trimmed, self) {
		return "", NewCellError(CellErrorSelfReference, MsgSelfReference, nil)
	}

	out := strings.ToLower(trimmed)
	if len(bindings) == 0 {
		return out, nil
	}
	return r.pattern.ReplaceAllStringFunc(out, func(label string) string {
		if value, ok := bindings[label]; ok {
			return literal(value)
		}
		return label
	}), nil
}

// literal prepares a display value for substitution. grouping separators go,
// negative values are parenthesised so "a^2" stays a power of the value.
func literal(display string) string {
	v := StripSeparators(strings.TrimSpace(display))
	if strings.HasPrefix(v, "-") {
		return "(" + v + ")"
	}
	return v
}
