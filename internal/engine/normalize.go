package engine

import (
	"regexp"
	"strings"
	"unicode"
)

var percentPattern = regexp.MustCompile(`(\d+(\.\d+)?)%`)

// StripComment truncates text at the first '#' not preceded by a backslash
func StripComment(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] == '#' && (i == 0 || text[i-1] != '\\') {
			return text[:i]
		}
	}
	return text
}

// Compact removes all whitespace and folds the unknown X to x
func Compact(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		if r == 'X' {
			return 'x'
		}
		return r
	}, text)
}

// RewriteDivision forces floating division by turning every '/' into '*1.0/'
func RewriteDivision(expr string) string {
	return strings.ReplaceAll(expr, "/", "*1.0/")
}

// RewritePercent turns every literal "<number>%" into "<number> * 0.01",
// whatever follows it. a '%' after a group or a name is left to the
// arithmetic evaluator.
func RewritePercent(expr string) string {
	return percentPattern.ReplaceAllString(expr, "${1} * 0.01")
}

// Normalize applies every textual rewrite an expression goes through before
// evaluation: comment removal, whitespace removal, X folding, division and
// percent rewriting.
func Normalize(text string) string {
	return RewritePercent(RewriteDivision(Compact(StripComment(text))))
}
