package engine

import (
	"strings"
)

// Kind classifies what a cell's raw text is. every cell is exactly one kind.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindImport
	KindConstant
	KindExternalCalc
	KindCommand
	KindEquation
	KindExpression
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindImport:
		return "import"
	case KindConstant:
		return "constant"
	case KindExternalCalc:
		return "external"
	case KindCommand:
		return "command"
	case KindEquation:
		return "equation"
	case KindExpression:
		return "expression"
	default:
		return "unknown"
	}
}

// IsDirective reports whether the kind is resolved on commit rather than
// computed
func (k Kind) IsDirective() bool {
	return k == KindImport || k == KindConstant || k == KindExternalCalc || k == KindCommand
}

// Command is a section or grid command typed into a cell and run on commit
type Command uint8

const (
	CommandNone Command = iota
	CommandRename
	CommandNew
	CommandDelete
	CommandClone
	CommandClear
	CommandRate
)

var commandWords = map[string]Command{
	"new":    CommandNew,
	"delete": CommandDelete,
	"del":    CommandDelete,
	"clone":  CommandClone,
	"clear":  CommandClear,
	"cls":    CommandClear,
	"rate":   CommandRate,
}

// Directive is the classified form of a cell's text
type Directive struct {
	Kind    Kind
	Command Command
	Arg     string // section name, constant key, external expression or new name
}

// Placeholders shown in the output column for directives
const (
	ImportPlaceholder   = "Import from cfg file"
	ExternalPlaceholder = "Qalculate!"
	ConstPlaceholder    = "Const from cfg file"
)

// Classify decides what text is. constants holds the lower-cased keys of the
// constant table; a bare keyword matching one is a constant lookup.
func Classify(text string, constants map[string]string) Directive {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Directive{Kind: KindEmpty}
	}
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "fc.") || strings.HasPrefix(lower, "fc:"):
		return Directive{Kind: KindImport, Arg: strings.TrimSpace(lower[3:])}
	case strings.HasPrefix(lower, "cst."):
		return Directive{Kind: KindConstant, Arg: strings.TrimSpace(lower[4:])}
	case strings.HasPrefix(lower, "s:"):
		return Directive{Kind: KindExternalCalc, Arg: strings.TrimSpace(trimmed[2:])}
	}

	if lower == "rename" || strings.HasPrefix(lower, "rename ") {
		return Directive{Kind: KindCommand, Command: CommandRename, Arg: strings.TrimSpace(lower[len("rename"):])}
	}
	if cmd, ok := commandWords[lower]; ok {
		return Directive{Kind: KindCommand, Command: cmd}
	}
	if _, ok := constants[lower]; ok {
		return Directive{Kind: KindConstant, Arg: lower}
	}

	if strings.Contains(StripComment(trimmed), "=") {
		return Directive{Kind: KindEquation}
	}
	return Directive{Kind: KindExpression}
}

// CellErrorCode identifies why a cell failed to evaluate
type CellErrorCode uint8

const (
	CellErrorEval          CellErrorCode = 1 // arithmetic failure
	CellErrorUnbalanced    CellErrorCode = 2 // equation without x whose sides differ
	CellErrorNotLinear     CellErrorCode = 3 // coefficient of x is zero
	CellErrorSelfReference CellErrorCode = 4 // cell refers to its own label
	CellErrorOverflow      CellErrorCode = 5 // result wider than the output column
	CellErrorFormat        CellErrorCode = 6 // more than one '='
	CellErrorCommand       CellErrorCode = 7 // command text is not a value
)

// Messages for cell errors that surface verbatim
const (
	MsgUnbalanced    = "The equation is not balanced"
	MsgNotLinear     = "Invalid equation: coefficient of x is zero or not a linear equation"
	MsgSelfReference = "Error: Variable self-reference detected"
)

// ErrorDisplay is what the output column shows for any failed cell
const ErrorDisplay = "Error"

// CellError is a cell-local evaluation failure. it never leaves the cell.
type CellError struct {
	Code    CellErrorCode
	Message string
	Cause   error
}

func (e *CellError) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *CellError) Unwrap() error {
	return e.Cause
}

func NewCellError(code CellErrorCode, message string, cause error) *CellError {
	return &CellError{Code: code, Message: message, Cause: cause}
}

// Result is the evaluated state of one cell
type Result struct {
	Label   string
	Kind    Kind
	Display string
	Value   float64
	Numeric bool
	Err     *CellError
}

// Failed reports whether the cell shows Error
func (r Result) Failed() bool {
	return r.Err != nil
}
