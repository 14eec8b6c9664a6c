package arith

// ErrorCode represents the class of an evaluation failure
type ErrorCode uint8

const (
	ErrorCodeSyntax ErrorCode = 1 // malformed expression
	ErrorCodeDiv0   ErrorCode = 2 // division or modulo by zero
	ErrorCodeValue  ErrorCode = 3 // wrong type of argument or operand
	ErrorCodeName   ErrorCode = 4 // unknown variable or function
	ErrorCodeNum    ErrorCode = 5 // result is not a finite number
	ErrorCodeNA     ErrorCode = 6 // wrong number of function arguments
)

// ErrorMapper maps error codes to short names
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeSyntax: "#SYNTAX!",
	ErrorCodeDiv0:   "#DIV/0!",
	ErrorCodeValue:  "#VALUE!",
	ErrorCodeName:   "#NAME?",
	ErrorCodeNum:    "#NUM!",
	ErrorCodeNA:     "#N/A",
}

// Error preserves the error code of a failed evaluation
type Error struct {
	ErrorCode ErrorCode
	Message   string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.ErrorCode]
}

func NewError(code ErrorCode, message string) *Error {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &Error{
		ErrorCode: code,
		Message:   message,
	}
}
