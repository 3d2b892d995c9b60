package numeric

import "fmt"

// ParseError is returned when text cannot be read as a number.
type ParseError struct {
	Input     string // Full text given to Parse
	Offending string // The part of Input that could not be read
	Reason    string
}

func (e *ParseError) Error() string {
	if e.Offending == e.Input {
		return fmt.Sprintf("invalid number %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid number %q: %s at %q", e.Input, e.Reason, e.Offending)
}

// NewParseError creates a ParseError for input, pointing at the offending substring.
func NewParseError(input, offending, reason string) *ParseError {
	return &ParseError{Input: input, Offending: offending, Reason: reason}
}

// ArithmeticError is returned by operations that have no defined result.
type ArithmeticError struct {
	Op      string
	Operand string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error: %s of %s", e.Op, e.Operand)
}

// NewDivisionByZeroError creates an ArithmeticError for dividing x by zero.
func NewDivisionByZeroError(x Decimal) *ArithmeticError {
	return &ArithmeticError{Op: "division by zero", Operand: x.String()}
}
