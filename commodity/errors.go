package commodity

import "fmt"

// ParseError is returned when text is not a valid NAMESPACE:CODE identifier, or when a
// currency code is not part of ISO-4217.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid commodity id %q: %s", e.Input, e.Reason)
}

// NewParseError creates a ParseError.
func NewParseError(input, reason string) *ParseError {
	return &ParseError{Input: input, Reason: reason}
}

// InvalidNamespaceError is returned when a security is qualified with a namespace that
// does not belong to the requested kind.
type InvalidNamespaceError struct {
	Namespace string
	Want      Type
}

func (e *InvalidNamespaceError) Error() string {
	return fmt.Sprintf("namespace %q is not a valid %s namespace", e.Namespace, e.Want)
}

// NewInvalidNamespaceError creates an InvalidNamespaceError.
func NewInvalidNamespaceError(namespace string, want Type) *InvalidNamespaceError {
	return &InvalidNamespaceError{Namespace: namespace, Want: want}
}

// InvalidCommodityTypeError is returned when an id of one kind is used where another
// kind is required, such as a security given as a price's target currency.
type InvalidCommodityTypeError struct {
	ID   ID
	Want Type
}

func (e *InvalidCommodityTypeError) Error() string {
	return fmt.Sprintf("commodity %s is a %s, expected a %s", e.ID, e.ID.Type(), e.Want)
}

// NewInvalidCommodityTypeError creates an InvalidCommodityTypeError.
func NewInvalidCommodityTypeError(id ID, want Type) *InvalidCommodityTypeError {
	return &InvalidCommodityTypeError{ID: id, Want: want}
}

// InvalidFactorError is returned when a conversion factor is zero or negative.
type InvalidFactorError struct {
	Namespace string
	Code      string
	Factor    string
}

func (e *InvalidFactorError) Error() string {
	return fmt.Sprintf("invalid conversion factor %s for %s:%s", e.Factor, e.Namespace, e.Code)
}
