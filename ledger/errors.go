package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/numeric"
)

// ErrReadOnly is returned by every mutation of a snapshot.
var ErrReadOnly = errors.New("book is read-only")

// NotFoundError is returned when no price of a commodity exists on or before a date.
type NotFoundError struct {
	Commodity commodity.ID
	Currency  commodity.ID // zero when any currency was acceptable
	Date      time.Time
}

func (e *NotFoundError) Error() string {
	if e.Currency.IsZero() {
		return fmt.Sprintf("no price for %s on or before %s", e.Commodity, e.Date.Format(time.DateOnly))
	}
	return fmt.Sprintf("no price for %s in %s on or before %s", e.Commodity, e.Currency, e.Date.Format(time.DateOnly))
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(from, to commodity.ID, date time.Time) *NotFoundError {
	return &NotFoundError{Commodity: from, Currency: to, Date: date}
}

// NoConversionPathError is returned when neither a direct, inverse nor base-currency
// path connects two commodities.
type NoConversionPathError struct {
	From commodity.ID
	To   commodity.ID
	Date time.Time
}

func (e *NoConversionPathError) Error() string {
	return fmt.Sprintf("no conversion path from %s to %s on %s", e.From, e.To, e.Date.Format(time.DateOnly))
}

// NewNoConversionPathError creates a NoConversionPathError.
func NewNoConversionPathError(from, to commodity.ID, date time.Time) *NoConversionPathError {
	return &NoConversionPathError{From: from, To: to, Date: date}
}

// WrongOwnerKindError is returned when an owner resolution does not fit the invoice's owner.
type WrongOwnerKindError struct {
	Invoice    string
	Owner      OwnerKind
	Resolution Resolution
}

func (e *WrongOwnerKindError) Error() string {
	return fmt.Sprintf("invoice %s: cannot resolve %s owner of a %s-owned invoice", displayID(e.Invoice), e.Resolution, e.Owner)
}

// NewWrongOwnerKindError creates a WrongOwnerKindError.
func NewWrongOwnerKindError(inv *Invoice, res Resolution) *WrongOwnerKindError {
	return &WrongOwnerKindError{Invoice: inv.id, Owner: inv.owner.kind, Resolution: res}
}

// WrongInvoiceKindError is returned by operations only defined for one side of
// invoicing, such as reading the bill price of a customer invoice.
type WrongInvoiceKindError struct {
	Invoice string
	Kind    InvoiceKind
	Op      string
}

func (e *WrongInvoiceKindError) Error() string {
	return fmt.Sprintf("invoice %s: %s is not available on a %s", displayID(e.Invoice), e.Op, e.Kind)
}

// NewWrongInvoiceKindError creates a WrongInvoiceKindError.
func NewWrongInvoiceKindError(inv *Invoice, op string) *WrongInvoiceKindError {
	if inv == nil {
		return &WrongInvoiceKindError{Op: op}
	}
	return &WrongInvoiceKindError{Invoice: inv.id, Kind: inv.kind, Op: op}
}

// UnbalancedTransactionError is returned when split values do not sum to zero.
type UnbalancedTransactionError struct {
	Transaction string
	Description string
	Imbalance   numeric.Decimal
	Currency    commodity.ID
}

func (e *UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("transaction %s (%q) does not balance: residual %s %s",
		displayID(e.Transaction), e.Description, e.Imbalance, e.Currency)
}

// NewUnbalancedTransactionError creates an UnbalancedTransactionError.
func NewUnbalancedTransactionError(id, description string, imbalance numeric.Decimal, currency commodity.ID) *UnbalancedTransactionError {
	return &UnbalancedTransactionError{Transaction: id, Description: description, Imbalance: imbalance, Currency: currency}
}

// InUseError is returned when an entity cannot be removed or changed because other
// records depend on it.
type InUseError struct {
	Kind   EntityKind
	ID     string
	Reason string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %s is in use: %s", e.Kind, displayID(e.ID), e.Reason)
}

// NewInUseError creates an InUseError.
func NewInUseError(kind EntityKind, id, reason string) *InUseError {
	return &InUseError{Kind: kind, ID: id, Reason: reason}
}

// DanglingReferenceError is returned when a record refers to an id that does not
// exist in the book.
type DanglingReferenceError struct {
	Kind  EntityKind
	ID    string
	Field string
	Ref   string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s %s: %s refers to unknown id %q", e.Kind, displayID(e.ID), e.Field, e.Ref)
}

// NewDanglingReferenceError creates a DanglingReferenceError.
func NewDanglingReferenceError(kind EntityKind, id, field, ref string) *DanglingReferenceError {
	return &DanglingReferenceError{Kind: kind, ID: id, Field: field, Ref: ref}
}

// AmbiguousPaymentError is returned for a transaction whose payment splits pay more
// than one lot.
type AmbiguousPaymentError struct {
	Transaction string
	Lots        []string
}

func (e *AmbiguousPaymentError) Error() string {
	return fmt.Sprintf("transaction %s pays more than one lot: %s", displayID(e.Transaction), strings.Join(e.Lots, ", "))
}

// UnknownEntityError is returned when a handle does not belong to the book, for
// example after it was removed or when it comes from another book.
type UnknownEntityError struct {
	Kind EntityKind
	ID   string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("%s %s is not part of this book", e.Kind, displayID(e.ID))
}

// NewUnknownEntityError creates an UnknownEntityError.
func NewUnknownEntityError(kind EntityKind, id string) *UnknownEntityError {
	return &UnknownEntityError{Kind: kind, ID: id}
}

// DuplicateIDError is returned when two records of the same kind share an id.
type DuplicateIDError struct {
	Kind EntityKind
	ID   string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate %s id %q", e.Kind, e.ID)
}

// AccountCycleError is returned when following parents from an account leads back to it.
type AccountCycleError struct {
	Account string
	Path    []string
}

func (e *AccountCycleError) Error() string {
	return fmt.Sprintf("account %s is its own ancestor: %s", displayID(e.Account), strings.Join(e.Path, " -> "))
}

// InvalidFieldError is returned when a field holds a value that cannot be used.
type InvalidFieldError struct {
	Kind   EntityKind
	ID     string
	Field  string
	Reason string
	Err    error
}

func (e *InvalidFieldError) Error() string {
	msg := fmt.Sprintf("%s %s: invalid %s", e.Kind, displayID(e.ID), e.Field)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidFieldError) Unwrap() error { return e.Err }

// NewInvalidFieldError creates an InvalidFieldError.
func NewInvalidFieldError(kind EntityKind, id, field, reason string) *InvalidFieldError {
	return &InvalidFieldError{Kind: kind, ID: id, Field: field, Reason: reason}
}

// ValidationError wraps every problem found while loading or validating a book.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors occurred", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying errors for errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

func displayID(id string) string {
	if id == "" {
		return "(new)"
	}
	return id
}
