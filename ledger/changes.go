package ledger

import "fmt"

// EntityKind names the kind of record a Change or error refers to.
type EntityKind int

const (
	KindBook EntityKind = iota
	KindCommodity
	KindAccount
	KindTransaction
	KindSplit
	KindPrice
	KindCustomer
	KindVendor
	KindJob
	KindInvoice
	KindEntry
	KindTaxTable
	KindBillTerms
)

func (k EntityKind) String() string {
	switch k {
	case KindBook:
		return "book"
	case KindCommodity:
		return "commodity"
	case KindAccount:
		return "account"
	case KindTransaction:
		return "transaction"
	case KindSplit:
		return "split"
	case KindPrice:
		return "price"
	case KindCustomer:
		return "customer"
	case KindVendor:
		return "vendor"
	case KindJob:
		return "job"
	case KindInvoice:
		return "invoice"
	case KindEntry:
		return "entry"
	case KindTaxTable:
		return "tax table"
	case KindBillTerms:
		return "bill terms"
	default:
		return "unknown"
	}
}

// ChangeOp is what a mutation did to an entity.
type ChangeOp int

const (
	Added ChangeOp = iota + 1
	Updated
	Removed
)

func (op ChangeOp) String() string {
	switch op {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change describes one successful mutation of a book. Mutations return it instead of
// notifying listeners; callers that mirror the book (a view, an undo log) apply it
// themselves.
//
// ID is empty for entities that have not been written yet. Field names the updated
// field and is empty for additions and removals.
type Change struct {
	Op     ChangeOp
	Kind   EntityKind
	ID     string
	Field  string
	Entity any
}

func (c Change) String() string {
	if c.Field != "" {
		return fmt.Sprintf("%s %s %s: %s", c.Op, c.Kind, displayID(c.ID), c.Field)
	}
	return fmt.Sprintf("%s %s %s", c.Op, c.Kind, displayID(c.ID))
}

func added(kind EntityKind, id string, entity any) Change {
	return Change{Op: Added, Kind: kind, ID: id, Entity: entity}
}

func updated(kind EntityKind, id, field string, entity any) Change {
	return Change{Op: Updated, Kind: kind, ID: id, Field: field, Entity: entity}
}

func removed(kind EntityKind, id string, entity any) Change {
	return Change{Op: Removed, Kind: kind, ID: id, Entity: entity}
}
