package commodity

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/numeric"
)

// ChangeKind describes what a TableChange did.
type ChangeKind int

const (
	FactorAdded ChangeKind = iota + 1
	FactorUpdated
	FactorRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case FactorAdded:
		return "added"
	case FactorUpdated:
		return "updated"
	case FactorRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// TableChange is returned by every mutation of a ConversionTable. Old is zero for
// additions and New is zero for removals.
type TableChange struct {
	Kind      ChangeKind
	Namespace string
	Code      string
	Old       numeric.Decimal
	New       numeric.Decimal
}

// ConversionTable holds, per namespace, the factor that converts one unit of each code
// into the base currency. Every namespace owns its own table, so the same code can
// carry different factors in different namespaces.
//
// Lookups of unknown namespaces or codes are reported with a false result rather than
// an error; missing rates are common while a book is partially loaded.
type ConversionTable struct {
	base   ID
	scale  int32
	tables map[string]map[string]numeric.Decimal
}

// NewConversionTable creates an empty table for the base currency. Divisions made by
// FromBase are rounded to scale digits.
func NewConversionTable(base ID, scale int32) (*ConversionTable, error) {
	if err := RequireCurrency(base); err != nil {
		return nil, err
	}
	return &ConversionTable{
		base:   base,
		scale:  scale,
		tables: make(map[string]map[string]numeric.Decimal),
	}, nil
}

// Base returns the base currency.
func (t *ConversionTable) Base() ID { return t.base }

// SetFactor records that one unit of ns:code is worth factor units of the base
// currency. Factors must be positive.
func (t *ConversionTable) SetFactor(ns, code string, factor numeric.Decimal) (TableChange, error) {
	if !factor.IsPositive() {
		return TableChange{}, &InvalidFactorError{Namespace: ns, Code: code, Factor: factor.String()}
	}

	table, ok := t.tables[ns]
	if !ok {
		table = make(map[string]numeric.Decimal)
		t.tables[ns] = table
	}

	change := TableChange{Kind: FactorAdded, Namespace: ns, Code: code, New: factor}
	if old, ok := table[code]; ok {
		change.Kind = FactorUpdated
		change.Old = old
	}
	table[code] = factor
	return change, nil
}

// RemoveFactor deletes the factor of ns:code. It reports false when there was none.
func (t *ConversionTable) RemoveFactor(ns, code string) (TableChange, bool) {
	table, ok := t.tables[ns]
	if !ok {
		return TableChange{}, false
	}
	old, ok := table[code]
	if !ok {
		return TableChange{}, false
	}
	delete(table, code)
	if len(table) == 0 {
		delete(t.tables, ns)
	}
	return TableChange{Kind: FactorRemoved, Namespace: ns, Code: code, Old: old}, true
}

// Factor returns the factor of ns:code. The base currency always has factor one.
func (t *ConversionTable) Factor(ns, code string) (numeric.Decimal, bool) {
	if t.isBase(ns, code) {
		return numeric.One, true
	}
	f, ok := t.tables[ns][code]
	return f, ok
}

// ToBase converts amount units of ns:code into the base currency.
func (t *ConversionTable) ToBase(ns, code string, amount numeric.Decimal) (numeric.Decimal, bool) {
	f, ok := t.Factor(ns, code)
	if !ok {
		return numeric.Zero, false
	}
	return amount.Mul(f), true
}

// FromBase converts amount units of the base currency into ns:code.
func (t *ConversionTable) FromBase(ns, code string, amount numeric.Decimal) (numeric.Decimal, bool) {
	f, ok := t.Factor(ns, code)
	if !ok {
		return numeric.Zero, false
	}
	if t.isBase(ns, code) {
		return amount, true
	}
	// Factors are positive, so the division cannot fail.
	v, err := amount.Div(f, t.scale)
	if err != nil {
		return numeric.Zero, false
	}
	return v, true
}

// Convert converts amount of from into to through the base currency.
func (t *ConversionTable) Convert(amount numeric.Decimal, from, to ID) (numeric.Decimal, bool) {
	if from == to {
		return amount, true
	}
	inBase, ok := t.ToBase(from.Namespace(), from.Code(), amount)
	if !ok {
		return numeric.Zero, false
	}
	return t.FromBase(to.Namespace(), to.Code(), inBase)
}

// Namespaces returns the namespaces that hold at least one factor, sorted.
func (t *ConversionTable) Namespaces() []string {
	names := maps.Keys(t.tables)
	slices.Sort(names)
	return names
}

// Codes returns the codes with a factor in ns, sorted.
func (t *ConversionTable) Codes(ns string) []string {
	codes := maps.Keys(t.tables[ns])
	slices.Sort(codes)
	return codes
}

// Len returns the number of factors across all namespaces.
func (t *ConversionTable) Len() int {
	n := 0
	for _, table := range t.tables {
		n += len(table)
	}
	return n
}

func (t *ConversionTable) isBase(ns, code string) bool {
	return isCurrencyNamespace(ns) && code == t.base.Code()
}
