package ledger

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/numeric"
)

// ReconcileState is the reconciliation flag of a split.
type ReconcileState byte

const (
	NotReconciled ReconcileState = 'n'
	Cleared       ReconcileState = 'c'
	Reconciled    ReconcileState = 'y'
	Frozen        ReconcileState = 'f'
	Voided        ReconcileState = 'v'
)

// ParseReconcileState parses the one-letter on-disk flag. An empty flag is NotReconciled.
func ParseReconcileState(s string) (ReconcileState, error) {
	if s == "" {
		return NotReconciled, nil
	}
	if len(s) == 1 {
		switch r := ReconcileState(s[0]); r {
		case NotReconciled, Cleared, Reconciled, Frozen, Voided:
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown reconcile state %q", s)
}

func (r ReconcileState) String() string { return string(r) }

// Transaction is a balanced set of splits in one currency.
type Transaction struct {
	book *Book

	id          string
	num         string
	description string
	currency    commodity.ID
	posted      time.Time
	entered     time.Time
	splits      []*Split
}

func (t *Transaction) ID() string { return t.id }
func (t *Transaction) Num() string { return t.num }
func (t *Transaction) Description() string { return t.description }
func (t *Transaction) Currency() commodity.ID { return t.currency }
func (t *Transaction) Posted() time.Time { return t.posted }
func (t *Transaction) Entered() time.Time { return t.entered }

// Splits returns the transaction's splits in order.
func (t *Transaction) Splits() []*Split { return slices.Clone(t.splits) }

// Imbalance returns the sum of all split values, zero for a balanced transaction.
func (t *Transaction) Imbalance() numeric.Decimal {
	return sumValues(t.splits)
}

// IsBalanced reports whether split values sum to exactly zero.
func (t *Transaction) IsBalanced() bool {
	return t.Imbalance().IsZero()
}

// PaidLots returns the distinct lots referenced by payment splits, in split order.
func (t *Transaction) PaidLots() []string {
	var lots []string
	action := t.book.config().PaymentAction
	for _, s := range t.splits {
		if s.IsPayment(action) && !slices.Contains(lots, s.lot) {
			lots = append(lots, s.lot)
		}
	}
	return lots
}

func sumValues(splits []*Split) numeric.Decimal {
	total := numeric.Zero
	for _, s := range splits {
		total = total.Add(s.value)
	}
	return total
}

// Split is one leg of a transaction.
type Split struct {
	txn *Transaction

	id         string
	account    *Account
	accountRef string // unresolved account id from the document
	value      numeric.Decimal
	quantity   numeric.Decimal
	lot        string
	action     string
	memo       string
	reconcile  ReconcileState
}

func (s *Split) ID() string { return s.id }
func (s *Split) Transaction() *Transaction { return s.txn }
func (s *Split) Account() *Account { return s.account }
func (s *Split) Value() numeric.Decimal { return s.value }
func (s *Split) Quantity() numeric.Decimal { return s.quantity }
func (s *Split) Lot() string { return s.lot }
func (s *Split) Action() string { return s.action }
func (s *Split) Memo() string { return s.memo }
func (s *Split) Reconcile() ReconcileState { return s.reconcile }

// IsPayment reports whether the split carries a lot and the payment action.
func (s *Split) IsPayment(action string) bool {
	return s.lot != "" && strings.EqualFold(s.action, action)
}

// SplitSpec describes a split to create. A nil Quantity is derived from Value, so
// only splits of accounts held in another commodity need one.
type SplitSpec struct {
	Account  *Account
	Value    numeric.Decimal
	Quantity *numeric.Decimal
	Lot      string
	Action   string
	Memo     string
}

func (spec SplitSpec) build(txn *Transaction) *Split {
	qty := spec.Value
	if spec.Quantity != nil {
		qty = *spec.Quantity
	}
	return &Split{
		txn:       txn,
		account:   spec.Account,
		value:     spec.Value,
		quantity:  qty,
		lot:       spec.Lot,
		action:    spec.Action,
		memo:      spec.Memo,
		reconcile: NotReconciled,
	}
}

// quantityMismatch reports whether a split of acc, an account held in the
// transaction currency, books a quantity other than its value.
func quantityMismatch(acc *Account, currency commodity.ID, value, quantity numeric.Decimal) bool {
	return acc != nil && acc.commodity == currency && !quantity.Equal(value)
}
