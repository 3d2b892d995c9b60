package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robinvdvleuten/cashbook/numeric"
)

// Split actions written by posting.
const (
	ActionInvoice = "Invoice"
	ActionBill    = "Bill"
)

// newGUID returns a 32 digit hex id.
func newGUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// PostInvoice books the invoice. It creates a balanced transaction with one leg on
// the post account tagged with the invoice lot, one leg per income or expense
// account and one leg per tax account. A customer invoice debits the receivable
// account; a bill credits the payable account. A zero due date is derived from the
// bill terms.
func (b *Book) PostInvoice(inv *Invoice, postAccount *Account, posted, due time.Time, description string) (*Transaction, Change, error) {
	if inv.book != b {
		return nil, Change{}, NewUnknownEntityError(KindInvoice, inv.id)
	}
	if err := b.checkWritable(KindInvoice, inv.id); err != nil {
		return nil, Change{}, err
	}
	if inv.IsPosted() {
		return nil, Change{}, NewInUseError(KindInvoice, inv.id, "posted")
	}
	if postAccount == nil {
		return nil, Change{}, NewInvalidFieldError(KindInvoice, inv.id, "post account", "must not be empty")
	}
	if postAccount.book != b {
		return nil, Change{}, NewUnknownEntityError(KindAccount, postAccount.id)
	}

	side := inv.side()
	switch {
	case side == OwnerCustomer && postAccount.typ != AccountTypeReceivable:
		return nil, Change{}, NewInvalidFieldError(KindInvoice, inv.id, "post account", "customer invoices post to a RECEIVABLE account")
	case side == OwnerVendor && postAccount.typ != AccountTypePayable:
		return nil, Change{}, NewInvalidFieldError(KindInvoice, inv.id, "post account", "bills post to a PAYABLE account")
	case side == OwnerNone:
		return nil, Change{}, NewInvalidFieldError(KindInvoice, inv.id, "owner", "must be a customer, vendor or job")
	}
	if len(inv.entries) == 0 {
		return nil, Change{}, NewInvalidFieldError(KindInvoice, inv.id, "entries", "nothing to post")
	}

	breakdown := inv.Breakdown()
	lot := inv.lot
	if lot == "" {
		lot = newGUID()
	}

	// Customer invoices debit receivables and credit income; bills the reverse.
	sign := numeric.One
	action := ActionInvoice
	if side == OwnerVendor {
		sign = sign.Neg()
		action = ActionBill
	}

	specs := []SplitSpec{{
		Account: postAccount,
		Value:   breakdown.Gross.Mul(sign),
		Lot:     lot,
		Action:  action,
		Memo:    inv.number,
	}}
	for _, line := range append(breakdown.Lines, breakdown.Taxes...) {
		if line.Amount.IsZero() {
			continue
		}
		if line.Account == nil {
			return nil, Change{}, NewInvalidFieldError(KindInvoice, inv.id, "entries", "every line and tax rate needs an account")
		}
		specs = append(specs, SplitSpec{Account: line.Account, Value: line.Amount.Mul(sign).Neg(), Action: action})
	}
	if len(specs) < 2 {
		return nil, Change{}, NewInvalidFieldError(KindInvoice, inv.id, "entries", "nothing to post")
	}

	txn, err := b.newTransaction(inv.currency, posted, description, specs)
	if err != nil {
		return nil, Change{}, err
	}
	txn.num = inv.number

	inv.postAccount = postAccount
	inv.postAccountRef = ""
	inv.postTxn = txn
	inv.postTxnRef = ""
	inv.lot = lot
	inv.posted = posted
	if !due.IsZero() {
		inv.due = due
	} else if inv.terms != nil {
		inv.due = inv.terms.DueDate(posted)
	}

	b.touch(added(KindTransaction, "", txn))
	return txn, b.touch(updated(KindInvoice, inv.id, "posted", inv)), nil
}

// UnpostInvoice removes the posting transaction of an unpaid invoice.
func (b *Book) UnpostInvoice(inv *Invoice) (Change, error) {
	if inv.book != b {
		return Change{}, NewUnknownEntityError(KindInvoice, inv.id)
	}
	if err := b.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	if !inv.IsPosted() {
		return Change{}, NewInvalidFieldError(KindInvoice, inv.id, "posted", "invoice is not posted")
	}
	if inv.IsPaid() {
		return Change{}, NewInUseError(KindInvoice, inv.id, "paid")
	}

	txn := inv.postTxn
	b.detachTransaction(txn)
	b.touch(removed(KindTransaction, txn.id, txn))

	inv.postTxn = nil
	inv.postAccount = nil
	inv.lot = ""
	inv.posted = time.Time{}
	return b.touch(updated(KindInvoice, inv.id, "posted", inv)), nil
}

// PayInvoice books a payment of amount from a bank or cash account against the
// invoice lot. Customers pay into from; bills are paid out of it.
func (b *Book) PayInvoice(inv *Invoice, from *Account, amount numeric.Decimal, date time.Time, description string) (*Transaction, Change, error) {
	if inv.book != b {
		return nil, Change{}, NewUnknownEntityError(KindInvoice, inv.id)
	}
	if err := b.checkWritable(KindTransaction, ""); err != nil {
		return nil, Change{}, err
	}
	if !inv.IsPosted() || inv.postAccount == nil {
		return nil, Change{}, NewInvalidFieldError(KindInvoice, inv.id, "posted", "only posted invoices can be paid")
	}
	if from == nil {
		return nil, Change{}, NewInvalidFieldError(KindTransaction, "", "account", "must not be empty")
	}
	if !amount.IsPositive() {
		return nil, Change{}, NewInvalidFieldError(KindTransaction, "", "amount", "must be positive")
	}

	value := amount
	if inv.IsBill() {
		value = value.Neg()
	}
	action := b.config().PaymentAction
	txn, err := b.newTransaction(inv.currency, date, description, []SplitSpec{
		{Account: inv.postAccount, Value: value.Neg(), Lot: inv.lot, Action: action, Memo: inv.number},
		{Account: from, Value: value, Action: action},
	})
	if err != nil {
		return nil, Change{}, err
	}
	return txn, b.touch(added(KindTransaction, "", txn)), nil
}
