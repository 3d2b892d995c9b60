package ledger

import (
	"context"
	"fmt"

	"github.com/robinvdvleuten/cashbook/document"
	"github.com/robinvdvleuten/cashbook/telemetry"
)

// Validation Architecture
//
// A book is validated as a whole before it is written, and once after loading to
// report what the document got wrong. Validation only reads the model:
//
//	validator.validate(ctx) → []error
//	  ├─ validateAccounts()       // parents exist, no cycles, one root
//	  ├─ validateTransactions()   // ≥2 splits, accounts exist, values sum to zero
//	  ├─ validatePayments()       // a payment transaction pays at most one lot
//	  ├─ validateBusiness()       // owner, job, invoice and entry references
//	  └─ validateTaxTables()      // tax accounts exist
//
// Every problem is collected; nothing short-circuits. Write refuses to call its
// destination when the list is not empty, Load returns the list together with the
// book.
//
// Unresolved references keep the id read from the document in a *Ref field next
// to the pointer, so a problem can name the missing id and an export of a loaded
// book still writes what it read.
type validator struct {
	book *Book
	errs []error
}

func newValidator(b *Book) *validator {
	return &validator{book: b}
}

func (v *validator) report(err error) {
	v.errs = append(v.errs, err)
}

func (v *validator) validate(ctx context.Context) []error {
	timer := telemetry.StartTimer(ctx, "ledger.validate")
	defer timer.End()

	v.validateAccounts()
	v.validateTransactions()
	v.validatePayments()
	v.validateBusiness()
	v.validateTaxTables()
	return v.errs
}

func (v *validator) validateAccounts() {
	roots := 0
	for _, acc := range v.book.accounts.order {
		if acc.typ == AccountTypeRoot {
			roots++
			continue
		}
		if acc.parent != nil {
			continue
		}
		if acc.parentRef == "" {
			v.report(NewInvalidFieldError(KindAccount, acc.id, "parent", "non-root account without parent"))
			continue
		}
		if _, ok := v.book.accounts.get(acc.parentRef); ok {
			// The parent exists but linking it would close a cycle.
			v.report(&AccountCycleError{Account: acc.id, Path: v.cyclePath(acc)})
			continue
		}
		v.report(NewDanglingReferenceError(KindAccount, acc.id, "parent", acc.parentRef))
	}
	if roots == 0 && v.book.accounts.len() > 0 {
		v.report(NewInvalidFieldError(KindBook, v.book.id, "accounts", "no root account"))
	}
}

// cyclePath follows document parent ids from acc until an id repeats.
func (v *validator) cyclePath(acc *Account) []string {
	var path []string
	seen := make(map[*Account]bool)
	for a := acc; a != nil && !seen[a]; {
		seen[a] = true
		path = append(path, a.id)
		switch {
		case a.parent != nil:
			a = a.parent
		case a.parentRef != "":
			a, _ = v.book.accounts.get(a.parentRef)
		default:
			a = nil
		}
		if a != nil && seen[a] {
			path = append(path, a.id)
		}
	}
	return path
}

func (v *validator) validateTransactions() {
	for _, txn := range v.book.transactions.order {
		if len(txn.splits) < 2 {
			v.report(NewInvalidFieldError(KindTransaction, txn.id, "splits", fmt.Sprintf("needs at least two splits, has %d", len(txn.splits))))
		}
		for _, s := range txn.splits {
			if s.account != nil {
				if quantityMismatch(s.account, txn.currency, s.value, s.quantity) {
					v.report(NewInvalidFieldError(KindSplit, s.id, "quantity", "must equal value in the transaction currency"))
				}
				continue
			}
			if s.accountRef != "" {
				v.report(NewDanglingReferenceError(KindSplit, s.id, "account", s.accountRef))
			} else {
				v.report(NewInvalidFieldError(KindSplit, s.id, "account", "must not be empty"))
			}
		}
		if imbalance := txn.Imbalance(); !imbalance.IsZero() {
			v.report(NewUnbalancedTransactionError(txn.id, txn.description, imbalance, txn.currency))
		}
	}
}

func (v *validator) validatePayments() {
	for _, txn := range v.book.transactions.order {
		if lots := txn.PaidLots(); len(lots) > 1 {
			v.report(&AmbiguousPaymentError{Transaction: txn.id, Lots: lots})
		}
	}
}

func (v *validator) validateBusiness() {
	for _, p := range v.book.parties() {
		if p.taxTable == nil && p.taxTableRef != "" {
			v.report(NewDanglingReferenceError(p.kind, p.id, "tax table", p.taxTableRef))
		}
		if p.terms == nil && p.termsRef != "" {
			v.report(NewDanglingReferenceError(p.kind, p.id, "terms", p.termsRef))
		}
	}
	for _, j := range v.book.jobs.order {
		if j.owner.IsZero() {
			v.reportOwner(KindJob, j.id, j.ownerRef)
		}
	}
	for _, inv := range v.book.invoices.order {
		if inv.owner.IsZero() {
			v.reportOwner(KindInvoice, inv.id, inv.ownerRef)
		}
		if inv.postAccount == nil && inv.postAccountRef != "" {
			v.report(NewDanglingReferenceError(KindInvoice, inv.id, "post account", inv.postAccountRef))
		}
		if inv.postTxn == nil && inv.postTxnRef != "" {
			v.report(NewDanglingReferenceError(KindInvoice, inv.id, "post transaction", inv.postTxnRef))
		}
		if inv.terms == nil && inv.termsRef != "" {
			v.report(NewDanglingReferenceError(KindInvoice, inv.id, "terms", inv.termsRef))
		}
	}
	for _, e := range v.book.entries.order {
		if e.invoice == nil && e.invoiceRef != "" {
			v.report(NewDanglingReferenceError(KindEntry, e.id, "invoice", e.invoiceRef))
		}
		if e.account == nil && e.accountRef != "" {
			v.report(NewDanglingReferenceError(KindEntry, e.id, "account", e.accountRef))
		}
		if e.taxTable == nil && e.taxTableRef != "" {
			v.report(NewDanglingReferenceError(KindEntry, e.id, "tax table", e.taxTableRef))
		}
	}
}

func (v *validator) reportOwner(kind EntityKind, id string, ref document.Owner) {
	switch {
	case ref.ID == "":
		v.report(NewInvalidFieldError(kind, id, "owner", "must not be empty"))
	case kind == KindJob && ref.Type == document.OwnerJob:
		v.report(NewInvalidFieldError(kind, id, "owner", "a job must be owned by a customer or vendor"))
	default:
		v.report(NewDanglingReferenceError(kind, id, "owner", ref.ID))
	}
}

func (v *validator) validateTaxTables() {
	for _, t := range v.book.taxTables.order {
		for _, rate := range t.entries {
			if rate.account == nil {
				v.report(NewDanglingReferenceError(KindTaxTable, t.id, "account", rate.accountRef))
			}
		}
	}
}

// Validate checks the whole book and returns every problem found, nil when the
// book can be written.
func (b *Book) Validate(ctx context.Context) error {
	if errs := newValidator(b).validate(ctx); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
