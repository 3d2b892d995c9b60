package ledger

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/document"
	"github.com/robinvdvleuten/cashbook/numeric"
)

// ErrEditFinished is returned when a committed or discarded edit is used again.
var ErrEditFinished = errors.New("transaction edit already finished")

// TransactionEdit stages changes to a transaction. Nothing is visible in the book
// until Commit succeeds; a failed Commit leaves the transaction as it was.
type TransactionEdit struct {
	txn  *Transaction
	done bool

	Num         string
	Description string
	Currency    commodity.ID
	Posted      time.Time
	Entered     time.Time

	splits []*SplitDraft
}

// SplitDraft is the staged state of one split. Unless SetQuantity is called, Commit
// derives the quantity from Value for accounts held in the transaction currency and
// keeps the current quantity of a split that stays on a foreign-commodity account.
type SplitDraft struct {
	split *Split

	Account   *Account
	Value     numeric.Decimal
	Lot       string
	Action    string
	Memo      string
	Reconcile ReconcileState

	quantity    numeric.Decimal
	quantitySet bool
}

// Split returns the split the draft edits, nil for added splits.
func (d *SplitDraft) Split() *Split { return d.split }

// Quantity returns the staged quantity.
func (d *SplitDraft) Quantity() numeric.Decimal { return d.quantity }

// SetQuantity stages an explicit quantity. Zero is a valid quantity.
func (d *SplitDraft) SetQuantity(quantity numeric.Decimal) {
	d.quantity = quantity
	d.quantitySet = true
}

func (d *SplitDraft) resolveQuantity(currency commodity.ID) numeric.Decimal {
	switch {
	case d.quantitySet:
		return d.quantity
	case d.Account.commodity == currency:
		return d.Value
	case d.split != nil && d.split.account == d.Account:
		return d.quantity
	default:
		return d.Value
	}
}

// EditTransaction starts an edit of txn.
func (b *Book) EditTransaction(txn *Transaction) (*TransactionEdit, error) {
	if txn.book != b {
		return nil, NewUnknownEntityError(KindTransaction, txn.id)
	}
	if err := b.checkWritable(KindTransaction, txn.id); err != nil {
		return nil, err
	}
	edit := &TransactionEdit{
		txn:         txn,
		Num:         txn.num,
		Description: txn.description,
		Currency:    txn.currency,
		Posted:      txn.posted,
		Entered:     txn.entered,
	}
	for _, s := range txn.splits {
		edit.splits = append(edit.splits, &SplitDraft{
			split:     s,
			Account:   s.account,
			Value:     s.value,
			Lot:       s.lot,
			Action:    s.action,
			Memo:      s.memo,
			Reconcile: s.reconcile,
			quantity:  s.quantity,
		})
	}
	return edit, nil
}

// Splits returns the staged splits in order.
func (e *TransactionEdit) Splits() []*SplitDraft { return slices.Clone(e.splits) }

// AddSplit stages a new split.
func (e *TransactionEdit) AddSplit(spec SplitSpec) *SplitDraft {
	d := &SplitDraft{
		Account:   spec.Account,
		Value:     spec.Value,
		Lot:       spec.Lot,
		Action:    spec.Action,
		Memo:      spec.Memo,
		Reconcile: NotReconciled,
		quantity:  spec.Value,
	}
	if spec.Quantity != nil {
		d.SetQuantity(*spec.Quantity)
	}
	e.splits = append(e.splits, d)
	return d
}

// RemoveSplit unstages a split. It reports false when d is not part of the edit.
func (e *TransactionEdit) RemoveSplit(d *SplitDraft) bool {
	n := len(e.splits)
	e.splits = slices.DeleteFunc(e.splits, func(x *SplitDraft) bool { return x == d })
	return len(e.splits) < n
}

// Imbalance returns the sum of the staged split values.
func (e *TransactionEdit) Imbalance() numeric.Decimal {
	total := numeric.Zero
	for _, d := range e.splits {
		total = total.Add(d.Value)
	}
	return total
}

// Discard abandons the edit.
func (e *TransactionEdit) Discard() { e.done = true }

// Commit checks the staged transaction and applies it. It fails with an
// UnbalancedTransactionError when the split values do not sum to zero.
func (e *TransactionEdit) Commit() (Change, error) {
	if e.done {
		return Change{}, ErrEditFinished
	}
	txn := e.txn
	b := txn.book
	if err := b.checkWritable(KindTransaction, txn.id); err != nil {
		return Change{}, err
	}
	if err := e.check(b); err != nil {
		return Change{}, err
	}

	quantities := make([]numeric.Decimal, len(e.splits))
	for i, d := range e.splits {
		quantities[i] = d.resolveQuantity(e.Currency)
	}

	affected := make([]*Account, 0, len(txn.splits)+len(e.splits))
	for _, s := range txn.splits {
		if s.account != nil {
			s.account.removeSplit(s)
			affected = append(affected, s.account)
		}
	}

	splits := make([]*Split, 0, len(e.splits))
	for i, d := range e.splits {
		s := d.split
		if s == nil {
			s = &Split{txn: txn}
		}
		s.account = d.Account
		s.accountRef = ""
		s.value = d.Value
		s.quantity = quantities[i]
		s.lot = d.Lot
		s.action = d.Action
		s.memo = d.Memo
		s.reconcile = d.Reconcile
		splits = append(splits, s)
		s.account.splits = append(s.account.splits, s)
		affected = append(affected, s.account)
	}

	txn.splits = splits
	txn.num = e.Num
	txn.description = e.Description
	txn.currency = e.Currency
	txn.posted = e.Posted
	txn.entered = e.Entered
	for _, acc := range affected {
		b.balances.invalidateAccount(acc)
	}

	e.done = true
	return b.touch(updated(KindTransaction, txn.id, "splits", txn)), nil
}

func (e *TransactionEdit) check(b *Book) error {
	if err := commodity.RequireCurrency(e.Currency); err != nil {
		return &InvalidFieldError{Kind: KindTransaction, ID: e.txn.id, Field: "currency", Err: err}
	}
	if len(e.splits) < 2 {
		return NewInvalidFieldError(KindTransaction, e.txn.id, "splits", "needs at least two splits")
	}
	for _, d := range e.splits {
		var id string
		if d.split != nil {
			id = d.split.id
		}
		if d.Account == nil {
			return NewInvalidFieldError(KindSplit, id, "account", "must not be empty")
		}
		if d.Account.book != b {
			return NewUnknownEntityError(KindAccount, d.Account.id)
		}
		if d.quantitySet && quantityMismatch(d.Account, e.Currency, d.Value, d.quantity) {
			return NewInvalidFieldError(KindSplit, id, "quantity", "must equal value in the transaction currency")
		}
	}
	if imbalance := e.Imbalance(); !imbalance.IsZero() {
		return NewUnbalancedTransactionError(e.txn.id, e.Description, imbalance, e.Currency)
	}
	return nil
}

// SetName renames the customer or vendor.
func (p *party) SetName(name string) (Change, error) {
	if err := p.book.checkWritable(p.kind, p.id); err != nil {
		return Change{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Change{}, NewInvalidFieldError(p.kind, p.id, "name", "must not be empty")
	}
	p.name = name
	return p.book.touch(updated(p.kind, p.id, "name", p.self)), nil
}

// SetNumber sets the customer or vendor number. A blank number is derived from
// the counter when the book is written.
func (p *party) SetNumber(number string) (Change, error) {
	if err := p.book.checkWritable(p.kind, p.id); err != nil {
		return Change{}, err
	}
	p.number = number
	return p.book.touch(updated(p.kind, p.id, "number", p.self)), nil
}

// SetAddress replaces the address.
func (p *party) SetAddress(addr Address) (Change, error) {
	if err := p.book.checkWritable(p.kind, p.id); err != nil {
		return Change{}, err
	}
	addr.Lines = slices.Clone(addr.Lines)
	p.address = addr
	return p.book.touch(updated(p.kind, p.id, "address", p.self)), nil
}

// SetNotes sets free-form notes.
func (p *party) SetNotes(notes string) (Change, error) {
	if err := p.book.checkWritable(p.kind, p.id); err != nil {
		return Change{}, err
	}
	p.notes = notes
	return p.book.touch(updated(p.kind, p.id, "notes", p.self)), nil
}

// SetActive activates or deactivates the customer or vendor.
func (p *party) SetActive(active bool) (Change, error) {
	if err := p.book.checkWritable(p.kind, p.id); err != nil {
		return Change{}, err
	}
	p.active = active
	return p.book.touch(updated(p.kind, p.id, "active", p.self)), nil
}

// SetTaxTable sets the default tax table, nil for none.
func (p *party) SetTaxTable(t *TaxTable) (Change, error) {
	if err := p.book.checkWritable(p.kind, p.id); err != nil {
		return Change{}, err
	}
	if t != nil && t.book != p.book {
		return Change{}, NewUnknownEntityError(KindTaxTable, t.id)
	}
	p.taxTable = t
	p.taxTableRef = ""
	return p.book.touch(updated(p.kind, p.id, "tax table", p.self)), nil
}

// SetTerms sets the default bill terms, nil for none.
func (p *party) SetTerms(t *BillTerms) (Change, error) {
	if err := p.book.checkWritable(p.kind, p.id); err != nil {
		return Change{}, err
	}
	if t != nil && t.book != p.book {
		return Change{}, NewUnknownEntityError(KindBillTerms, t.id)
	}
	p.terms = t
	p.termsRef = ""
	return p.book.touch(updated(p.kind, p.id, "terms", p.self)), nil
}

// SetName renames the job.
func (j *Job) SetName(name string) (Change, error) {
	if err := j.book.checkWritable(KindJob, j.id); err != nil {
		return Change{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Change{}, NewInvalidFieldError(KindJob, j.id, "name", "must not be empty")
	}
	j.name = name
	return j.book.touch(updated(KindJob, j.id, "name", j)), nil
}

// SetReference sets the job reference, such as a purchase order number.
func (j *Job) SetReference(reference string) (Change, error) {
	if err := j.book.checkWritable(KindJob, j.id); err != nil {
		return Change{}, err
	}
	j.reference = reference
	return j.book.touch(updated(KindJob, j.id, "reference", j)), nil
}

// SetActive activates or deactivates the job.
func (j *Job) SetActive(active bool) (Change, error) {
	if err := j.book.checkWritable(KindJob, j.id); err != nil {
		return Change{}, err
	}
	j.active = active
	return j.book.touch(updated(KindJob, j.id, "active", j)), nil
}

// SetOwner moves the job to another customer or vendor. Jobs with invoices keep
// their owner.
func (j *Job) SetOwner(owner Owner) (Change, error) {
	b := j.book
	if err := b.checkWritable(KindJob, j.id); err != nil {
		return Change{}, err
	}
	if err := b.checkJobOwner(j.id, owner); err != nil {
		return Change{}, err
	}
	if len(b.InvoicesOf(JobOwner(j), Direct)) > 0 {
		return Change{}, NewInUseError(KindJob, j.id, "has invoices")
	}
	j.owner = owner
	j.ownerRef = document.Owner{}
	return b.touch(updated(KindJob, j.id, "owner", j)), nil
}

// SetNumber sets the invoice number. A blank number is derived from the counter
// when the book is written.
func (inv *Invoice) SetNumber(number string) (Change, error) {
	if err := inv.book.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	inv.number = number
	return inv.book.touch(updated(KindInvoice, inv.id, "number", inv)), nil
}

// SetDescription sets the invoice description.
func (inv *Invoice) SetDescription(description string) (Change, error) {
	if err := inv.book.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	inv.description = description
	return inv.book.touch(updated(KindInvoice, inv.id, "description", inv)), nil
}

// SetNotes sets free-form notes.
func (inv *Invoice) SetNotes(notes string) (Change, error) {
	if err := inv.book.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	inv.notes = notes
	return inv.book.touch(updated(KindInvoice, inv.id, "notes", inv)), nil
}

// SetActive activates or deactivates the invoice.
func (inv *Invoice) SetActive(active bool) (Change, error) {
	if err := inv.book.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	inv.active = active
	return inv.book.touch(updated(KindInvoice, inv.id, "active", inv)), nil
}

// SetOpened sets the date the invoice was opened.
func (inv *Invoice) SetOpened(opened time.Time) (Change, error) {
	if err := inv.book.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	inv.opened = opened
	return inv.book.touch(updated(KindInvoice, inv.id, "opened", inv)), nil
}

// SetDue sets an explicit due date. A zero date derives it from the bill terms.
func (inv *Invoice) SetDue(due time.Time) (Change, error) {
	if err := inv.book.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	inv.due = due
	return inv.book.touch(updated(KindInvoice, inv.id, "due", inv)), nil
}

// SetTerms sets the bill terms, nil for none.
func (inv *Invoice) SetTerms(t *BillTerms) (Change, error) {
	if err := inv.book.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	if t != nil && t.book != inv.book {
		return Change{}, NewUnknownEntityError(KindBillTerms, t.id)
	}
	inv.terms = t
	inv.termsRef = ""
	return inv.book.touch(updated(KindInvoice, inv.id, "terms", inv)), nil
}

// SetCurrency changes the currency of an unposted, unpaid invoice.
func (inv *Invoice) SetCurrency(currency commodity.ID) (Change, error) {
	if err := inv.book.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	if err := inv.checkEditable(); err != nil {
		return Change{}, err
	}
	if err := commodity.RequireCurrency(currency); err != nil {
		return Change{}, &InvalidFieldError{Kind: KindInvoice, ID: inv.id, Field: "currency", Err: err}
	}
	inv.currency = currency
	return inv.book.touch(updated(KindInvoice, inv.id, "currency", inv)), nil
}

// SetOwner changes the owner of an unposted, unpaid invoice. The kind follows the
// new owner.
func (inv *Invoice) SetOwner(owner Owner) (Change, error) {
	b := inv.book
	if err := b.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	if err := inv.checkEditable(); err != nil {
		return Change{}, err
	}
	if owner.IsZero() {
		return Change{}, NewInvalidFieldError(KindInvoice, inv.id, "owner", "must not be empty")
	}
	if !owner.attachedTo(b) {
		return Change{}, NewUnknownEntityError(ownerEntityKind(owner.kind), owner.ID())
	}
	inv.owner = owner
	inv.ownerRef = document.Owner{}
	inv.kind = invoiceKindOf(owner)
	return b.touch(updated(KindInvoice, inv.id, "owner", inv)), nil
}

// checkEntryWritable guards every change to an invoice line.
func (e *Entry) checkEntryWritable() error {
	if err := e.book.checkWritable(KindEntry, e.id); err != nil {
		return err
	}
	if e.invoice != nil {
		return e.invoice.checkEditable()
	}
	return nil
}

// SetDescription sets the line description.
func (e *Entry) SetDescription(description string) (Change, error) {
	if err := e.checkEntryWritable(); err != nil {
		return Change{}, err
	}
	e.description = description
	return e.book.touch(updated(KindEntry, e.id, "description", e)), nil
}

// SetDate sets the line date.
func (e *Entry) SetDate(date time.Time) (Change, error) {
	if err := e.checkEntryWritable(); err != nil {
		return Change{}, err
	}
	e.date = date
	return e.book.touch(updated(KindEntry, e.id, "date", e)), nil
}

// SetQuantity sets the quantity.
func (e *Entry) SetQuantity(quantity numeric.Decimal) (Change, error) {
	if err := e.checkEntryWritable(); err != nil {
		return Change{}, err
	}
	e.quantity = quantity
	return e.book.touch(updated(KindEntry, e.id, "quantity", e)), nil
}

// SetInvoicePrice sets the unit price charged to a customer. It fails with a
// WrongInvoiceKindError on lines of a vendor bill.
func (e *Entry) SetInvoicePrice(price numeric.Decimal) (Change, error) {
	if err := e.checkEntryWritable(); err != nil {
		return Change{}, err
	}
	if e.isBill() {
		return Change{}, NewWrongInvoiceKindError(e.invoice, "invoice price")
	}
	e.invoicePrice = price
	return e.book.touch(updated(KindEntry, e.id, "invoice price", e)), nil
}

// SetBillPrice sets the unit price billed by a vendor. It fails with a
// WrongInvoiceKindError on lines of a customer invoice.
func (e *Entry) SetBillPrice(price numeric.Decimal) (Change, error) {
	if err := e.checkEntryWritable(); err != nil {
		return Change{}, err
	}
	if !e.isBill() {
		return Change{}, NewWrongInvoiceKindError(e.invoice, "bill price")
	}
	e.billPrice = price
	return e.book.touch(updated(KindEntry, e.id, "bill price", e)), nil
}

// SetAccount sets the income or expense account of the line.
func (e *Entry) SetAccount(acc *Account) (Change, error) {
	if err := e.checkEntryWritable(); err != nil {
		return Change{}, err
	}
	if acc != nil && acc.book != e.book {
		return Change{}, NewUnknownEntityError(KindAccount, acc.id)
	}
	e.account = acc
	e.accountRef = ""
	return e.book.touch(updated(KindEntry, e.id, "account", e)), nil
}

// SetTax sets the tax table of the line. A nil table makes the line tax free.
func (e *Entry) SetTax(t *TaxTable, included bool) (Change, error) {
	if err := e.checkEntryWritable(); err != nil {
		return Change{}, err
	}
	if t != nil && t.book != e.book {
		return Change{}, NewUnknownEntityError(KindTaxTable, t.id)
	}
	e.taxTable = t
	e.taxTableRef = ""
	e.taxable = t != nil
	e.taxIncluded = included
	return e.book.touch(updated(KindEntry, e.id, "tax", e)), nil
}

// SetName renames the tax table.
func (t *TaxTable) SetName(name string) (Change, error) {
	if err := t.book.checkWritable(KindTaxTable, t.id); err != nil {
		return Change{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Change{}, NewInvalidFieldError(KindTaxTable, t.id, "name", "must not be empty")
	}
	t.name = name
	return t.book.touch(updated(KindTaxTable, t.id, "name", t)), nil
}

// SetName renames the bill terms.
func (t *BillTerms) SetName(name string) (Change, error) {
	if err := t.book.checkWritable(KindBillTerms, t.id); err != nil {
		return Change{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Change{}, NewInvalidFieldError(KindBillTerms, t.id, "name", "must not be empty")
	}
	t.name = name
	return t.book.touch(updated(KindBillTerms, t.id, "name", t)), nil
}

// SetDueDays sets the number of days until an invoice is due.
func (t *BillTerms) SetDueDays(days int) (Change, error) {
	if err := t.book.checkWritable(KindBillTerms, t.id); err != nil {
		return Change{}, err
	}
	if days < 0 {
		return Change{}, NewInvalidFieldError(KindBillTerms, t.id, "due days", "must not be negative")
	}
	t.dueDays = days
	return t.book.touch(updated(KindBillTerms, t.id, "due days", t)), nil
}

// SetDiscount sets the early payment discount in percent and the days it applies.
func (t *BillTerms) SetDiscount(percent numeric.Decimal, days int) (Change, error) {
	if err := t.book.checkWritable(KindBillTerms, t.id); err != nil {
		return Change{}, err
	}
	if percent.IsNegative() || days < 0 {
		return Change{}, NewInvalidFieldError(KindBillTerms, t.id, "discount", "must not be negative")
	}
	t.discount = percent
	t.discountDays = days
	return t.book.touch(updated(KindBillTerms, t.id, "discount", t)), nil
}
