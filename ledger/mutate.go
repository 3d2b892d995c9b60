package ledger

import (
	"strings"
	"time"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/numeric"
)

// NewCommodity defines a commodity. The fraction is the smallest unit, 100 for
// cents.
func (b *Book) NewCommodity(id commodity.ID, name string, fraction int64) (*Commodity, Change, error) {
	if err := b.checkWritable(KindCommodity, id.WireString()); err != nil {
		return nil, Change{}, err
	}
	if id.IsZero() {
		return nil, Change{}, NewInvalidFieldError(KindCommodity, "", "id", "must not be empty")
	}
	if _, ok := b.commodities.get(id.WireString()); ok {
		return nil, Change{}, &DuplicateIDError{Kind: KindCommodity, ID: id.WireString()}
	}
	if fraction <= 0 {
		return nil, Change{}, NewInvalidFieldError(KindCommodity, id.WireString(), "fraction", "must be positive")
	}
	c := &Commodity{book: b, id: id, name: name, fraction: fraction}
	b.commodities.add(id.WireString(), c)
	return c, b.touch(added(KindCommodity, id.WireString(), c)), nil
}

// NewAccount creates an account below parent. Only root accounts have no parent.
func (b *Book) NewAccount(name string, typ AccountType, cmdty commodity.ID, parent *Account) (*Account, Change, error) {
	if err := b.checkWritable(KindAccount, ""); err != nil {
		return nil, Change{}, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, Change{}, NewInvalidFieldError(KindAccount, "", "name", "must not be empty")
	}
	if strings.Contains(name, ":") {
		return nil, Change{}, NewInvalidFieldError(KindAccount, "", "name", "must not contain ':'")
	}
	if _, ok := accountTypeNames[typ]; !ok {
		return nil, Change{}, NewInvalidFieldError(KindAccount, "", "type", "unknown account type")
	}
	switch {
	case typ == AccountTypeRoot && parent != nil:
		return nil, Change{}, NewInvalidFieldError(KindAccount, "", "parent", "a root account has no parent")
	case typ != AccountTypeRoot && parent == nil:
		return nil, Change{}, NewInvalidFieldError(KindAccount, "", "parent", "must not be empty")
	case parent != nil && parent.book != b:
		return nil, Change{}, NewUnknownEntityError(KindAccount, parent.id)
	}

	acc := &Account{book: b, name: name, typ: typ, commodity: cmdty, parent: parent}
	if parent != nil {
		parent.children = append(parent.children, acc)
		b.balances.invalidateAccount(acc)
	}
	b.accounts.add("", acc)
	return acc, b.touch(added(KindAccount, "", acc)), nil
}

// NewCustomer creates an active customer.
func (b *Book) NewCustomer(name string, currency commodity.ID) (*Customer, Change, error) {
	p, err := b.newParty(KindCustomer, name, currency)
	if err != nil {
		return nil, Change{}, err
	}
	c := &Customer{party: *p}
	c.self = c
	b.customers.add("", c)
	return c, b.touch(added(KindCustomer, "", c)), nil
}

// NewVendor creates an active vendor.
func (b *Book) NewVendor(name string, currency commodity.ID) (*Vendor, Change, error) {
	p, err := b.newParty(KindVendor, name, currency)
	if err != nil {
		return nil, Change{}, err
	}
	v := &Vendor{party: *p}
	v.self = v
	b.vendors.add("", v)
	return v, b.touch(added(KindVendor, "", v)), nil
}

func (b *Book) newParty(kind EntityKind, name string, currency commodity.ID) (*party, error) {
	if err := b.checkWritable(kind, ""); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewInvalidFieldError(kind, "", "name", "must not be empty")
	}
	if err := commodity.RequireCurrency(currency); err != nil {
		return nil, &InvalidFieldError{Kind: kind, Field: "currency", Err: err}
	}
	return &party{book: b, kind: kind, name: name, currency: currency, active: true}, nil
}

// NewJob creates an active job for a customer or vendor.
func (b *Book) NewJob(name string, owner Owner) (*Job, Change, error) {
	if err := b.checkWritable(KindJob, ""); err != nil {
		return nil, Change{}, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, Change{}, NewInvalidFieldError(KindJob, "", "name", "must not be empty")
	}
	if err := b.checkJobOwner("", owner); err != nil {
		return nil, Change{}, err
	}
	j := &Job{book: b, name: name, owner: owner, active: true}
	b.jobs.add("", j)
	return j, b.touch(added(KindJob, "", j)), nil
}

func (b *Book) checkJobOwner(id string, owner Owner) error {
	if owner.kind != OwnerCustomer && owner.kind != OwnerVendor {
		return NewInvalidFieldError(KindJob, id, "owner", "must be a customer or vendor")
	}
	if !owner.attachedTo(b) {
		return NewUnknownEntityError(ownerEntityKind(owner.kind), owner.ID())
	}
	return nil
}

func ownerEntityKind(k OwnerKind) EntityKind {
	switch k {
	case OwnerVendor:
		return KindVendor
	case OwnerJob:
		return KindJob
	default:
		return KindCustomer
	}
}

// NewTransaction creates a transaction from at least two splits whose values sum to
// zero.
func (b *Book) NewTransaction(currency commodity.ID, posted time.Time, description string, splits ...SplitSpec) (*Transaction, Change, error) {
	if err := b.checkWritable(KindTransaction, ""); err != nil {
		return nil, Change{}, err
	}
	txn, err := b.newTransaction(currency, posted, description, splits)
	if err != nil {
		return nil, Change{}, err
	}
	return txn, b.touch(added(KindTransaction, "", txn)), nil
}

// newTransaction validates and attaches a transaction without recording a change.
func (b *Book) newTransaction(currency commodity.ID, posted time.Time, description string, specs []SplitSpec) (*Transaction, error) {
	if err := commodity.RequireCurrency(currency); err != nil {
		return nil, &InvalidFieldError{Kind: KindTransaction, Field: "currency", Err: err}
	}
	if len(specs) < 2 {
		return nil, NewInvalidFieldError(KindTransaction, "", "splits", "needs at least two splits")
	}
	total := numeric.Zero
	for _, spec := range specs {
		if spec.Account == nil {
			return nil, NewInvalidFieldError(KindSplit, "", "account", "must not be empty")
		}
		if spec.Account.book != b {
			return nil, NewUnknownEntityError(KindAccount, spec.Account.id)
		}
		if spec.Quantity != nil && quantityMismatch(spec.Account, currency, spec.Value, *spec.Quantity) {
			return nil, NewInvalidFieldError(KindSplit, "", "quantity", "must equal value in the transaction currency")
		}
		total = total.Add(spec.Value)
	}
	if !total.IsZero() {
		return nil, NewUnbalancedTransactionError("", description, total, currency)
	}

	txn := &Transaction{
		book:        b,
		description: description,
		currency:    currency,
		posted:      posted,
		entered:     posted,
	}
	for _, spec := range specs {
		s := spec.build(txn)
		txn.splits = append(txn.splits, s)
	}
	b.attachTransaction(txn)
	return txn, nil
}

func (b *Book) attachTransaction(txn *Transaction) {
	b.transactions.add(txn.id, txn)
	for _, s := range txn.splits {
		if s.account != nil {
			s.account.splits = append(s.account.splits, s)
			b.balances.invalidateAccount(s.account)
		}
	}
}

// NewInvoice creates an unposted invoice. The kind follows from the owner: a
// customer invoice, a vendor bill or a job invoice.
func (b *Book) NewInvoice(owner Owner, currency commodity.ID, opened time.Time) (*Invoice, Change, error) {
	if err := b.checkWritable(KindInvoice, ""); err != nil {
		return nil, Change{}, err
	}
	if owner.IsZero() {
		return nil, Change{}, NewInvalidFieldError(KindInvoice, "", "owner", "must not be empty")
	}
	if !owner.attachedTo(b) {
		return nil, Change{}, NewUnknownEntityError(ownerEntityKind(owner.kind), owner.ID())
	}
	if err := commodity.RequireCurrency(currency); err != nil {
		return nil, Change{}, &InvalidFieldError{Kind: KindInvoice, Field: "currency", Err: err}
	}
	inv := &Invoice{
		book:     b,
		kind:     invoiceKindOf(owner),
		owner:    owner,
		opened:   opened,
		currency: currency,
		active:   true,
	}
	switch owner.kind {
	case OwnerCustomer:
		inv.terms = owner.customer.terms
	case OwnerVendor:
		inv.terms = owner.vendor.terms
	}
	b.invoices.add("", inv)
	return inv, b.touch(added(KindInvoice, "", inv)), nil
}

// EntrySpec describes an invoice line to create. Price is the unit price of the
// invoice's side.
type EntrySpec struct {
	Date        time.Time
	Description string
	Action      string
	Quantity    numeric.Decimal
	Price       numeric.Decimal
	Account     *Account
	TaxTable    *TaxTable
	TaxIncluded bool
}

// NewEntry adds a line to an unposted invoice.
func (b *Book) NewEntry(inv *Invoice, spec EntrySpec) (*Entry, Change, error) {
	if err := b.checkWritable(KindEntry, ""); err != nil {
		return nil, Change{}, err
	}
	if inv.book != b {
		return nil, Change{}, NewUnknownEntityError(KindInvoice, inv.id)
	}
	if err := inv.checkEditable(); err != nil {
		return nil, Change{}, err
	}
	if spec.Account != nil && spec.Account.book != b {
		return nil, Change{}, NewUnknownEntityError(KindAccount, spec.Account.id)
	}
	if spec.TaxTable != nil && spec.TaxTable.book != b {
		return nil, Change{}, NewUnknownEntityError(KindTaxTable, spec.TaxTable.id)
	}

	e := &Entry{
		book:        b,
		invoice:     inv,
		date:        spec.Date,
		description: spec.Description,
		action:      spec.Action,
		quantity:    spec.Quantity,
		account:     spec.Account,
		taxTable:    spec.TaxTable,
		taxable:     spec.TaxTable != nil,
		taxIncluded: spec.TaxIncluded,
	}
	if inv.IsBill() {
		e.billPrice = spec.Price
	} else {
		e.invoicePrice = spec.Price
	}
	inv.entries = append(inv.entries, e)
	b.entries.add("", e)
	return e, b.touch(added(KindEntry, "", e)), nil
}

// checkEditable rejects changes to the lines of a paid or posted invoice.
func (inv *Invoice) checkEditable() error {
	if inv.IsPaid() {
		return NewInUseError(KindInvoice, inv.id, "paid")
	}
	if inv.IsPosted() {
		return NewInUseError(KindInvoice, inv.id, "posted")
	}
	return nil
}

// NewTaxTable creates a tax table from its rates.
func (b *Book) NewTaxTable(name string, rates ...TaxRate) (*TaxTable, Change, error) {
	if err := b.checkWritable(KindTaxTable, ""); err != nil {
		return nil, Change{}, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, Change{}, NewInvalidFieldError(KindTaxTable, "", "name", "must not be empty")
	}
	t := &TaxTable{book: b, name: name}
	for _, rate := range rates {
		if rate.Account == nil {
			return nil, Change{}, NewInvalidFieldError(KindTaxTable, "", "account", "must not be empty")
		}
		if rate.Account.book != b {
			return nil, Change{}, NewUnknownEntityError(KindAccount, rate.Account.id)
		}
		if rate.Type != TaxPercent && rate.Type != TaxValue {
			return nil, Change{}, NewInvalidFieldError(KindTaxTable, "", "type", "must be PERCENT or VALUE")
		}
		t.entries = append(t.entries, &TaxTableEntry{account: rate.Account, typ: rate.Type, amount: rate.Amount})
	}
	b.taxTables.add("", t)
	return t, b.touch(added(KindTaxTable, "", t)), nil
}

// NewBillTerms creates bill terms due a number of days after posting.
func (b *Book) NewBillTerms(name string, dueDays int) (*BillTerms, Change, error) {
	if err := b.checkWritable(KindBillTerms, ""); err != nil {
		return nil, Change{}, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, Change{}, NewInvalidFieldError(KindBillTerms, "", "name", "must not be empty")
	}
	if dueDays < 0 {
		return nil, Change{}, NewInvalidFieldError(KindBillTerms, "", "due days", "must not be negative")
	}
	t := &BillTerms{book: b, name: name, dueDays: dueDays}
	b.billTerms.add("", t)
	return t, b.touch(added(KindBillTerms, "", t)), nil
}
