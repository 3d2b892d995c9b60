package ledger

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/document"
	"github.com/robinvdvleuten/cashbook/numeric"
)

// InvoiceKind is decided by the owner of an invoice when it is loaded or created.
type InvoiceKind int

const (
	InvoiceKindUnknown InvoiceKind = iota
	// CustomerInvoice is owned directly by a customer.
	CustomerInvoice
	// VendorBill is owned directly by a vendor.
	VendorBill
	// JobInvoice is owned by a job. Whether it bills a customer or is billed by a
	// vendor follows from the job's owner.
	JobInvoice
)

func (k InvoiceKind) String() string {
	switch k {
	case CustomerInvoice:
		return "customer invoice"
	case VendorBill:
		return "vendor bill"
	case JobInvoice:
		return "job invoice"
	default:
		return "unknown invoice"
	}
}

func invoiceKindOf(owner Owner) InvoiceKind {
	switch owner.kind {
	case OwnerCustomer:
		return CustomerInvoice
	case OwnerVendor:
		return VendorBill
	case OwnerJob:
		return JobInvoice
	default:
		return InvoiceKindUnknown
	}
}

// Invoice is a customer invoice, vendor bill or job invoice. All kinds share one set
// of operations; the kind only selects the entry price side and the signs of the
// posting.
type Invoice struct {
	book *Book

	id          string
	number      string
	description string
	notes       string
	kind        InvoiceKind
	owner       Owner
	opened      time.Time
	posted      time.Time
	due         time.Time
	postAccount *Account
	postTxn     *Transaction
	lot         string
	currency    commodity.ID
	terms       *BillTerms
	active      bool
	entries     []*Entry

	ownerRef       document.Owner
	postAccountRef string
	postTxnRef     string
	termsRef       string
}

func (inv *Invoice) ID() string { return inv.id }
func (inv *Invoice) Number() string { return inv.number }
func (inv *Invoice) Description() string { return inv.description }
func (inv *Invoice) Notes() string { return inv.notes }
func (inv *Invoice) Kind() InvoiceKind { return inv.kind }
func (inv *Invoice) Opened() time.Time { return inv.opened }
func (inv *Invoice) Posted() time.Time { return inv.posted }
func (inv *Invoice) Currency() commodity.ID { return inv.currency }
func (inv *Invoice) Terms() *BillTerms { return inv.terms }
func (inv *Invoice) IsActive() bool { return inv.active }

// PostAccount returns the receivable or payable account the invoice is posted to.
func (inv *Invoice) PostAccount() *Account { return inv.postAccount }

// PostTransaction returns the transaction created by posting the invoice.
func (inv *Invoice) PostTransaction() *Transaction { return inv.postTxn }

// Lot returns the lot id that links the posting and its payments.
func (inv *Invoice) Lot() string { return inv.lot }

// IsPosted reports whether the invoice has a posting transaction.
func (inv *Invoice) IsPosted() bool { return inv.postTxn != nil }

// Entries returns the invoice lines in order.
func (inv *Invoice) Entries() []*Entry { return slices.Clone(inv.entries) }

// IsBill reports whether the invoice is billed by a vendor, directly or through a
// job.
func (inv *Invoice) IsBill() bool { return inv.side() == OwnerVendor }

// side returns OwnerCustomer or OwnerVendor, or OwnerNone when the owner chain is
// broken.
func (inv *Invoice) side() OwnerKind { return inv.owner.side() }

// Owner returns the immediate owner for Direct and the job's customer or vendor for
// ViaJob. ViaJob on an invoice that is not owned by a job fails with a
// WrongOwnerKindError.
func (inv *Invoice) Owner(res Resolution) (Owner, error) {
	switch res {
	case Direct:
		return inv.owner, nil
	case ViaJob:
		if inv.owner.kind != OwnerJob || inv.owner.job == nil {
			return Owner{}, NewWrongOwnerKindError(inv, res)
		}
		return inv.owner.job.owner, nil
	default:
		return Owner{}, fmt.Errorf("unknown owner resolution %d", res)
	}
}

// Customer returns the customer billed by the invoice, following a job owner. It
// fails with a WrongInvoiceKindError on vendor bills.
func (inv *Invoice) Customer() (*Customer, error) {
	if inv.side() != OwnerCustomer {
		return nil, NewWrongInvoiceKindError(inv, "customer")
	}
	if inv.owner.kind == OwnerJob {
		return inv.owner.job.owner.customer, nil
	}
	return inv.owner.customer, nil
}

// Vendor returns the vendor that issued the bill, following a job owner. It fails
// with a WrongInvoiceKindError on customer invoices.
func (inv *Invoice) Vendor() (*Vendor, error) {
	if inv.side() != OwnerVendor {
		return nil, NewWrongInvoiceKindError(inv, "vendor")
	}
	if inv.owner.kind == OwnerJob {
		return inv.owner.job.owner.vendor, nil
	}
	return inv.owner.vendor, nil
}

// DueDate returns the explicit due date, or the posted (else opened) date plus the
// due days of the bill terms. It is zero when neither is known.
func (inv *Invoice) DueDate() time.Time {
	if !inv.due.IsZero() {
		return inv.due
	}
	if inv.terms == nil {
		return time.Time{}
	}
	base := inv.posted
	if base.IsZero() {
		base = inv.opened
	}
	return inv.terms.DueDate(base)
}

// Entry is one line of an invoice.
type Entry struct {
	book *Book

	id           string
	invoice      *Invoice
	date         time.Time
	description  string
	action       string
	notes        string
	quantity     numeric.Decimal
	invoicePrice numeric.Decimal
	billPrice    numeric.Decimal
	taxable      bool
	taxIncluded  bool
	taxTable     *TaxTable
	account      *Account

	invoiceRef  string
	taxTableRef string
	accountRef  string
}

func (e *Entry) ID() string { return e.id }
func (e *Entry) Invoice() *Invoice { return e.invoice }
func (e *Entry) Date() time.Time { return e.date }
func (e *Entry) Description() string { return e.description }
func (e *Entry) Action() string { return e.action }
func (e *Entry) Notes() string { return e.notes }
func (e *Entry) Quantity() numeric.Decimal { return e.quantity }
func (e *Entry) IsTaxable() bool { return e.taxable }
func (e *Entry) IsTaxIncluded() bool { return e.taxIncluded }
func (e *Entry) TaxTable() *TaxTable { return e.taxTable }

// Account returns the income or expense account the line is posted to.
func (e *Entry) Account() *Account { return e.account }

func (e *Entry) isBill() bool {
	return e.invoice != nil && e.invoice.IsBill()
}

// InvoicePrice returns the unit price charged to a customer. It fails with a
// WrongInvoiceKindError on lines of a vendor bill.
func (e *Entry) InvoicePrice() (numeric.Decimal, error) {
	if e.isBill() {
		return numeric.Zero, NewWrongInvoiceKindError(e.invoice, "invoice price")
	}
	return e.invoicePrice, nil
}

// BillPrice returns the unit price billed by a vendor. It fails with a
// WrongInvoiceKindError on lines of a customer invoice.
func (e *Entry) BillPrice() (numeric.Decimal, error) {
	if !e.isBill() {
		return numeric.Zero, NewWrongInvoiceKindError(e.invoice, "bill price")
	}
	return e.billPrice, nil
}

// UnitPrice returns the price of the side the invoice is on.
func (e *Entry) UnitPrice() numeric.Decimal {
	if e.isBill() {
		return e.billPrice
	}
	return e.invoicePrice
}

// Amount returns quantity × unit price, unrounded.
func (e *Entry) Amount() numeric.Decimal {
	return e.quantity.Mul(e.UnitPrice())
}

// TaxType is how a tax table entry applies.
type TaxType int

const (
	// TaxPercent is a percentage of the net amount.
	TaxPercent TaxType = iota + 1
	// TaxValue is a fixed amount per invoice line.
	TaxValue
)

func (t TaxType) String() string {
	switch t {
	case TaxPercent:
		return "PERCENT"
	case TaxValue:
		return "VALUE"
	default:
		return "UNKNOWN"
	}
}

// ParseTaxType parses PERCENT or VALUE.
func ParseTaxType(s string) (TaxType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PERCENT":
		return TaxPercent, nil
	case "VALUE":
		return TaxValue, nil
	default:
		return 0, fmt.Errorf("unknown tax type %q", s)
	}
}

// TaxRate describes one tax table entry to create.
type TaxRate struct {
	Account *Account
	Type    TaxType
	Amount  numeric.Decimal
}

// TaxTableEntry is one rate of a tax table, booked to its own tax account.
type TaxTableEntry struct {
	account    *Account
	accountRef string
	typ        TaxType
	amount     numeric.Decimal
}

func (t *TaxTableEntry) Account() *Account { return t.account }
func (t *TaxTableEntry) Type() TaxType { return t.typ }
func (t *TaxTableEntry) Amount() numeric.Decimal { return t.amount }

// TaxTable is a named set of tax rates.
type TaxTable struct {
	book    *Book
	id      string
	name    string
	entries []*TaxTableEntry
}

func (t *TaxTable) ID() string { return t.id }
func (t *TaxTable) Name() string { return t.name }

// Entries returns the rates of the table.
func (t *TaxTable) Entries() []*TaxTableEntry { return slices.Clone(t.entries) }

// Percent returns the sum of the PERCENT rates.
func (t *TaxTable) Percent() numeric.Decimal {
	total := numeric.Zero
	for _, e := range t.entries {
		if e.typ == TaxPercent {
			total = total.Add(e.amount)
		}
	}
	return total
}

// Value returns the sum of the VALUE rates.
func (t *TaxTable) Value() numeric.Decimal {
	total := numeric.Zero
	for _, e := range t.entries {
		if e.typ == TaxValue {
			total = total.Add(e.amount)
		}
	}
	return total
}

// BillTerms say when an invoice is due and what discount applies to early payment.
type BillTerms struct {
	book *Book

	id           string
	name         string
	description  string
	dueDays      int
	discountDays int
	discount     numeric.Decimal
}

func (t *BillTerms) ID() string { return t.id }
func (t *BillTerms) Name() string { return t.name }
func (t *BillTerms) Description() string { return t.description }
func (t *BillTerms) DueDays() int { return t.dueDays }
func (t *BillTerms) DiscountDays() int { return t.discountDays }

// Discount returns the early payment discount in percent.
func (t *BillTerms) Discount() numeric.Decimal { return t.discount }

// DueDate returns from plus the due days.
func (t *BillTerms) DueDate(from time.Time) time.Time {
	return from.AddDate(0, 0, t.dueDays)
}

// DiscountDate returns the last day the discount applies, zero without a discount.
func (t *BillTerms) DiscountDate(from time.Time) time.Time {
	if t.discount.IsZero() {
		return time.Time{}
	}
	return from.AddDate(0, 0, t.discountDays)
}
