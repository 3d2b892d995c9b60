// Package document defines the typed node tree exchanged with the XML reader and
// writer of a book file. Nodes carry values exactly as they appear on disk: numbers
// are fractions such as "132760/100", commodities are NAMESPACE:CODE strings and
// references are ids. The ledger package turns a Book into a queryable model and
// exports it back into the same shape.
package document

import "time"

// Owner type tags used by invoices and jobs.
const (
	OwnerCustomer = "gncCustomer"
	OwnerVendor   = "gncVendor"
	OwnerJob      = "gncJob"
)

// Counter keys for sequence numbers stored in the book.
const (
	CounterCustomer = "gncCustomer"
	CounterVendor   = "gncVendor"
	CounterJob      = "gncJob"
	CounterInvoice  = "gncInvoice"
	CounterBill     = "gncBill"
)

// Book is the root of a parsed book file.
type Book struct {
	ID      string
	Options map[string]string
	// Counters holds the last sequence number issued per kind.
	Counters map[string]int64

	Commodities  []*Commodity
	Accounts     []*Account
	Transactions []*Transaction
	Prices       []*Price
	Customers    []*Customer
	Vendors      []*Vendor
	Jobs         []*Job
	Invoices     []*Invoice
	Entries      []*Entry
	TaxTables    []*TaxTable
	BillTerms    []*BillTerm
}

// Commodity defines a currency or security used by the book.
type Commodity struct {
	Namespace string
	Code      string
	Name      string
	// XCode is an optional exchange code such as an ISIN.
	XCode string
	// Fraction is the smallest unit, 100 for cents.
	Fraction int64
}

// Account is one node of the account tree. Parent is empty for the root.
type Account struct {
	ID          string
	Name        string
	Type        string
	Commodity   string
	Parent      string
	Code        string
	Description string
	Placeholder bool
	Hidden      bool
}

// Transaction is a balanced set of splits.
type Transaction struct {
	ID          string
	Num         string
	Description string
	Currency    string
	Posted      time.Time
	Entered     time.Time
	Splits      []*Split
}

// Split is one leg of a transaction. Value is in the transaction currency and
// Quantity in the account commodity.
type Split struct {
	ID        string
	Account   string
	Value     string
	Quantity  string
	Lot       string
	Action    string
	Memo      string
	Reconcile string
}

// Price quotes one unit of Commodity in Currency.
type Price struct {
	ID        string
	Commodity string
	Currency  string
	Time      time.Time
	Value     string
	Source    string
	Type      string
}

// Owner references a customer, vendor or job by type tag and id.
type Owner struct {
	Type string
	ID   string
}

// Address of a customer or vendor.
type Address struct {
	Name  string
	Lines []string
	Phone string
	Email string
}

// Customer is someone invoices are issued to.
type Customer struct {
	ID       string
	Number   string
	Name     string
	Address  Address
	Currency string
	TaxTable string
	Terms    string
	Notes    string
	Active   bool
}

// Vendor is someone bills are received from.
type Vendor struct {
	ID       string
	Number   string
	Name     string
	Address  Address
	Currency string
	TaxTable string
	Terms    string
	Notes    string
	Active   bool
}

// Job groups invoices or bills of one customer or vendor.
type Job struct {
	ID        string
	Number    string
	Name      string
	Reference string
	Owner     Owner
	Active    bool
}

// Invoice is a customer invoice, vendor bill or job invoice depending on its owner.
type Invoice struct {
	ID          string
	Number      string
	Description string
	Notes       string
	Owner       Owner
	Opened      time.Time
	Posted      time.Time
	Due         time.Time
	PostAccount string
	PostTxn     string
	PostLot     string
	Currency    string
	Terms       string
	Active      bool
}

// Entry is one line of an invoice. InvoicePrice applies when the owner is a customer
// and BillPrice when it is a vendor.
type Entry struct {
	ID           string
	Invoice      string
	Date         time.Time
	Description  string
	Action       string
	Notes        string
	Quantity     string
	InvoicePrice string
	BillPrice    string
	Taxable      bool
	TaxIncluded  bool
	TaxTable     string
	Account      string
}

// TaxTable is a named set of tax rates.
type TaxTable struct {
	ID      string
	Name    string
	Entries []*TaxTableEntry
}

// TaxTableEntry is one rate of a tax table. Type is PERCENT or VALUE.
type TaxTableEntry struct {
	Account string
	Type    string
	Amount  string
}

// BillTerm describes when an invoice is due and any early payment discount.
type BillTerm struct {
	ID           string
	Name         string
	Description  string
	DueDays      int
	DiscountDays int
	Discount     string
}
