// Package ledger turns a parsed book document into a queryable, writable model of
// accounts, transactions, prices and business records.
//
// A Book is built by Load from a document.Book, or empty by New. Every record is a
// live handle: accounts know their parent, children and splits, invoices know their
// owner, entries and posting transaction. Queries never fail on a loaded book; the
// problems found while loading (unbalanced transactions, dangling references, account
// cycles) are reported together in a *ValidationError but the book is still returned.
//
// Mutations go through the book or its handles and return a Change describing what
// happened:
//
//	book, err := ledger.Load(ctx, doc)
//	if err != nil {
//	    var verr *ledger.ValidationError
//	    if !errors.As(err, &verr) {
//	        return err
//	    }
//	    // report verr.Errors and continue with the book
//	}
//
//	acc, _ := book.AccountByName("Assets:Receivables")
//	change, err := acc.SetDescription("Open customer invoices")
//
//	if err := book.Write(ctx, dst); err != nil {
//	    // nothing was written, the book is unchanged
//	}
//
// Write validates the whole book, derives blank ids and sequence numbers and hands
// the exported document to a Destination. A failed write never reaches the
// destination and never changes the book.
//
// A Book is not safe for concurrent mutation. Readers that run alongside a writer
// take a Snapshot, which is a deep read-only copy.
package ledger

import (
	"log/slog"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/robinvdvleuten/cashbook/commodity"
)

// Book is the in-memory model of one book file.
type Book struct {
	id       string
	cfg      *Config
	logger   *slog.Logger
	registry *commodity.Registry
	readOnly bool
	modified bool

	commodities  *index[*Commodity]
	accounts     *index[*Account]
	transactions *index[*Transaction]
	customers    *index[*Customer]
	vendors      *index[*Vendor]
	jobs         *index[*Job]
	invoices     *index[*Invoice]
	entries      *index[*Entry]
	taxTables    *index[*TaxTable]
	billTerms    *index[*BillTerms]
	prices       *PriceDB

	counters map[string]int64
	options  map[string]string
	balances *balanceCache
}

// Option configures a Book created by New or Load.
type Option func(*Book)

// WithConfig sets the configuration. It takes precedence over a configuration
// attached to the context and over the document's options.
func WithConfig(cfg *Config) Option {
	return func(b *Book) {
		b.cfg = cfg
	}
}

// WithLogger sets the logger receiving load, write and reconciliation events.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Book) {
		b.logger = logger
	}
}

// WithRegistry sets the namespace registry used to classify commodity ids.
func WithRegistry(registry *commodity.Registry) Option {
	return func(b *Book) {
		b.registry = registry
	}
}

func newBook(opts ...Option) *Book {
	b := &Book{
		logger:       slog.New(slog.DiscardHandler),
		registry:     commodity.DefaultRegistry(),
		commodities:  newIndex[*Commodity](),
		accounts:     newIndex[*Account](),
		transactions: newIndex[*Transaction](),
		customers:    newIndex[*Customer](),
		vendors:      newIndex[*Vendor](),
		jobs:         newIndex[*Job](),
		invoices:     newIndex[*Invoice](),
		entries:      newIndex[*Entry](),
		taxTables:    newIndex[*TaxTable](),
		billTerms:    newIndex[*BillTerms](),
		counters:     make(map[string]int64),
		options:      make(map[string]string),
		balances:     newBalanceCache(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.prices = newPriceDB(b)
	return b
}

// New creates an empty book holding only a root account. Its id and the ids of
// everything added to it are derived when the book is first written.
func New(opts ...Option) *Book {
	b := newBook(opts...)
	if b.cfg == nil {
		b.cfg = NewConfig()
	}
	root := &Account{book: b, name: "Root Account", typ: AccountTypeRoot, commodity: b.cfg.BaseCurrency}
	b.accounts.add("", root)
	return b
}

// ID returns the book id, empty until a new book is written.
func (b *Book) ID() string { return b.id }

// Config returns the configuration in effect.
func (b *Book) Config() *Config { return b.config() }

// Registry returns the namespace registry used to classify commodity ids.
func (b *Book) Registry() *commodity.Registry { return b.registry }

// IsReadOnly reports whether the book is a snapshot.
func (b *Book) IsReadOnly() bool { return b.readOnly }

// IsModified reports whether the book changed since it was loaded or last written.
func (b *Book) IsModified() bool { return b.modified }

// MarkModified flags the book as changed without changing anything.
func (b *Book) MarkModified() error {
	if b.readOnly {
		return ErrReadOnly
	}
	b.modified = true
	return nil
}

// Options returns a copy of the book options, such as "base_currency".
func (b *Book) Options() map[string]string { return maps.Clone(b.options) }

// Counter returns the last sequence number issued for a counter such as
// document.CounterInvoice.
func (b *Book) Counter(kind string) int64 { return b.counters[kind] }

var defaultConfig = NewConfig()

func (b *Book) config() *Config {
	if b == nil || b.cfg == nil {
		return defaultConfig
	}
	return b.cfg
}

// checkWritable fails for handles that do not belong to a live book and for
// snapshots.
func (b *Book) checkWritable(kind EntityKind, id string) error {
	if b == nil {
		return NewUnknownEntityError(kind, id)
	}
	if b.readOnly {
		return ErrReadOnly
	}
	return nil
}

// touch marks the book modified and returns c.
func (b *Book) touch(c Change) Change {
	b.modified = true
	b.logger.Debug("book changed", slog.String("change", c.String()))
	return c
}

// scaleOf returns the number of decimals amounts in id are rounded to. A commodity
// definition with a power-of-ten fraction wins over the ISO-4217 standard.
func (b *Book) scaleOf(id commodity.ID) int32 {
	if b != nil {
		if c, ok := b.commodities.get(id.WireString()); ok {
			if scale, ok := c.Scale(); ok {
				return scale
			}
		}
	}
	return commodity.CurrencyScale(id.Code())
}

// Root returns the root of the account tree.
func (b *Book) Root() *Account {
	for _, acc := range b.accounts.order {
		if acc.typ == AccountTypeRoot && acc.parent == nil {
			return acc
		}
	}
	return nil
}

// Commodity returns the definition of a commodity.
func (b *Book) Commodity(id commodity.ID) (*Commodity, bool) {
	return b.commodities.get(id.WireString())
}

// Commodities returns every commodity definition in document order.
func (b *Book) Commodities() []*Commodity { return b.commodities.all() }

// Account returns the account with the given id.
func (b *Book) Account(id string) (*Account, bool) { return b.accounts.get(id) }

// AccountByName returns the account with the given colon-separated full name,
// such as "Assets:Receivables:CustomerX".
func (b *Book) AccountByName(fullName string) (*Account, bool) {
	root := b.Root()
	if root == nil {
		return nil, false
	}
	acc := root
	for _, part := range strings.Split(fullName, ":") {
		var next *Account
		for _, child := range acc.children {
			if child.name == part {
				next = child
				break
			}
		}
		if next == nil {
			return nil, false
		}
		acc = next
	}
	return acc, true
}

// Accounts returns every account in document order.
func (b *Book) Accounts() []*Account { return b.accounts.all() }

// Transaction returns the transaction with the given id.
func (b *Book) Transaction(id string) (*Transaction, bool) { return b.transactions.get(id) }

// Transactions returns every transaction in document order.
func (b *Book) Transactions() []*Transaction { return b.transactions.all() }

// Split returns the split with the given id.
func (b *Book) Split(id string) (*Split, bool) {
	if id == "" {
		return nil, false
	}
	for _, txn := range b.transactions.order {
		for _, s := range txn.splits {
			if s.id == id {
				return s, true
			}
		}
	}
	return nil, false
}

// Customer returns the customer with the given id.
func (b *Book) Customer(id string) (*Customer, bool) { return b.customers.get(id) }

// CustomerByName returns the first customer with the given name.
func (b *Book) CustomerByName(name string) (*Customer, bool) {
	return findFirst(b.customers.order, func(c *Customer) bool { return c.name == name })
}

// Customers returns every customer in document order.
func (b *Book) Customers() []*Customer { return b.customers.all() }

// Vendor returns the vendor with the given id.
func (b *Book) Vendor(id string) (*Vendor, bool) { return b.vendors.get(id) }

// VendorByName returns the first vendor with the given name.
func (b *Book) VendorByName(name string) (*Vendor, bool) {
	return findFirst(b.vendors.order, func(v *Vendor) bool { return v.name == name })
}

// Vendors returns every vendor in document order.
func (b *Book) Vendors() []*Vendor { return b.vendors.all() }

// Job returns the job with the given id.
func (b *Book) Job(id string) (*Job, bool) { return b.jobs.get(id) }

// JobByName returns the first job with the given name.
func (b *Book) JobByName(name string) (*Job, bool) {
	return findFirst(b.jobs.order, func(j *Job) bool { return j.name == name })
}

// Jobs returns every job in document order.
func (b *Book) Jobs() []*Job { return b.jobs.all() }

// Invoice returns the invoice or bill with the given id.
func (b *Book) Invoice(id string) (*Invoice, bool) { return b.invoices.get(id) }

// InvoiceByNumber returns the first invoice or bill with the given number.
func (b *Book) InvoiceByNumber(number string) (*Invoice, bool) {
	return findFirst(b.invoices.order, func(inv *Invoice) bool { return inv.number == number })
}

// Invoices returns every invoice and bill in document order.
func (b *Book) Invoices() []*Invoice { return b.invoices.all() }

// Entry returns the invoice entry with the given id.
func (b *Book) Entry(id string) (*Entry, bool) { return b.entries.get(id) }

// TaxTable returns the tax table with the given id.
func (b *Book) TaxTable(id string) (*TaxTable, bool) { return b.taxTables.get(id) }

// TaxTableByName returns the first tax table with the given name.
func (b *Book) TaxTableByName(name string) (*TaxTable, bool) {
	return findFirst(b.taxTables.order, func(t *TaxTable) bool { return t.name == name })
}

// TaxTables returns every tax table in document order.
func (b *Book) TaxTables() []*TaxTable { return b.taxTables.all() }

// BillTerms returns the bill terms with the given id.
func (b *Book) BillTerms(id string) (*BillTerms, bool) { return b.billTerms.get(id) }

// BillTermsByName returns the first bill terms with the given name.
func (b *Book) BillTermsByName(name string) (*BillTerms, bool) {
	return findFirst(b.billTerms.order, func(t *BillTerms) bool { return t.name == name })
}

// AllBillTerms returns every bill terms record in document order.
func (b *Book) AllBillTerms() []*BillTerms { return b.billTerms.all() }

// Prices returns the price database.
func (b *Book) Prices() *PriceDB { return b.prices }

func findFirst[T any](items []T, match func(T) bool) (T, bool) {
	for _, item := range items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
