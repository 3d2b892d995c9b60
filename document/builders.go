package document

import "time"

// BookOption is a functional option for configuring a Book.
type BookOption func(*Book)

// NewBook creates an empty Book. Nodes are added with options.
//
// Example:
//
//	book := document.NewBook("book-1",
//	    document.WithOption("base_currency", "EUR"),
//	    document.WithAccounts(root, assets),
//	)
func NewBook(id string, opts ...BookOption) *Book {
	b := &Book{
		ID:       id,
		Options:  make(map[string]string),
		Counters: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithOption sets a book option.
func WithOption(key, value string) BookOption {
	return func(b *Book) {
		b.Options[key] = value
	}
}

// WithCounter sets the last issued sequence number for a kind.
func WithCounter(kind string, last int64) BookOption {
	return func(b *Book) {
		b.Counters[kind] = last
	}
}

// WithCommodities appends commodity definitions.
func WithCommodities(commodities ...*Commodity) BookOption {
	return func(b *Book) {
		b.Commodities = append(b.Commodities, commodities...)
	}
}

// WithAccounts appends accounts.
func WithAccounts(accounts ...*Account) BookOption {
	return func(b *Book) {
		b.Accounts = append(b.Accounts, accounts...)
	}
}

// WithTransactions appends transactions.
func WithTransactions(txns ...*Transaction) BookOption {
	return func(b *Book) {
		b.Transactions = append(b.Transactions, txns...)
	}
}

// WithPrices appends prices.
func WithPrices(prices ...*Price) BookOption {
	return func(b *Book) {
		b.Prices = append(b.Prices, prices...)
	}
}

// WithCustomers appends customers.
func WithCustomers(customers ...*Customer) BookOption {
	return func(b *Book) {
		b.Customers = append(b.Customers, customers...)
	}
}

// WithVendors appends vendors.
func WithVendors(vendors ...*Vendor) BookOption {
	return func(b *Book) {
		b.Vendors = append(b.Vendors, vendors...)
	}
}

// WithJobs appends jobs.
func WithJobs(jobs ...*Job) BookOption {
	return func(b *Book) {
		b.Jobs = append(b.Jobs, jobs...)
	}
}

// WithInvoices appends invoices.
func WithInvoices(invoices ...*Invoice) BookOption {
	return func(b *Book) {
		b.Invoices = append(b.Invoices, invoices...)
	}
}

// WithEntries appends invoice entries.
func WithEntries(entries ...*Entry) BookOption {
	return func(b *Book) {
		b.Entries = append(b.Entries, entries...)
	}
}

// WithTaxTables appends tax tables.
func WithTaxTables(tables ...*TaxTable) BookOption {
	return func(b *Book) {
		b.TaxTables = append(b.TaxTables, tables...)
	}
}

// WithBillTerms appends bill terms.
func WithBillTerms(terms ...*BillTerm) BookOption {
	return func(b *Book) {
		b.BillTerms = append(b.BillTerms, terms...)
	}
}

// NewAccount creates an Account. An empty parent makes it a root.
//
// Example:
//
//	bank := document.NewAccount("acc-bank", "Bank", "BANK", "CURRENCY:EUR", "acc-assets")
func NewAccount(id, name, typ, commodity, parent string) *Account {
	return &Account{
		ID:        id,
		Name:      name,
		Type:      typ,
		Commodity: commodity,
		Parent:    parent,
	}
}

// TransactionOption is a functional option for configuring a Transaction.
type TransactionOption func(*Transaction)

// NewTransaction creates a Transaction in currency posted on the given date. Entered
// defaults to the posted date.
//
// Example:
//
//	txn := document.NewTransaction("tx-1", "CURRENCY:EUR", posted,
//	    document.WithDescription("Payment"),
//	    document.WithSplits(
//	        document.NewSplit("s-1", "acc-bank", "132760/100"),
//	        document.NewSplit("s-2", "acc-ar", "-132760/100", document.WithLot("lot-1"), document.WithAction("Payment")),
//	    ),
//	)
func NewTransaction(id, currency string, posted time.Time, opts ...TransactionOption) *Transaction {
	txn := &Transaction{
		ID:       id,
		Currency: currency,
		Posted:   posted,
		Entered:  posted,
	}
	for _, opt := range opts {
		opt(txn)
	}
	return txn
}

// WithNum sets the transaction number.
func WithNum(num string) TransactionOption {
	return func(t *Transaction) {
		t.Num = num
	}
}

// WithDescription sets the transaction description.
func WithDescription(description string) TransactionOption {
	return func(t *Transaction) {
		t.Description = description
	}
}

// WithEntered sets the date the transaction was entered.
func WithEntered(entered time.Time) TransactionOption {
	return func(t *Transaction) {
		t.Entered = entered
	}
}

// WithSplits appends splits to the transaction.
func WithSplits(splits ...*Split) TransactionOption {
	return func(t *Transaction) {
		t.Splits = append(t.Splits, splits...)
	}
}

// SplitOption is a functional option for configuring a Split.
type SplitOption func(*Split)

// NewSplit creates a Split posting value to account. Quantity defaults to value.
func NewSplit(id, account, value string, opts ...SplitOption) *Split {
	s := &Split{
		ID:        id,
		Account:   account,
		Value:     value,
		Quantity:  value,
		Reconcile: "n",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithQuantity sets the split quantity in the account commodity.
func WithQuantity(quantity string) SplitOption {
	return func(s *Split) {
		s.Quantity = quantity
	}
}

// WithLot links the split to an invoice lot.
func WithLot(lot string) SplitOption {
	return func(s *Split) {
		s.Lot = lot
	}
}

// WithAction sets the split action tag.
func WithAction(action string) SplitOption {
	return func(s *Split) {
		s.Action = action
	}
}

// WithMemo sets the split memo.
func WithMemo(memo string) SplitOption {
	return func(s *Split) {
		s.Memo = memo
	}
}

// WithReconcile sets the reconcile state (n, c, y, f or v).
func WithReconcile(state string) SplitOption {
	return func(s *Split) {
		s.Reconcile = state
	}
}

// NewPrice creates a Price quoting one unit of commodity in currency.
//
// Example:
//
//	price := document.NewPrice("p-1", "EURONEXT:MBG", "CURRENCY:EUR", date, "6512/100")
func NewPrice(id, commodity, currency string, date time.Time, value string) *Price {
	return &Price{
		ID:        id,
		Commodity: commodity,
		Currency:  currency,
		Time:      date,
		Value:     value,
		Source:    "user:price",
		Type:      "unknown",
	}
}

// CustomerOwner references a customer.
func CustomerOwner(id string) Owner { return Owner{Type: OwnerCustomer, ID: id} }

// VendorOwner references a vendor.
func VendorOwner(id string) Owner { return Owner{Type: OwnerVendor, ID: id} }

// JobOwner references a job.
func JobOwner(id string) Owner { return Owner{Type: OwnerJob, ID: id} }

// NewCustomer creates an active Customer.
func NewCustomer(id, number, name, currency string) *Customer {
	return &Customer{ID: id, Number: number, Name: name, Currency: currency, Active: true}
}

// NewVendor creates an active Vendor.
func NewVendor(id, number, name, currency string) *Vendor {
	return &Vendor{ID: id, Number: number, Name: name, Currency: currency, Active: true}
}

// NewJob creates an active Job owned by a customer or vendor.
func NewJob(id, number, name string, owner Owner) *Job {
	return &Job{ID: id, Number: number, Name: name, Owner: owner, Active: true}
}

// InvoiceOption is a functional option for configuring an Invoice.
type InvoiceOption func(*Invoice)

// NewInvoice creates an active, unposted Invoice.
//
// Example:
//
//	inv := document.NewInvoice("inv-1", "000001", document.CustomerOwner("cust-1"), "CURRENCY:EUR", opened,
//	    document.WithPosting("acc-ar", "tx-post", "lot-1", posted),
//	)
func NewInvoice(id, number string, owner Owner, currency string, opened time.Time, opts ...InvoiceOption) *Invoice {
	inv := &Invoice{
		ID:       id,
		Number:   number,
		Owner:    owner,
		Currency: currency,
		Opened:   opened,
		Active:   true,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// WithPosting records where and when the invoice was posted.
func WithPosting(account, txn, lot string, posted time.Time) InvoiceOption {
	return func(i *Invoice) {
		i.PostAccount = account
		i.PostTxn = txn
		i.PostLot = lot
		i.Posted = posted
	}
}

// WithDue sets the due date.
func WithDue(due time.Time) InvoiceOption {
	return func(i *Invoice) {
		i.Due = due
	}
}

// WithTerms references the bill terms of the invoice.
func WithTerms(terms string) InvoiceOption {
	return func(i *Invoice) {
		i.Terms = terms
	}
}

// WithInvoiceNotes sets the invoice notes.
func WithInvoiceNotes(notes string) InvoiceOption {
	return func(i *Invoice) {
		i.Notes = notes
	}
}

// EntryOption is a functional option for configuring an Entry.
type EntryOption func(*Entry)

// NewEntry creates an Entry of invoice. The price is stored on the invoice side;
// use WithBillPrice for vendor bills.
func NewEntry(id, invoice string, date time.Time, quantity, price string, opts ...EntryOption) *Entry {
	e := &Entry{
		ID:           id,
		Invoice:      invoice,
		Date:         date,
		Quantity:     quantity,
		InvoicePrice: price,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithBillPrice moves the unit price to the bill side.
func WithBillPrice(price string) EntryOption {
	return func(e *Entry) {
		e.BillPrice = price
		e.InvoicePrice = ""
	}
}

// WithEntryDescription sets the entry description.
func WithEntryDescription(description string) EntryOption {
	return func(e *Entry) {
		e.Description = description
	}
}

// WithEntryAccount sets the income or expense account of the entry.
func WithEntryAccount(account string) EntryOption {
	return func(e *Entry) {
		e.Account = account
	}
}

// WithTax makes the entry taxable under the given tax table.
func WithTax(table string, included bool) EntryOption {
	return func(e *Entry) {
		e.Taxable = true
		e.TaxTable = table
		e.TaxIncluded = included
	}
}

// NewTaxTable creates a TaxTable.
func NewTaxTable(id, name string, entries ...*TaxTableEntry) *TaxTable {
	return &TaxTable{ID: id, Name: name, Entries: entries}
}

// NewPercentTax creates a percentage tax table entry booked to account.
func NewPercentTax(account, percent string) *TaxTableEntry {
	return &TaxTableEntry{Account: account, Type: "PERCENT", Amount: percent}
}

// NewBillTerm creates a BillTerm due after dueDays days.
func NewBillTerm(id, name string, dueDays int) *BillTerm {
	return &BillTerm{ID: id, Name: name, DueDays: dueDays}
}
