package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/document"
	"github.com/robinvdvleuten/cashbook/numeric"
	"github.com/robinvdvleuten/cashbook/telemetry"
)

// Load builds a book from a parsed document. Records are resolved in dependency
// order, so references point at live handles. Problems do not stop the load: a
// record that cannot be read is skipped, an unresolved reference is kept as the id
// read from the document, and every problem is returned in a *ValidationError
// together with the book. Only a cancelled context returns a nil book.
//
// The configuration is taken from WithConfig, then from the context, then from the
// document's options.
func Load(ctx context.Context, doc *document.Book, opts ...Option) (*Book, error) {
	timer := telemetry.StartTimer(ctx, "ledger.load")
	defer timer.End()

	b := newBook(opts...)
	l := &loader{book: b}

	if b.cfg == nil {
		b.cfg = ConfigFromContext(ctx)
	}
	if b.cfg == nil {
		cfg, err := configFromOptions(doc.Options)
		if err != nil {
			l.report(&InvalidFieldError{Kind: KindBook, ID: doc.ID, Field: "options", Err: err})
			cfg = NewConfig()
		}
		b.cfg = cfg
	}

	b.id = doc.ID
	b.options = maps.Clone(doc.Options)
	if b.options == nil {
		b.options = make(map[string]string)
	}
	b.counters = maps.Clone(doc.Counters)
	if b.counters == nil {
		b.counters = make(map[string]int64)
	}

	phases := []struct {
		name string
		fn   func(*document.Book)
	}{
		{"commodities", l.loadCommodities},
		{"accounts", l.loadAccounts},
		{"tax tables", l.loadTaxTables},
		{"bill terms", l.loadBillTerms},
		{"parties", l.loadParties},
		{"jobs", l.loadJobs},
		{"transactions", l.loadTransactions},
		{"prices", l.loadPrices},
		{"invoices", l.loadInvoices},
		{"entries", l.loadEntries},
	}
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := timer.Child("ledger.load." + phase.name)
		phase.fn(doc)
		t.End()
	}

	l.errs = append(l.errs, newValidator(b).validate(ctx)...)
	b.modified = false

	b.logger.Debug("book loaded",
		slog.String("book", b.id),
		slog.Int("accounts", b.accounts.len()),
		slog.Int("transactions", b.transactions.len()),
		slog.Int("prices", b.prices.Len()),
		slog.Int("invoices", b.invoices.len()),
		slog.Int("problems", len(l.errs)))

	if len(l.errs) > 0 {
		return b, &ValidationError{Errors: l.errs}
	}
	return b, nil
}

type loader struct {
	book *Book
	errs []error
}

func (l *loader) report(err error) {
	l.errs = append(l.errs, err)
}

// duplicate reports a second record with an id already taken. Blank ids never
// collide.
func duplicate[T comparable](l *loader, x *index[T], kind EntityKind, id string) bool {
	if id == "" {
		return false
	}
	if _, ok := x.get(id); ok {
		l.report(&DuplicateIDError{Kind: kind, ID: id})
		return true
	}
	return false
}

// amount parses a wire amount, reporting failures as zero.
func (l *loader) amount(kind EntityKind, id, field, text string) numeric.Decimal {
	d, err := parseAmount(kind, id, field, text)
	if err != nil {
		l.report(err)
	}
	return d
}

// commodityID parses a NAMESPACE:CODE reference. An empty reference is the zero id.
func (l *loader) commodityID(kind EntityKind, id, field, text string) commodity.ID {
	if text == "" {
		return commodity.ID{}
	}
	cid, err := l.book.registry.Parse(text)
	if err != nil {
		l.report(&InvalidFieldError{Kind: kind, ID: id, Field: field, Err: err})
		return commodity.ID{}
	}
	return cid
}

func (l *loader) currency(kind EntityKind, id, field, text string) commodity.ID {
	cid := l.commodityID(kind, id, field, text)
	if cid.IsZero() {
		return cid
	}
	if err := commodity.RequireCurrency(cid); err != nil {
		l.report(&InvalidFieldError{Kind: kind, ID: id, Field: field, Err: err})
		return commodity.ID{}
	}
	return cid
}

func (l *loader) account(ref string) (*Account, string) {
	if ref == "" {
		return nil, ""
	}
	if acc, ok := l.book.accounts.get(ref); ok {
		return acc, ""
	}
	return nil, ref
}

func (l *loader) loadCommodities(doc *document.Book) {
	b := l.book
	for _, dc := range doc.Commodities {
		text := dc.Namespace + ":" + dc.Code
		cid, err := b.registry.Parse(text)
		if err != nil {
			l.report(&InvalidFieldError{Kind: KindCommodity, ID: text, Field: "id", Err: err})
			continue
		}
		if duplicate(l, b.commodities, KindCommodity, cid.WireString()) {
			continue
		}
		c := &Commodity{book: b, id: cid, name: dc.Name, xcode: dc.XCode, fraction: dc.Fraction}
		b.commodities.add(cid.WireString(), c)
	}
}

// loadAccounts creates every account before linking parents, so a child may appear
// before its parent. A parent that would close a cycle is left unlinked.
func (l *loader) loadAccounts(doc *document.Book) {
	b := l.book
	var loaded []*Account
	for _, da := range doc.Accounts {
		if duplicate(l, b.accounts, KindAccount, da.ID) {
			continue
		}
		typ, err := ParseAccountType(da.Type)
		if err != nil {
			l.report(&InvalidFieldError{Kind: KindAccount, ID: da.ID, Field: "type", Err: err})
		}
		acc := &Account{
			book:        b,
			id:          da.ID,
			name:        da.Name,
			code:        da.Code,
			description: da.Description,
			typ:         typ,
			commodity:   l.commodityID(KindAccount, da.ID, "commodity", da.Commodity),
			placeholder: da.Placeholder,
			hidden:      da.Hidden,
			parentRef:   da.Parent,
		}
		b.accounts.add(da.ID, acc)
		loaded = append(loaded, acc)
	}

	for _, acc := range loaded {
		if acc.parentRef == "" {
			continue
		}
		parent, ok := b.accounts.get(acc.parentRef)
		if !ok || acc.isAncestorOf(parent) {
			continue
		}
		acc.parent = parent
		acc.parentRef = ""
		parent.children = append(parent.children, acc)
	}
}

func (l *loader) loadTaxTables(doc *document.Book) {
	b := l.book
	for _, dt := range doc.TaxTables {
		if duplicate(l, b.taxTables, KindTaxTable, dt.ID) {
			continue
		}
		t := &TaxTable{book: b, id: dt.ID, name: dt.Name}
		for _, de := range dt.Entries {
			typ, err := ParseTaxType(de.Type)
			if err != nil {
				l.report(&InvalidFieldError{Kind: KindTaxTable, ID: dt.ID, Field: "type", Err: err})
				continue
			}
			acc, ref := l.account(de.Account)
			t.entries = append(t.entries, &TaxTableEntry{
				account:    acc,
				accountRef: ref,
				typ:        typ,
				amount:     l.amount(KindTaxTable, dt.ID, "amount", de.Amount),
			})
		}
		b.taxTables.add(dt.ID, t)
	}
}

func (l *loader) loadBillTerms(doc *document.Book) {
	b := l.book
	for _, dt := range doc.BillTerms {
		if duplicate(l, b.billTerms, KindBillTerms, dt.ID) {
			continue
		}
		b.billTerms.add(dt.ID, &BillTerms{
			book:         b,
			id:           dt.ID,
			name:         dt.Name,
			description:  dt.Description,
			dueDays:      dt.DueDays,
			discountDays: dt.DiscountDays,
			discount:     l.amount(KindBillTerms, dt.ID, "discount", dt.Discount),
		})
	}
}

func (l *loader) party(kind EntityKind, dp *exportedParty) party {
	b := l.book
	p := party{
		book:   b,
		kind:   kind,
		id:     dp.ID,
		number: dp.Number,
		name:   dp.Name,
		address: Address{
			Name:  dp.Address.Name,
			Lines: slices.Clone(dp.Address.Lines),
			Phone: dp.Address.Phone,
			Email: dp.Address.Email,
		},
		currency: l.currency(kind, dp.ID, "currency", dp.Currency),
		notes:    dp.Notes,
		active:   dp.Active,
	}
	if dp.TaxTable != "" {
		if t, ok := b.taxTables.get(dp.TaxTable); ok {
			p.taxTable = t
		} else {
			p.taxTableRef = dp.TaxTable
		}
	}
	if dp.Terms != "" {
		if t, ok := b.billTerms.get(dp.Terms); ok {
			p.terms = t
		} else {
			p.termsRef = dp.Terms
		}
	}
	return p
}

func (l *loader) loadParties(doc *document.Book) {
	b := l.book
	for _, dc := range doc.Customers {
		if duplicate(l, b.customers, KindCustomer, dc.ID) {
			continue
		}
		c := &Customer{party: l.party(KindCustomer, (*exportedParty)(dc))}
		c.self = c
		b.customers.add(dc.ID, c)
	}
	for _, dv := range doc.Vendors {
		if duplicate(l, b.vendors, KindVendor, dv.ID) {
			continue
		}
		v := &Vendor{party: l.party(KindVendor, (*exportedParty)(dv))}
		v.self = v
		b.vendors.add(dv.ID, v)
	}
}

// owner resolves a document owner. Jobs may only be owned by customers and vendors.
func (l *loader) owner(ref document.Owner, allowJob bool) (Owner, bool) {
	b := l.book
	kind, ok := parseOwnerKind(ref.Type)
	if !ok {
		return Owner{}, false
	}
	switch kind {
	case OwnerCustomer:
		if c, ok := b.customers.get(ref.ID); ok {
			return CustomerOwner(c), true
		}
	case OwnerVendor:
		if v, ok := b.vendors.get(ref.ID); ok {
			return VendorOwner(v), true
		}
	case OwnerJob:
		if !allowJob {
			return Owner{}, false
		}
		if j, ok := b.jobs.get(ref.ID); ok {
			return JobOwner(j), true
		}
	}
	return Owner{}, false
}

func (l *loader) loadJobs(doc *document.Book) {
	b := l.book
	for _, dj := range doc.Jobs {
		if duplicate(l, b.jobs, KindJob, dj.ID) {
			continue
		}
		j := &Job{
			book:      b,
			id:        dj.ID,
			number:    dj.Number,
			name:      dj.Name,
			reference: dj.Reference,
			active:    dj.Active,
		}
		if owner, ok := l.owner(dj.Owner, false); ok {
			j.owner = owner
		} else {
			j.ownerRef = dj.Owner
		}
		b.jobs.add(dj.ID, j)
	}
}

func (l *loader) loadTransactions(doc *document.Book) {
	b := l.book
	for _, dt := range doc.Transactions {
		if duplicate(l, b.transactions, KindTransaction, dt.ID) {
			continue
		}
		txn := &Transaction{
			book:        b,
			id:          dt.ID,
			num:         dt.Num,
			description: dt.Description,
			currency:    l.currency(KindTransaction, dt.ID, "currency", dt.Currency),
			posted:      dt.Posted,
			entered:     dt.Entered,
		}
		for _, ds := range dt.Splits {
			reconcile, err := ParseReconcileState(ds.Reconcile)
			if err != nil {
				l.report(&InvalidFieldError{Kind: KindSplit, ID: ds.ID, Field: "reconcile", Err: err})
				reconcile = NotReconciled
			}
			s := &Split{
				txn:       txn,
				id:        ds.ID,
				value:     l.amount(KindSplit, ds.ID, "value", ds.Value),
				lot:       ds.Lot,
				action:    ds.Action,
				memo:      ds.Memo,
				reconcile: reconcile,
			}
			s.quantity = s.value
			if ds.Quantity != "" {
				s.quantity = l.amount(KindSplit, ds.ID, "quantity", ds.Quantity)
			}
			s.account, s.accountRef = l.account(ds.Account)
			if s.account != nil {
				s.account.splits = append(s.account.splits, s)
			}
			txn.splits = append(txn.splits, s)
		}
		b.transactions.add(dt.ID, txn)
	}
}

func (l *loader) loadPrices(doc *document.Book) {
	b := l.book
	for _, dp := range doc.Prices {
		if duplicate(l, b.prices.all, KindPrice, dp.ID) {
			continue
		}
		p := &Price{
			id:        dp.ID,
			commodity: l.commodityID(KindPrice, dp.ID, "commodity", dp.Commodity),
			currency:  l.commodityID(KindPrice, dp.ID, "currency", dp.Currency),
			date:      dp.Time,
			value:     l.amount(KindPrice, dp.ID, "value", dp.Value),
			source:    dp.Source,
			typ:       dp.Type,
		}
		if err := b.prices.check(p); err != nil {
			l.report(fmt.Errorf("price %s skipped: %w", displayID(dp.ID), err))
			continue
		}
		b.prices.insert(p)
	}
}

func (l *loader) loadInvoices(doc *document.Book) {
	b := l.book
	for _, di := range doc.Invoices {
		if duplicate(l, b.invoices, KindInvoice, di.ID) {
			continue
		}
		inv := &Invoice{
			book:        b,
			id:          di.ID,
			number:      di.Number,
			description: di.Description,
			notes:       di.Notes,
			opened:      di.Opened,
			posted:      di.Posted,
			due:         di.Due,
			lot:         di.PostLot,
			currency:    l.currency(KindInvoice, di.ID, "currency", di.Currency),
			active:      di.Active,
		}
		if owner, ok := l.owner(di.Owner, true); ok {
			inv.owner = owner
		} else {
			inv.ownerRef = di.Owner
		}
		inv.kind = invoiceKindOf(inv.owner)
		inv.postAccount, inv.postAccountRef = l.account(di.PostAccount)
		if di.PostTxn != "" {
			if txn, ok := b.transactions.get(di.PostTxn); ok {
				inv.postTxn = txn
			} else {
				inv.postTxnRef = di.PostTxn
			}
		}
		if di.Terms != "" {
			if t, ok := b.billTerms.get(di.Terms); ok {
				inv.terms = t
			} else {
				inv.termsRef = di.Terms
			}
		}
		b.invoices.add(di.ID, inv)
	}
}

func (l *loader) loadEntries(doc *document.Book) {
	b := l.book
	for _, de := range doc.Entries {
		if duplicate(l, b.entries, KindEntry, de.ID) {
			continue
		}
		e := &Entry{
			book:         b,
			id:           de.ID,
			date:         de.Date,
			description:  de.Description,
			action:       de.Action,
			notes:        de.Notes,
			quantity:     l.amount(KindEntry, de.ID, "quantity", de.Quantity),
			invoicePrice: l.amount(KindEntry, de.ID, "invoice price", de.InvoicePrice),
			billPrice:    l.amount(KindEntry, de.ID, "bill price", de.BillPrice),
			taxable:      de.Taxable,
			taxIncluded:  de.TaxIncluded,
		}
		e.account, e.accountRef = l.account(de.Account)
		if de.TaxTable != "" {
			if t, ok := b.taxTables.get(de.TaxTable); ok {
				e.taxTable = t
			} else {
				e.taxTableRef = de.TaxTable
			}
		}
		if de.Invoice != "" {
			if inv, ok := b.invoices.get(de.Invoice); ok {
				e.invoice = inv
				inv.entries = append(inv.entries, e)
			} else {
				e.invoiceRef = de.Invoice
			}
		}
		b.entries.add(de.ID, e)
	}
}
