package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/document"
	"github.com/robinvdvleuten/cashbook/telemetry"
)

// Destination receives the exported document of a Write.
type Destination interface {
	WriteDocument(ctx context.Context, doc *document.Book) error
}

// DestinationFunc adapts a function to a Destination.
type DestinationFunc func(ctx context.Context, doc *document.Book) error

func (f DestinationFunc) WriteDocument(ctx context.Context, doc *document.Book) error {
	return f(ctx, doc)
}

// Write validates the book, derives blank ids and sequence numbers, and hands the
// exported document to dst. When validation fails the *ValidationError lists every
// problem and dst is not called. Derived ids are kept and the book is marked
// unmodified only after dst succeeds.
func (b *Book) Write(ctx context.Context, dst Destination) error {
	if b.readOnly {
		return ErrReadOnly
	}
	timer := telemetry.StartTimer(ctx, "ledger.write")
	defer timer.End()

	doc, plan, err := b.prepare(ctx)
	if err != nil {
		return err
	}

	writeTimer := timer.Child("ledger.write.destination")
	err = dst.WriteDocument(ctx, doc)
	writeTimer.End()
	if err != nil {
		return fmt.Errorf("failed to write book: %w", err)
	}

	plan.apply(b)
	b.modified = false
	b.logger.Debug("book written",
		slog.String("book", b.id),
		slog.Int("accounts", len(doc.Accounts)),
		slog.Int("transactions", len(doc.Transactions)),
		slog.Int("invoices", len(doc.Invoices)))
	return nil
}

// Export validates the book and returns it as a document, with the ids and numbers
// Write would derive. The book itself is not changed.
func (b *Book) Export(ctx context.Context) (*document.Book, error) {
	timer := telemetry.StartTimer(ctx, "ledger.export")
	defer timer.End()

	doc, _, err := b.prepare(ctx)
	return doc, err
}

func (b *Book) prepare(ctx context.Context) (*document.Book, *idPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if errs := newValidator(b).validate(ctx); len(errs) > 0 {
		for _, err := range errs {
			b.logger.Warn("book does not validate", slog.String("error", err.Error()))
		}
		return nil, nil, &ValidationError{Errors: errs}
	}
	plan := b.planIDs()
	return b.export(plan), plan, nil
}

// idPlan holds the ids and numbers derived for records that have none yet.
type idPlan struct {
	bookID   string
	ids      map[any]string
	numbers  map[any]string
	counters map[string]int64
}

func (b *Book) planIDs() *idPlan {
	p := &idPlan{
		bookID:   b.id,
		ids:      make(map[any]string),
		numbers:  make(map[any]string),
		counters: maps.Clone(b.counters),
	}
	if p.bookID == "" {
		p.bookID = newGUID()
	}

	for _, acc := range b.accounts.order {
		p.assign(acc, acc.id)
	}
	for _, txn := range b.transactions.order {
		p.assign(txn, txn.id)
		for _, s := range txn.splits {
			p.assign(s, s.id)
		}
	}
	for _, pr := range b.prices.all.order {
		p.assign(pr, pr.id)
	}
	for _, t := range b.taxTables.order {
		p.assign(t, t.id)
	}
	for _, t := range b.billTerms.order {
		p.assign(t, t.id)
	}
	for _, c := range b.customers.order {
		p.assign(c, c.id)
		p.number(b.cfg, c, c.number, document.CounterCustomer)
	}
	for _, v := range b.vendors.order {
		p.assign(v, v.id)
		p.number(b.cfg, v, v.number, document.CounterVendor)
	}
	for _, j := range b.jobs.order {
		p.assign(j, j.id)
		p.number(b.cfg, j, j.number, document.CounterJob)
	}
	for _, inv := range b.invoices.order {
		p.assign(inv, inv.id)
		counter := document.CounterInvoice
		if inv.IsBill() {
			counter = document.CounterBill
		}
		p.number(b.cfg, inv, inv.number, counter)
	}
	for _, e := range b.entries.order {
		p.assign(e, e.id)
	}
	return p
}

func (p *idPlan) assign(entity any, id string) {
	if id == "" {
		p.ids[entity] = newGUID()
	}
}

func (p *idPlan) number(cfg *Config, entity any, number, counter string) {
	if number != "" {
		return
	}
	p.counters[counter]++
	if cfg == nil {
		cfg = defaultConfig
	}
	p.numbers[entity] = cfg.FormatCounter(counter, p.counters[counter])
}

func (p *idPlan) id(entity any, current string) string {
	if id, ok := p.ids[entity]; ok {
		return id
	}
	return current
}

func (p *idPlan) num(entity any, current string) string {
	if n, ok := p.numbers[entity]; ok {
		return n
	}
	return current
}

// apply stores the derived ids and numbers in the model.
func (p *idPlan) apply(b *Book) {
	b.id = p.bookID
	b.counters = p.counters
	for entity, id := range p.ids {
		switch e := entity.(type) {
		case *Account:
			e.id = id
			b.accounts.setID(id, e)
		case *Transaction:
			e.id = id
			b.transactions.setID(id, e)
		case *Split:
			e.id = id
		case *Price:
			e.id = id
			b.prices.all.setID(id, e)
		case *TaxTable:
			e.id = id
			b.taxTables.setID(id, e)
		case *BillTerms:
			e.id = id
			b.billTerms.setID(id, e)
		case *Customer:
			e.id = id
			b.customers.setID(id, e)
		case *Vendor:
			e.id = id
			b.vendors.setID(id, e)
		case *Job:
			e.id = id
			b.jobs.setID(id, e)
		case *Invoice:
			e.id = id
			b.invoices.setID(id, e)
		case *Entry:
			e.id = id
			b.entries.setID(id, e)
		}
	}
	for entity, number := range p.numbers {
		switch e := entity.(type) {
		case *Customer:
			e.number = number
		case *Vendor:
			e.number = number
		case *Job:
			e.number = number
		case *Invoice:
			e.number = number
		}
	}
}

// export builds the document in model order. References to records without an id
// use the planned id; unresolved references keep the id read from the document.
func (b *Book) export(p *idPlan) *document.Book {
	doc := document.NewBook(p.bookID)
	doc.Options = maps.Clone(b.options)
	doc.Counters = maps.Clone(p.counters)

	for _, c := range b.commodities.order {
		doc.Commodities = append(doc.Commodities, &document.Commodity{
			Namespace: c.id.Namespace(),
			Code:      c.id.Code(),
			Name:      c.name,
			XCode:     c.xcode,
			Fraction:  c.fraction,
		})
	}

	for _, acc := range b.accounts.order {
		doc.Accounts = append(doc.Accounts, &document.Account{
			ID:          p.id(acc, acc.id),
			Name:        acc.name,
			Type:        acc.typ.String(),
			Commodity:   acc.commodity.WireString(),
			Parent:      p.accountRef(acc.parent, acc.parentRef),
			Code:        acc.code,
			Description: acc.description,
			Placeholder: acc.placeholder,
			Hidden:      acc.hidden,
		})
	}

	for _, txn := range b.transactions.order {
		dt := &document.Transaction{
			ID:          p.id(txn, txn.id),
			Num:         txn.num,
			Description: txn.description,
			Currency:    txn.currency.WireString(),
			Posted:      txn.posted,
			Entered:     txn.entered,
		}
		for _, s := range txn.splits {
			dt.Splits = append(dt.Splits, &document.Split{
				ID:        p.id(s, s.id),
				Account:   p.accountRef(s.account, s.accountRef),
				Value:     s.value.WireString(),
				Quantity:  s.quantity.WireString(),
				Lot:       s.lot,
				Action:    s.action,
				Memo:      s.memo,
				Reconcile: s.reconcile.String(),
			})
		}
		doc.Transactions = append(doc.Transactions, dt)
	}

	for _, pr := range b.prices.all.order {
		doc.Prices = append(doc.Prices, &document.Price{
			ID:        p.id(pr, pr.id),
			Commodity: pr.commodity.WireString(),
			Currency:  pr.currency.WireString(),
			Time:      pr.date,
			Value:     pr.value.WireString(),
			Source:    pr.source,
			Type:      pr.typ,
		})
	}

	for _, t := range b.taxTables.order {
		dt := &document.TaxTable{ID: p.id(t, t.id), Name: t.name}
		for _, rate := range t.entries {
			dt.Entries = append(dt.Entries, &document.TaxTableEntry{
				Account: p.accountRef(rate.account, rate.accountRef),
				Type:    rate.typ.String(),
				Amount:  rate.amount.WireString(),
			})
		}
		doc.TaxTables = append(doc.TaxTables, dt)
	}

	for _, t := range b.billTerms.order {
		doc.BillTerms = append(doc.BillTerms, &document.BillTerm{
			ID:           p.id(t, t.id),
			Name:         t.name,
			Description:  t.description,
			DueDays:      t.dueDays,
			DiscountDays: t.discountDays,
			Discount:     t.discount.WireString(),
		})
	}

	for _, c := range b.customers.order {
		doc.Customers = append(doc.Customers, (*document.Customer)(p.exportParty(c, &c.party)))
	}
	for _, v := range b.vendors.order {
		doc.Vendors = append(doc.Vendors, (*document.Vendor)(p.exportParty(v, &v.party)))
	}

	for _, j := range b.jobs.order {
		doc.Jobs = append(doc.Jobs, &document.Job{
			ID:        p.id(j, j.id),
			Number:    p.num(j, j.number),
			Name:      j.name,
			Reference: j.reference,
			Owner:     p.ownerRef(j.owner, j.ownerRef),
			Active:    j.active,
		})
	}

	for _, inv := range b.invoices.order {
		di := &document.Invoice{
			ID:          p.id(inv, inv.id),
			Number:      p.num(inv, inv.number),
			Description: inv.description,
			Notes:       inv.notes,
			Owner:       p.ownerRef(inv.owner, inv.ownerRef),
			Opened:      inv.opened,
			Posted:      inv.posted,
			Due:         inv.due,
			PostAccount: p.accountRef(inv.postAccount, inv.postAccountRef),
			PostLot:     inv.lot,
			Currency:    inv.currency.WireString(),
			Active:      inv.active,
		}
		if inv.postTxn != nil {
			di.PostTxn = p.id(inv.postTxn, inv.postTxn.id)
		} else {
			di.PostTxn = inv.postTxnRef
		}
		if inv.terms != nil {
			di.Terms = p.id(inv.terms, inv.terms.id)
		} else {
			di.Terms = inv.termsRef
		}
		doc.Invoices = append(doc.Invoices, di)
	}

	for _, e := range b.entries.order {
		de := &document.Entry{
			ID:          p.id(e, e.id),
			Date:        e.date,
			Description: e.description,
			Action:      e.action,
			Notes:       e.notes,
			Quantity:    e.quantity.WireString(),
			Taxable:     e.taxable,
			TaxIncluded: e.taxIncluded,
			Account:     p.accountRef(e.account, e.accountRef),
		}
		if !e.invoicePrice.IsZero() || !e.isBill() {
			de.InvoicePrice = e.invoicePrice.WireString()
		}
		if !e.billPrice.IsZero() || e.isBill() {
			de.BillPrice = e.billPrice.WireString()
		}
		if e.invoice != nil {
			de.Invoice = p.id(e.invoice, e.invoice.id)
		} else {
			de.Invoice = e.invoiceRef
		}
		if e.taxTable != nil {
			de.TaxTable = p.id(e.taxTable, e.taxTable.id)
		} else {
			de.TaxTable = e.taxTableRef
		}
		doc.Entries = append(doc.Entries, de)
	}

	return doc
}

// exportedParty has the shape of both document.Customer and document.Vendor.
type exportedParty struct {
	ID       string
	Number   string
	Name     string
	Address  document.Address
	Currency string
	TaxTable string
	Terms    string
	Notes    string
	Active   bool
}

func (p *idPlan) exportParty(entity any, pt *party) *exportedParty {
	out := &exportedParty{
		ID:     p.id(entity, pt.id),
		Number: p.num(entity, pt.number),
		Name:   pt.name,
		Address: document.Address{
			Name:  pt.address.Name,
			Lines: slices.Clone(pt.address.Lines),
			Phone: pt.address.Phone,
			Email: pt.address.Email,
		},
		Currency: pt.currency.WireString(),
		TaxTable: pt.taxTableRef,
		Terms:    pt.termsRef,
		Notes:    pt.notes,
		Active:   pt.active,
	}
	if pt.taxTable != nil {
		out.TaxTable = p.id(pt.taxTable, pt.taxTable.id)
	}
	if pt.terms != nil {
		out.Terms = p.id(pt.terms, pt.terms.id)
	}
	return out
}

func (p *idPlan) accountRef(acc *Account, ref string) string {
	if acc == nil {
		return ref
	}
	return p.id(acc, acc.id)
}

func (p *idPlan) ownerRef(owner Owner, ref document.Owner) document.Owner {
	switch owner.kind {
	case OwnerCustomer:
		return document.Owner{Type: document.OwnerCustomer, ID: p.id(owner.customer, owner.customer.id)}
	case OwnerVendor:
		return document.Owner{Type: document.OwnerVendor, ID: p.id(owner.vendor, owner.vendor.id)}
	case OwnerJob:
		return document.Owner{Type: document.OwnerJob, ID: p.id(owner.job, owner.job.id)}
	default:
		return ref
	}
}
