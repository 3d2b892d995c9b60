package ledger

import "golang.org/x/exp/slices"

// RemoveCommodity deletes a commodity definition that nothing uses.
func (b *Book) RemoveCommodity(c *Commodity) (Change, error) {
	id := c.id.WireString()
	if c.book != b {
		return Change{}, NewUnknownEntityError(KindCommodity, id)
	}
	if err := b.checkWritable(KindCommodity, id); err != nil {
		return Change{}, err
	}
	for _, acc := range b.accounts.order {
		if acc.commodity == c.id {
			return Change{}, NewInUseError(KindCommodity, id, "used by account "+acc.FullName())
		}
	}
	for _, txn := range b.transactions.order {
		if txn.currency == c.id {
			return Change{}, NewInUseError(KindCommodity, id, "used by a transaction")
		}
	}
	if len(b.prices.byCommodity[c.id]) > 0 {
		return Change{}, NewInUseError(KindCommodity, id, "has prices")
	}
	b.commodities.remove(id, c)
	c.book = nil
	return b.touch(removed(KindCommodity, id, c)), nil
}

// RemoveAccount deletes an account without children, splits or references.
func (b *Book) RemoveAccount(a *Account) (Change, error) {
	if a.book != b {
		return Change{}, NewUnknownEntityError(KindAccount, a.id)
	}
	if err := b.checkWritable(KindAccount, a.id); err != nil {
		return Change{}, err
	}
	switch {
	case a == b.Root():
		return Change{}, NewInUseError(KindAccount, a.id, "root account")
	case len(a.children) > 0:
		return Change{}, NewInUseError(KindAccount, a.id, "has child accounts")
	case len(a.splits) > 0:
		return Change{}, NewInUseError(KindAccount, a.id, "has splits")
	}
	for _, inv := range b.invoices.order {
		if inv.postAccount == a {
			return Change{}, NewInUseError(KindAccount, a.id, "post account of an invoice")
		}
	}
	for _, e := range b.entries.order {
		if e.account == a {
			return Change{}, NewInUseError(KindAccount, a.id, "used by an invoice entry")
		}
	}
	for _, t := range b.taxTables.order {
		for _, rate := range t.entries {
			if rate.account == a {
				return Change{}, NewInUseError(KindAccount, a.id, "used by tax table "+t.name)
			}
		}
	}

	b.balances.invalidateAccount(a)
	if a.parent != nil {
		a.parent.removeChild(a)
	}
	b.accounts.remove(a.id, a)
	a.book = nil
	return b.touch(removed(KindAccount, a.id, a)), nil
}

// RemoveTransaction deletes a transaction. The posting transaction of an invoice is
// removed by unposting the invoice. Removing a payment makes the invoice it paid
// unpaid again.
func (b *Book) RemoveTransaction(t *Transaction) (Change, error) {
	if t.book != b {
		return Change{}, NewUnknownEntityError(KindTransaction, t.id)
	}
	if err := b.checkWritable(KindTransaction, t.id); err != nil {
		return Change{}, err
	}
	for _, inv := range b.invoices.order {
		if inv.postTxn == t {
			return Change{}, NewInUseError(KindTransaction, t.id, "posts an invoice")
		}
	}
	b.detachTransaction(t)
	return b.touch(removed(KindTransaction, t.id, t)), nil
}

func (b *Book) detachTransaction(t *Transaction) {
	for _, s := range t.splits {
		if s.account != nil {
			s.account.removeSplit(s)
			b.balances.invalidateAccount(s.account)
		}
	}
	b.transactions.remove(t.id, t)
	t.book = nil
}

// RemoveCustomer deletes a customer without jobs or invoices.
func (b *Book) RemoveCustomer(c *Customer) (Change, error) {
	if c.book != b {
		return Change{}, NewUnknownEntityError(KindCustomer, c.id)
	}
	if err := b.checkOwnerUnused(KindCustomer, c.id, CustomerOwner(c)); err != nil {
		return Change{}, err
	}
	b.customers.remove(c.id, c)
	c.book = nil
	return b.touch(removed(KindCustomer, c.id, c)), nil
}

// RemoveVendor deletes a vendor without jobs or bills.
func (b *Book) RemoveVendor(v *Vendor) (Change, error) {
	if v.book != b {
		return Change{}, NewUnknownEntityError(KindVendor, v.id)
	}
	if err := b.checkOwnerUnused(KindVendor, v.id, VendorOwner(v)); err != nil {
		return Change{}, err
	}
	b.vendors.remove(v.id, v)
	v.book = nil
	return b.touch(removed(KindVendor, v.id, v)), nil
}

// RemoveJob deletes a job without invoices.
func (b *Book) RemoveJob(j *Job) (Change, error) {
	if j.book != b {
		return Change{}, NewUnknownEntityError(KindJob, j.id)
	}
	if err := b.checkOwnerUnused(KindJob, j.id, JobOwner(j)); err != nil {
		return Change{}, err
	}
	b.jobs.remove(j.id, j)
	j.book = nil
	return b.touch(removed(KindJob, j.id, j)), nil
}

func (b *Book) checkOwnerUnused(kind EntityKind, id string, owner Owner) error {
	if err := b.checkWritable(kind, id); err != nil {
		return err
	}
	if len(b.JobsOf(owner)) > 0 {
		return NewInUseError(kind, id, "has jobs")
	}
	if len(b.InvoicesOf(owner, Direct)) > 0 {
		return NewInUseError(kind, id, "has invoices")
	}
	return nil
}

// RemoveInvoice deletes an unposted, unpaid invoice together with its entries.
func (b *Book) RemoveInvoice(inv *Invoice) (Change, error) {
	if inv.book != b {
		return Change{}, NewUnknownEntityError(KindInvoice, inv.id)
	}
	if err := b.checkWritable(KindInvoice, inv.id); err != nil {
		return Change{}, err
	}
	if err := inv.checkEditable(); err != nil {
		return Change{}, err
	}
	for _, e := range inv.entries {
		b.entries.remove(e.id, e)
		e.book = nil
	}
	b.invoices.remove(inv.id, inv)
	inv.book = nil
	return b.touch(removed(KindInvoice, inv.id, inv)), nil
}

// RemoveEntry deletes a line of an unposted, unpaid invoice.
func (b *Book) RemoveEntry(e *Entry) (Change, error) {
	if e.book != b {
		return Change{}, NewUnknownEntityError(KindEntry, e.id)
	}
	if err := b.checkWritable(KindEntry, e.id); err != nil {
		return Change{}, err
	}
	if inv := e.invoice; inv != nil {
		if err := inv.checkEditable(); err != nil {
			return Change{}, err
		}
		inv.entries = slices.DeleteFunc(inv.entries, func(x *Entry) bool { return x == e })
	}
	b.entries.remove(e.id, e)
	e.book = nil
	return b.touch(removed(KindEntry, e.id, e)), nil
}

// RemoveTaxTable deletes a tax table no entry, customer or vendor uses.
func (b *Book) RemoveTaxTable(t *TaxTable) (Change, error) {
	if t.book != b {
		return Change{}, NewUnknownEntityError(KindTaxTable, t.id)
	}
	if err := b.checkWritable(KindTaxTable, t.id); err != nil {
		return Change{}, err
	}
	for _, e := range b.entries.order {
		if e.taxTable == t {
			return Change{}, NewInUseError(KindTaxTable, t.id, "used by an invoice entry")
		}
	}
	for _, p := range b.parties() {
		if p.taxTable == t {
			return Change{}, NewInUseError(KindTaxTable, t.id, "default of "+p.kind.String()+" "+p.name)
		}
	}
	b.taxTables.remove(t.id, t)
	t.book = nil
	return b.touch(removed(KindTaxTable, t.id, t)), nil
}

// RemoveBillTerms deletes bill terms no invoice, customer or vendor uses.
func (b *Book) RemoveBillTerms(t *BillTerms) (Change, error) {
	if t.book != b {
		return Change{}, NewUnknownEntityError(KindBillTerms, t.id)
	}
	if err := b.checkWritable(KindBillTerms, t.id); err != nil {
		return Change{}, err
	}
	for _, inv := range b.invoices.order {
		if inv.terms == t {
			return Change{}, NewInUseError(KindBillTerms, t.id, "used by an invoice")
		}
	}
	for _, p := range b.parties() {
		if p.terms == t {
			return Change{}, NewInUseError(KindBillTerms, t.id, "default of "+p.kind.String()+" "+p.name)
		}
	}
	b.billTerms.remove(t.id, t)
	t.book = nil
	return b.touch(removed(KindBillTerms, t.id, t)), nil
}

// parties returns every customer and vendor.
func (b *Book) parties() []*party {
	out := make([]*party, 0, b.customers.len()+b.vendors.len())
	for _, c := range b.customers.order {
		out = append(out, &c.party)
	}
	for _, v := range b.vendors.order {
		out = append(out, &v.party)
	}
	return out
}
