package ledger

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Snapshot returns a deep read-only copy of the book. Queries on the copy behave
// exactly as on the original at the time of the call; every mutation of the copy
// returns ErrReadOnly. The original may keep changing while the copy is read from
// other goroutines. Snapshots do not memoize balances, so concurrent reads share no
// mutable state.
func (b *Book) Snapshot() *Book {
	s := &snapshotter{
		src: b,
		dst: &Book{
			id:           b.id,
			cfg:          b.cfg,
			logger:       b.logger,
			registry:     b.registry,
			readOnly:     true,
			modified:     b.modified,
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
			counters:     maps.Clone(b.counters),
			options:      maps.Clone(b.options),
		},
		accounts:  make(map[*Account]*Account),
		txns:      make(map[*Transaction]*Transaction),
		splits:    make(map[*Split]*Split),
		customers: make(map[*Customer]*Customer),
		vendors:   make(map[*Vendor]*Vendor),
		jobs:      make(map[*Job]*Job),
		invoices:  make(map[*Invoice]*Invoice),
		taxTables: make(map[*TaxTable]*TaxTable),
		terms:     make(map[*BillTerms]*BillTerms),
	}
	s.dst.prices = newPriceDB(s.dst)
	s.copy()
	return s.dst
}

type snapshotter struct {
	src, dst *Book

	accounts  map[*Account]*Account
	txns      map[*Transaction]*Transaction
	splits    map[*Split]*Split
	customers map[*Customer]*Customer
	vendors   map[*Vendor]*Vendor
	jobs      map[*Job]*Job
	invoices  map[*Invoice]*Invoice
	taxTables map[*TaxTable]*TaxTable
	terms     map[*BillTerms]*BillTerms
}

func (s *snapshotter) copy() {
	src, dst := s.src, s.dst

	for _, c := range src.commodities.order {
		cp := *c
		cp.book = dst
		dst.commodities.add(c.id.WireString(), &cp)
	}

	// Accounts are cloned before they are linked so parents may follow children.
	for _, a := range src.accounts.order {
		cp := *a
		cp.book = dst
		cp.children = nil
		cp.splits = nil
		s.accounts[a] = &cp
		dst.accounts.add(a.id, &cp)
	}
	for _, a := range src.accounts.order {
		cp := s.accounts[a]
		cp.parent = s.accounts[a.parent]
		for _, child := range a.children {
			cp.children = append(cp.children, s.accounts[child])
		}
	}

	for _, t := range src.billTerms.order {
		cp := *t
		cp.book = dst
		s.terms[t] = &cp
		dst.billTerms.add(t.id, &cp)
	}

	for _, t := range src.taxTables.order {
		cp := &TaxTable{book: dst, id: t.id, name: t.name}
		for _, e := range t.entries {
			ce := *e
			ce.account = s.accounts[e.account]
			cp.entries = append(cp.entries, &ce)
		}
		s.taxTables[t] = cp
		dst.taxTables.add(t.id, cp)
	}

	for _, c := range src.customers.order {
		cp := &Customer{party: s.party(c.party)}
		cp.self = cp
		s.customers[c] = cp
		dst.customers.add(c.id, cp)
	}
	for _, v := range src.vendors.order {
		cp := &Vendor{party: s.party(v.party)}
		cp.self = cp
		s.vendors[v] = cp
		dst.vendors.add(v.id, cp)
	}

	// A job is owned by a customer or vendor, never by another job.
	for _, j := range src.jobs.order {
		cp := *j
		cp.book = dst
		cp.owner = s.owner(j.owner)
		s.jobs[j] = &cp
		dst.jobs.add(j.id, &cp)
	}

	for _, t := range src.transactions.order {
		cp := *t
		cp.book = dst
		cp.splits = make([]*Split, 0, len(t.splits))
		for _, sp := range t.splits {
			cs := *sp
			cs.txn = &cp
			cs.account = s.accounts[sp.account]
			s.splits[sp] = &cs
			cp.splits = append(cp.splits, &cs)
		}
		s.txns[t] = &cp
		dst.transactions.add(t.id, &cp)
	}
	// Account split order follows the source, which may differ from transaction order
	// after edits.
	for _, a := range src.accounts.order {
		cp := s.accounts[a]
		for _, sp := range a.splits {
			cp.splits = append(cp.splits, s.splits[sp])
		}
	}

	prices := make(map[*Price]*Price, src.prices.Len())
	for _, p := range src.prices.all.order {
		cp := *p
		cp.book = dst
		prices[p] = &cp
		dst.prices.all.add(p.id, &cp)
	}
	for cid, history := range src.prices.byCommodity {
		out := make([]*Price, 0, len(history))
		for _, p := range history {
			out = append(out, prices[p])
		}
		dst.prices.byCommodity[cid] = out
	}
	dst.prices.seq = src.prices.seq

	for _, inv := range src.invoices.order {
		cp := *inv
		cp.book = dst
		cp.owner = s.owner(inv.owner)
		cp.postAccount = s.accounts[inv.postAccount]
		cp.postTxn = s.txns[inv.postTxn]
		cp.terms = s.terms[inv.terms]
		cp.entries = nil
		s.invoices[inv] = &cp
		dst.invoices.add(inv.id, &cp)
	}

	entries := make(map[*Entry]*Entry, src.entries.len())
	for _, e := range src.entries.order {
		cp := *e
		cp.book = dst
		cp.invoice = s.invoices[e.invoice]
		cp.account = s.accounts[e.account]
		cp.taxTable = s.taxTables[e.taxTable]
		entries[e] = &cp
		dst.entries.add(e.id, &cp)
	}
	for _, inv := range src.invoices.order {
		cp := s.invoices[inv]
		for _, e := range inv.entries {
			cp.entries = append(cp.entries, entries[e])
		}
	}
}

func (s *snapshotter) party(p party) party {
	cp := p
	cp.book = s.dst
	cp.self = nil
	cp.address.Lines = slices.Clone(p.address.Lines)
	cp.taxTable = s.taxTables[p.taxTable]
	cp.terms = s.terms[p.terms]
	return cp
}

func (s *snapshotter) owner(o Owner) Owner {
	switch o.kind {
	case OwnerCustomer:
		return CustomerOwner(s.customers[o.customer])
	case OwnerVendor:
		return VendorOwner(s.vendors[o.vendor])
	case OwnerJob:
		return JobOwner(s.jobs[o.job])
	default:
		return Owner{}
	}
}
