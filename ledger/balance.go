package ledger

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/numeric"
)

// Holdings is an amount per commodity, kept sorted by commodity id for
// deterministic iteration.
type Holdings struct {
	entries []CommodityAmount
}

// CommodityAmount is an amount of one commodity.
type CommodityAmount struct {
	Commodity commodity.ID
	Amount    numeric.Decimal
}

// Get returns the amount of a commodity, zero when absent.
func (h *Holdings) Get(id commodity.ID) numeric.Decimal {
	if i, ok := h.find(id); ok {
		return h.entries[i].Amount
	}
	return numeric.Zero
}

// Add adds amount to the holding of id.
func (h *Holdings) Add(id commodity.ID, amount numeric.Decimal) {
	i, ok := h.find(id)
	if ok {
		h.entries[i].Amount = h.entries[i].Amount.Add(amount)
		return
	}
	h.entries = slices.Insert(h.entries, i, CommodityAmount{Commodity: id, Amount: amount})
}

// Entries returns the holdings in commodity order.
func (h *Holdings) Entries() []CommodityAmount { return slices.Clone(h.entries) }

// IsEmpty reports whether every holding is zero.
func (h *Holdings) IsEmpty() bool {
	for _, e := range h.entries {
		if !e.Amount.IsZero() {
			return false
		}
	}
	return true
}

func (h *Holdings) find(id commodity.ID) (int, bool) {
	key := id.WireString()
	return slices.BinarySearchFunc(h.entries, key, func(e CommodityAmount, k string) int {
		return strings.Compare(e.Commodity.WireString(), k)
	})
}

// allDates is the memo key of balances without a date limit.
const allDates = math.MaxInt64

type balanceKey struct {
	account   *Account
	asOf      int64
	recursive bool
}

type balanceEntry struct {
	amount   numeric.Decimal
	complete bool
}

// balanceCache memoizes account balances per (account, date). An entry stays valid
// until a split of the account or of one of its descendants changes.
type balanceCache struct {
	memo map[balanceKey]balanceEntry
}

func newBalanceCache() *balanceCache {
	return &balanceCache{memo: make(map[balanceKey]balanceEntry)}
}

func memoDate(asOf time.Time) int64 {
	if asOf.IsZero() {
		return allDates
	}
	return asOf.UnixNano()
}

// invalidateAccount drops the own balance of a and the recursive balances of a and
// all its ancestors.
func (c *balanceCache) invalidateAccount(a *Account) {
	if c == nil || a == nil {
		return
	}
	for key := range c.memo {
		if key.account == a || (key.recursive && key.account.isAncestorOf(a)) {
			delete(c.memo, key)
		}
	}
}

// invalidatePrices drops every recursive balance, since any of them may have
// converted a child through the price database.
func (c *balanceCache) invalidatePrices() {
	if c == nil {
		return
	}
	for key := range c.memo {
		if key.recursive {
			delete(c.memo, key)
		}
	}
}

func (c *balanceCache) len() int { return len(c.memo) }

func (a *Account) cache() *balanceCache {
	if a.book == nil {
		return nil
	}
	return a.book.balances
}

// Balance returns the sum of split quantities posted to the account on or before
// asOf, in the account commodity. A zero asOf includes every split.
func (a *Account) Balance(asOf time.Time) numeric.Decimal {
	key := balanceKey{account: a, asOf: memoDate(asOf)}
	cache := a.cache()
	if cache != nil {
		if e, ok := cache.memo[key]; ok {
			return e.amount
		}
	}

	total := numeric.Zero
	for _, s := range a.splits {
		if asOf.IsZero() || !s.txn.posted.After(asOf) {
			total = total.Add(s.quantity)
		}
	}

	if cache != nil {
		cache.memo[key] = balanceEntry{amount: total, complete: true}
	}
	return total
}

// RecursiveBalance returns the balance of the account and all its descendants in
// the account commodity. Children held in another commodity are converted through
// the price database at asOf. Children that cannot be converted are left out and
// the result is reported incomplete.
func (a *Account) RecursiveBalance(asOf time.Time) (numeric.Decimal, bool) {
	key := balanceKey{account: a, asOf: memoDate(asOf), recursive: true}
	cache := a.cache()
	if cache != nil {
		if e, ok := cache.memo[key]; ok {
			return e.amount, e.complete
		}
	}

	total := a.Balance(asOf)
	complete := true
	for _, child := range a.children {
		amount, ok := child.RecursiveBalance(asOf)
		if !ok {
			complete = false
		}
		if child.commodity == a.commodity || amount.IsZero() {
			total = total.Add(amount)
			continue
		}
		converted, err := a.convertChild(amount, child, asOf)
		if err != nil {
			complete = false
			a.logger().Warn("skipping child balance without conversion",
				slog.String("account", a.FullName()),
				slog.String("child", child.FullName()),
				slog.String("error", err.Error()))
			continue
		}
		total = total.Add(converted)
	}

	if cache != nil {
		cache.memo[key] = balanceEntry{amount: total, complete: complete}
	}
	return total, complete
}

// Holdings returns the unconverted recursive balance per commodity.
func (a *Account) Holdings(asOf time.Time) *Holdings {
	h := &Holdings{}
	h.Add(a.commodity, a.Balance(asOf))
	for _, d := range a.Descendants() {
		h.Add(d.commodity, d.Balance(asOf))
	}
	return h
}

func (a *Account) convertChild(amount numeric.Decimal, child *Account, asOf time.Time) (numeric.Decimal, error) {
	if a.book == nil {
		return numeric.Zero, NewNoConversionPathError(child.commodity, a.commodity, asOf)
	}
	if asOf.IsZero() {
		asOf = latestDate
	}
	return a.book.prices.Convert(amount, child.commodity, a.commodity, asOf)
}

func (a *Account) logger() *slog.Logger {
	if a.book == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.book.logger
}
