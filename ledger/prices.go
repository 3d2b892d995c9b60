package ledger

import (
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/numeric"
)

// latestDate stands in for "no date limit" in lookups.
var latestDate = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Price quotes one unit of a commodity in a currency on a date.
type Price struct {
	book *Book

	id        string
	commodity commodity.ID
	currency  commodity.ID
	date      time.Time
	value     numeric.Decimal
	source    string
	typ       string
	seq       uint64
}

// NewPrice creates a detached price quote for PriceDB.Add. Source defaults to
// "user:price" and type to "unknown".
func NewPrice(cmdty, currency commodity.ID, date time.Time, value numeric.Decimal) *Price {
	return &Price{
		commodity: cmdty,
		currency:  currency,
		date:      date,
		value:     value,
		source:    "user:price",
		typ:       "unknown",
	}
}

func (p *Price) ID() string { return p.id }
func (p *Price) Commodity() commodity.ID { return p.commodity }
func (p *Price) Currency() commodity.ID { return p.currency }
func (p *Price) Date() time.Time { return p.date }
func (p *Price) Value() numeric.Decimal { return p.value }
func (p *Price) Source() string { return p.source }
func (p *Price) Type() string { return p.typ }

// Quote is the result of a price lookup.
type Quote struct {
	Value    numeric.Decimal
	Currency commodity.ID
	Date     time.Time
	Price    *Price
}

// PriceDB stores the price history of every commodity, ordered by date.
//
// Lookups return the latest quote on or before a date and never extrapolate
// forward. Quotes of the same commodity on the same date are ordered by insertion,
// the last inserted wins.
type PriceDB struct {
	book *Book

	byCommodity map[commodity.ID][]*Price
	all         *index[*Price]
	seq         uint64
}

// NewPriceDB creates a stand-alone price database using cfg for division scale and
// base currency routing. A nil cfg uses the defaults.
func NewPriceDB(cfg *Config) *PriceDB {
	db := newPriceDB(nil)
	if cfg != nil {
		db.book = &Book{cfg: cfg, balances: newBalanceCache()}
	}
	return db
}

func newPriceDB(b *Book) *PriceDB {
	return &PriceDB{
		book:        b,
		byCommodity: make(map[commodity.ID][]*Price),
		all:         newIndex[*Price](),
	}
}

// Add inserts a price. The value must be non-zero and the price currency must be a
// currency.
func (db *PriceDB) Add(p *Price) error {
	if db.book != nil && db.book.readOnly {
		return ErrReadOnly
	}
	if p.seq != 0 {
		return NewInvalidFieldError(KindPrice, p.id, "price", "already in a price database")
	}
	if err := db.check(p); err != nil {
		return err
	}
	db.insert(p)
	if db.book != nil {
		db.book.balances.invalidatePrices()
		db.book.modified = true
	}
	return nil
}

func (db *PriceDB) check(p *Price) error {
	if err := commodity.RequireCurrency(p.currency); err != nil {
		return err
	}
	if p.commodity.IsZero() {
		return NewInvalidFieldError(KindPrice, p.id, "commodity", "must not be empty")
	}
	if p.value.IsZero() {
		return NewInvalidFieldError(KindPrice, p.id, "value", "must not be zero")
	}
	return nil
}

func (db *PriceDB) insert(p *Price) {
	db.seq++
	p.seq = db.seq
	if db.book != nil && db.book.prices == db {
		p.book = db.book
	}

	history := db.byCommodity[p.commodity]
	i := upperBound(history, p.date)
	db.byCommodity[p.commodity] = slices.Insert(history, i, p)
	db.all.add(p.id, p)
}

// upperBound returns the index of the first price dated after date.
func upperBound(history []*Price, date time.Time) int {
	i, _ := slices.BinarySearchFunc(history, date, func(p *Price, d time.Time) int {
		if p.date.After(d) {
			return 1
		}
		return -1
	})
	return i
}

// Remove deletes the price with the given id.
func (db *PriceDB) Remove(id string) (*Price, bool) {
	p, ok := db.all.get(id)
	if !ok {
		return nil, false
	}
	if db.book != nil && db.book.readOnly {
		return nil, false
	}
	db.remove(p)
	return p, true
}

func (db *PriceDB) remove(p *Price) {
	db.byCommodity[p.commodity] = slices.DeleteFunc(db.byCommodity[p.commodity], func(e *Price) bool { return e == p })
	if len(db.byCommodity[p.commodity]) == 0 {
		delete(db.byCommodity, p.commodity)
	}
	db.all.remove(p.id, p)
	if db.book != nil {
		db.book.balances.invalidatePrices()
		db.book.modified = true
	}
	p.book = nil
}

// ByID returns the price with the given id.
func (db *PriceDB) ByID(id string) (*Price, bool) { return db.all.get(id) }

// Prices returns the history of a commodity, oldest first.
func (db *PriceDB) Prices(from commodity.ID) []*Price {
	return slices.Clone(db.byCommodity[from])
}

// All returns every price in insertion order.
func (db *PriceDB) All() []*Price { return db.all.all() }

// Len returns the number of prices.
func (db *PriceDB) Len() int { return db.all.len() }

// Lookup returns the latest quote of from in any currency on or before asOf.
func (db *PriceDB) Lookup(from commodity.ID, asOf time.Time) (Quote, error) {
	history := db.byCommodity[from]
	if i := upperBound(history, asOf); i > 0 {
		return history[i-1].quote(), nil
	}
	return Quote{}, NewNotFoundError(from, commodity.ID{}, asOf)
}

// LookupIn returns the latest quote of from in currency to on or before asOf.
func (db *PriceDB) LookupIn(from, to commodity.ID, asOf time.Time) (Quote, error) {
	history := db.byCommodity[from]
	for i := upperBound(history, asOf) - 1; i >= 0; i-- {
		if history[i].currency == to {
			return history[i].quote(), nil
		}
	}
	return Quote{}, NewNotFoundError(from, to, asOf)
}

func (p *Price) quote() Quote {
	return Quote{Value: p.value, Currency: p.currency, Date: p.date, Price: p}
}

// Convert expresses amount of from in to, using the first of: identity, a direct
// quote, an inverse quote, or two steps through the configured base currency. A
// security without such a path goes through the currency of its latest quote.
func (db *PriceDB) Convert(amount numeric.Decimal, from, to commodity.ID, asOf time.Time) (numeric.Decimal, error) {
	if from == to {
		return amount, nil
	}
	if out, ok := db.route(amount, from, to, asOf); ok {
		return out, nil
	}
	if !from.IsCurrency() {
		if q, err := db.Lookup(from, asOf); err == nil && q.Currency != to {
			if out, ok := db.route(amount.Mul(q.Value), q.Currency, to, asOf); ok {
				return out, nil
			}
		}
	}
	return numeric.Zero, NewNoConversionPathError(from, to, asOf)
}

// route converts with one quote, or with two through the base currency.
func (db *PriceDB) route(amount numeric.Decimal, from, to commodity.ID, asOf time.Time) (numeric.Decimal, bool) {
	if from == to {
		return amount, true
	}
	if out, ok := db.step(amount, from, to, asOf); ok {
		return out, true
	}
	base := db.book.config().BaseCurrency
	if !base.IsZero() && base != from && base != to {
		if mid, ok := db.step(amount, from, base, asOf); ok {
			if out, ok := db.step(mid, base, to, asOf); ok {
				return out, true
			}
		}
	}
	return numeric.Zero, false
}

// step converts with a single direct or inverse quote.
func (db *PriceDB) step(amount numeric.Decimal, from, to commodity.ID, asOf time.Time) (numeric.Decimal, bool) {
	if q, err := db.LookupIn(from, to, asOf); err == nil {
		return amount.Mul(q.Value), true
	}
	if !from.IsCurrency() {
		return numeric.Zero, false
	}
	q, err := db.LookupIn(to, from, asOf)
	if err != nil {
		return numeric.Zero, false
	}
	out, err := amount.Div(q.Value, db.book.config().DivisionScale)
	if err != nil {
		return numeric.Zero, false
	}
	return out, true
}

// AddPrice records a price quote.
func (b *Book) AddPrice(cmdty, currency commodity.ID, date time.Time, value numeric.Decimal) (*Price, Change, error) {
	if err := b.checkWritable(KindPrice, ""); err != nil {
		return nil, Change{}, err
	}
	p := NewPrice(cmdty, currency, date, value)
	if err := b.prices.check(p); err != nil {
		return nil, Change{}, err
	}
	b.prices.insert(p)
	b.balances.invalidatePrices()
	return p, b.touch(added(KindPrice, p.id, p)), nil
}

// RemovePrice deletes a price quote.
func (b *Book) RemovePrice(p *Price) (Change, error) {
	if p.book != b {
		return Change{}, NewUnknownEntityError(KindPrice, p.id)
	}
	if err := b.checkWritable(KindPrice, p.id); err != nil {
		return Change{}, err
	}
	b.prices.remove(p)
	return b.touch(removed(KindPrice, p.id, p)), nil
}

// ConversionTable builds a table of factors to the base currency from the latest
// quotes on or before asOf. Commodities without a path to the base are left out.
func (b *Book) ConversionTable(asOf time.Time) (*commodity.ConversionTable, error) {
	base := b.config().BaseCurrency
	table, err := commodity.NewConversionTable(base, b.config().DivisionScale)
	if err != nil {
		return nil, err
	}
	ids := make([]commodity.ID, 0, len(b.prices.byCommodity))
	for id := range b.prices.byCommodity {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(x, y commodity.ID) int {
		return strings.Compare(x.WireString(), y.WireString())
	})
	for _, id := range ids {
		if id == base {
			continue
		}
		factor, err := b.prices.Convert(numeric.One, id, base, asOf)
		if err != nil || !factor.IsPositive() {
			continue
		}
		if _, err := table.SetFactor(id.Namespace(), id.Code(), factor); err != nil {
			return nil, err
		}
	}
	return table, nil
}
