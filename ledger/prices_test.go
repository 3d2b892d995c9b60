package ledger

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/cashbook/commodity"
)

var (
	usd  = commodity.MustCurrency("USD")
	gbp  = commodity.MustCurrency("GBP")
	jpy  = commodity.MustCurrency("JPY")
	fund = commodity.MustParse("FUND:ABC")
)

func newTestPriceDB(t *testing.T) *PriceDB {
	t.Helper()
	cfg := NewConfig()
	cfg.BaseCurrency = eur
	return NewPriceDB(cfg)
}

func TestPriceLookup(t *testing.T) {
	db := newTestPriceDB(t)
	d1 := newTestDate(t, "2024-01-01")
	d2 := newTestDate(t, "2024-02-01")
	assert.NoError(t, db.Add(NewPrice(usd, eur, d2, mustDec("0.95"))))
	assert.NoError(t, db.Add(NewPrice(usd, eur, d1, mustDec("0.90"))))

	tests := []struct {
		name string
		asOf string
		want string
	}{
		{name: "on first date", asOf: "2024-01-01", want: "0.90"},
		{name: "between dates", asOf: "2024-01-20", want: "0.90"},
		{name: "on second date", asOf: "2024-02-01", want: "0.95"},
		{name: "after last date", asOf: "2025-01-01", want: "0.95"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := db.Lookup(usd, newTestDate(t, tt.asOf))
			assert.NoError(t, err)
			assertDec(t, tt.want, q.Value)
			assert.Equal(t, eur, q.Currency)
		})
	}

	t.Run("before first date", func(t *testing.T) {
		_, err := db.Lookup(usd, newTestDate(t, "2023-12-31"))
		var notFound *NotFoundError
		assert.True(t, errors.As(err, &notFound))
		assert.Equal(t, usd, notFound.Commodity)
	})

	t.Run("history is ordered by date", func(t *testing.T) {
		history := db.Prices(usd)
		assert.Equal(t, 2, len(history))
		assert.Equal(t, d1, history[0].Date())
		assert.Equal(t, d2, history[1].Date())
	})
}

func TestPriceLookupSameDateLastWins(t *testing.T) {
	db := newTestPriceDB(t)
	d := newTestDate(t, "2024-03-01")
	assert.NoError(t, db.Add(NewPrice(usd, eur, d, mustDec("0.91"))))
	assert.NoError(t, db.Add(NewPrice(usd, eur, d, mustDec("0.92"))))

	q, err := db.Lookup(usd, d)
	assert.NoError(t, err)
	assertDec(t, "0.92", q.Value)
	assert.Equal(t, 2, db.Len())
}

func TestPriceLookupIn(t *testing.T) {
	db := newTestPriceDB(t)
	d := newTestDate(t, "2024-03-01")
	assert.NoError(t, db.Add(NewPrice(fund, eur, d, mustDec("25"))))
	assert.NoError(t, db.Add(NewPrice(fund, usd, d, mustDec("27"))))

	q, err := db.LookupIn(fund, eur, d)
	assert.NoError(t, err)
	assertDec(t, "25", q.Value)

	_, err = db.LookupIn(fund, gbp, d)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, gbp, notFound.Currency)
}

func TestPriceConvert(t *testing.T) {
	db := newTestPriceDB(t)
	d := newTestDate(t, "2024-03-01")
	assert.NoError(t, db.Add(NewPrice(gbp, eur, d, mustDec("1.2"))))
	assert.NoError(t, db.Add(NewPrice(usd, eur, d, mustDec("0.9"))))
	assert.NoError(t, db.Add(NewPrice(fund, eur, d, mustDec("25"))))

	tests := []struct {
		name     string
		amount   string
		from, to commodity.ID
		want     string
	}{
		{name: "identity", amount: "7", from: usd, to: usd, want: "7"},
		{name: "direct", amount: "4", from: fund, to: eur, want: "100"},
		{name: "inverse", amount: "100", from: eur, to: fund, want: "4"},
		{name: "inverse currency", amount: "90", from: eur, to: usd, want: "100"},
		{name: "through base", amount: "100", from: gbp, to: usd, want: "133.333333333333"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Convert(mustDec(tt.amount), tt.from, tt.to, d)
			assert.NoError(t, err)
			assertDec(t, tt.want, got)
		})
	}

	t.Run("no path", func(t *testing.T) {
		_, err := db.Convert(mustDec("1"), fund, gbp, newTestDate(t, "2024-01-01"))
		var noPath *NoConversionPathError
		assert.True(t, errors.As(err, &noPath))
		assert.Equal(t, fund, noPath.From)
		assert.Equal(t, gbp, noPath.To)
	})
}

func TestPriceConvertThroughQuoteCurrency(t *testing.T) {
	db := newTestPriceDB(t)
	d := newTestDate(t, "2024-01-01")
	assert.NoError(t, db.Add(NewPrice(fund, usd, d, mustDec("200"))))
	assert.NoError(t, db.Add(NewPrice(usd, eur, d, mustDec("0.90"))))
	assert.NoError(t, db.Add(NewPrice(gbp, eur, d, mustDec("1.2"))))

	tests := []struct {
		name string
		to   commodity.ID
		want string
	}{
		{name: "quote currency", to: usd, want: "200"},
		{name: "base currency", to: eur, want: "180"},
		{name: "through base", to: gbp, want: "150"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Convert(mustDec("1"), fund, tt.to, d)
			assert.NoError(t, err)
			assertDec(t, tt.want, got)
		})
	}

	_, err := db.Convert(mustDec("1"), fund, jpy, d)
	var noPath *NoConversionPathError
	assert.True(t, errors.As(err, &noPath))
}

func TestBookSecurityQuotedInForeignCurrency(t *testing.T) {
	tb := newTestBook(t)
	d := newTestDate(t, "2024-01-01")
	stock, _, err := tb.NewAccount("Fund", AccountTypeStock, fund, tb.bank.Parent())
	assert.NoError(t, err)
	_, _, err = tb.NewTransaction(eur, d, "Buy",
		SplitSpec{Account: stock, Value: mustDec("360"), Quantity: quantity("2")},
		SplitSpec{Account: tb.bank, Value: mustDec("-360")},
	)
	assert.NoError(t, err)
	_, _, err = tb.AddPrice(fund, usd, d, mustDec("200"))
	assert.NoError(t, err)
	_, _, err = tb.AddPrice(usd, eur, d, mustDec("0.90"))
	assert.NoError(t, err)

	table, err := tb.ConversionTable(d)
	assert.NoError(t, err)
	factor, ok := table.Factor(fund.Namespace(), fund.Code())
	assert.True(t, ok)
	assertDec(t, "180", factor)

	total, complete := tb.bank.Parent().RecursiveBalance(d)
	assert.True(t, complete)
	assertDec(t, "0", total)
}

func TestPriceAddRejects(t *testing.T) {
	db := newTestPriceDB(t)
	d := newTestDate(t, "2024-03-01")

	err := db.Add(NewPrice(usd, eur, d, mustDec("0")))
	var invalid *InvalidFieldError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "value", invalid.Field)

	err = db.Add(NewPrice(usd, fund, d, mustDec("1")))
	var wrongType *commodity.InvalidCommodityTypeError
	assert.True(t, errors.As(err, &wrongType), "%v", err)

	p := NewPrice(usd, eur, d, mustDec("1"))
	assert.NoError(t, db.Add(p))
	assert.Error(t, db.Add(p))
	assert.Equal(t, 1, db.Len())
}

func TestBookPrices(t *testing.T) {
	tb := newTestBook(t)
	d := newTestDate(t, "2024-03-01")

	p, change, err := tb.AddPrice(usd, eur, d, mustDec("0.9"))
	assert.NoError(t, err)
	assert.Equal(t, Added, change.Op)
	assert.Equal(t, KindPrice, change.Kind)
	assert.Equal(t, p, change.Entity.(*Price))
	_, _, err = tb.AddPrice(fund, eur, d, mustDec("25"))
	assert.NoError(t, err)
	_, _, err = tb.AddPrice(commodity.MustParse("FUND:XYZ"), usd, d, mustDec("10"))
	assert.NoError(t, err)

	table, err := tb.ConversionTable(d)
	assert.NoError(t, err)
	assert.Equal(t, eur, table.Base())
	f, ok := table.Factor("CURRENCY", "USD")
	assert.True(t, ok)
	assertDec(t, "0.9", f)
	f, ok = table.Factor("FUND", "ABC")
	assert.True(t, ok)
	assertDec(t, "25", f)
	// Only quoted in USD, which is not the base.
	_, ok = table.Factor("FUND", "XYZ")
	assert.False(t, ok)

	_, err = tb.RemovePrice(p)
	assert.NoError(t, err)
	_, err = tb.Prices().Lookup(usd, d)
	assert.Error(t, err)

	snap := tb.Snapshot()
	_, _, err = snap.AddPrice(usd, eur, d, mustDec("1"))
	assert.True(t, errors.Is(err, ErrReadOnly))
}
