package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// newBalanceBook books two EUR sales to the bank and a USD deposit bought for
// EUR, leaving the USD cash account without a price.
func newBalanceBook(t *testing.T) (*testBook, *Account) {
	t.Helper()
	tb := newTestBook(t)
	usdCash, _, err := tb.NewAccount("USD Cash", AccountTypeBank, usd, tb.bank.Parent())
	assert.NoError(t, err)

	book := func(date string, specs ...SplitSpec) {
		_, _, err := tb.NewTransaction(eur, newTestDate(t, date), "", specs...)
		assert.NoError(t, err)
	}
	book("2024-01-10",
		SplitSpec{Account: tb.bank, Value: mustDec("100")},
		SplitSpec{Account: tb.income, Value: mustDec("-100")},
	)
	book("2024-03-01",
		SplitSpec{Account: tb.bank, Value: mustDec("50")},
		SplitSpec{Account: tb.income, Value: mustDec("-50")},
	)
	book("2024-01-15",
		SplitSpec{Account: usdCash, Value: mustDec("90"), Quantity: quantity("100")},
		SplitSpec{Account: tb.income, Value: mustDec("-90")},
	)
	return tb, usdCash
}

func TestBalance(t *testing.T) {
	tb, usdCash := newBalanceBook(t)

	tests := []struct {
		name    string
		account *Account
		asOf    string
		want    string
	}{
		{name: "all dates", account: tb.bank, want: "150"},
		{name: "before first split", account: tb.bank, asOf: "2024-01-09", want: "0"},
		{name: "on split date", account: tb.bank, asOf: "2024-01-10", want: "100"},
		{name: "between splits", account: tb.bank, asOf: "2024-02-01", want: "100"},
		{name: "income", account: tb.income, want: "-240"},
		{name: "quantity in account commodity", account: usdCash, want: "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var asOf time.Time
			if tt.asOf != "" {
				asOf = newTestDate(t, tt.asOf)
			}
			assertDec(t, tt.want, tt.account.Balance(asOf))
		})
	}
}

func TestRecursiveBalance(t *testing.T) {
	tb, _ := newBalanceBook(t)
	assets := tb.bank.Parent()

	total, complete := assets.RecursiveBalance(time.Time{})
	assert.False(t, complete)
	assertDec(t, "150", total)

	_, _, err := tb.AddPrice(usd, eur, newTestDate(t, "2024-01-01"), mustDec("0.9"))
	assert.NoError(t, err)

	total, complete = assets.RecursiveBalance(time.Time{})
	assert.True(t, complete)
	assertDec(t, "240", total)

	total, complete = assets.RecursiveBalance(newTestDate(t, "2024-02-01"))
	assert.True(t, complete)
	assertDec(t, "190", total)

	total, complete = tb.Root().RecursiveBalance(time.Time{})
	assert.True(t, complete)
	assertDec(t, "0", total)
}

func TestHoldings(t *testing.T) {
	tb, _ := newBalanceBook(t)

	h := tb.bank.Parent().Holdings(time.Time{})
	entries := h.Entries()
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, eur, entries[0].Commodity)
	assertDec(t, "150", entries[0].Amount)
	assert.Equal(t, usd, entries[1].Commodity)
	assertDec(t, "100", entries[1].Amount)
	assert.True(t, h.Get(gbp).IsZero())
	assert.False(t, h.IsEmpty())

	h.Add(usd, mustDec("-100"))
	h.Add(eur, mustDec("-150"))
	assert.True(t, h.IsEmpty())
}

func TestBalanceMemo(t *testing.T) {
	tb, _ := newBalanceBook(t)
	assets := tb.bank.Parent()

	assertDec(t, "150", tb.bank.Balance(time.Time{}))
	_, _ = assets.RecursiveBalance(time.Time{})
	memoized := tb.balances.len()
	assert.True(t, memoized > 0)

	// A new split on the bank drops the bank entries and those of its ancestors.
	_, _, err := tb.NewTransaction(eur, newTestDate(t, "2024-04-01"), "",
		SplitSpec{Account: tb.bank, Value: mustDec("10")},
		SplitSpec{Account: tb.income, Value: mustDec("-10")},
	)
	assert.NoError(t, err)
	assert.True(t, tb.balances.len() < memoized)
	assertDec(t, "160", tb.bank.Balance(time.Time{}))

	total, _ := assets.RecursiveBalance(time.Time{})
	assertDec(t, "160", total)

	// A price drops every recursive entry.
	_, _, err = tb.AddPrice(usd, eur, newTestDate(t, "2024-01-01"), mustDec("0.5"))
	assert.NoError(t, err)
	total, complete := assets.RecursiveBalance(time.Time{})
	assert.True(t, complete)
	assertDec(t, "210", total)
}
