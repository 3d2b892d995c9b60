package commodity

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/cashbook/numeric"
)

func newTestTable(t *testing.T) *ConversionTable {
	t.Helper()
	table, err := NewConversionTable(MustCurrency("EUR"), 4)
	assert.NoError(t, err)
	return table
}

func TestConversionTableBase(t *testing.T) {
	table := newTestTable(t)
	assert.Equal(t, MustCurrency("EUR"), table.Base())

	got, ok := table.ToBase("CURRENCY", "EUR", numeric.MustParse("12.34"))
	assert.True(t, ok)
	assert.Equal(t, "12.34", got.String())

	got, ok = table.FromBase("CURRENCY", "EUR", numeric.MustParse("12.34"))
	assert.True(t, ok)
	assert.Equal(t, "12.34", got.String())

	_, err := NewConversionTable(MustParse("NYSE:IBM"), 4)
	var typeErr *InvalidCommodityTypeError
	assert.True(t, errors.As(err, &typeErr))
}

func TestConversionTableFactors(t *testing.T) {
	table := newTestTable(t)

	change, err := table.SetFactor("CURRENCY", "USD", numeric.MustParse("0.9"))
	assert.NoError(t, err)
	assert.Equal(t, FactorAdded, change.Kind)
	assert.Equal(t, "USD", change.Code)
	assert.True(t, change.Old.IsZero())

	change, err = table.SetFactor("CURRENCY", "USD", numeric.MustParse("0.92"))
	assert.NoError(t, err)
	assert.Equal(t, FactorUpdated, change.Kind)
	assert.Equal(t, "0.9", change.Old.String())
	assert.Equal(t, "0.92", change.New.String())

	got, ok := table.ToBase("CURRENCY", "USD", numeric.MustParse("100"))
	assert.True(t, ok)
	assert.Equal(t, "92.00", got.String())

	got, ok = table.FromBase("CURRENCY", "USD", numeric.MustParse("92"))
	assert.True(t, ok)
	assert.Equal(t, "100.0000", got.String())

	_, err = table.SetFactor("CURRENCY", "GBP", numeric.Zero)
	var factorErr *InvalidFactorError
	assert.True(t, errors.As(err, &factorErr))
	_, err = table.SetFactor("CURRENCY", "GBP", numeric.MustParse("-1"))
	assert.True(t, errors.As(err, &factorErr))
}

func TestConversionTableUnknown(t *testing.T) {
	table := newTestTable(t)

	_, ok := table.ToBase("CURRENCY", "CHF", numeric.One)
	assert.False(t, ok)
	_, ok = table.FromBase("NASDAQ", "AAPL", numeric.One)
	assert.False(t, ok)
	_, ok = table.Convert(numeric.One, MustCurrency("CHF"), MustCurrency("EUR"))
	assert.False(t, ok)
}

func TestConversionTableNamespaces(t *testing.T) {
	table := newTestTable(t)

	// The same code in two namespaces carries independent factors.
	_, err := table.SetFactor("NASDAQ", "ABC", numeric.MustParse("150"))
	assert.NoError(t, err)
	_, err = table.SetFactor("FUND", "ABC", numeric.MustParse("10"))
	assert.NoError(t, err)
	_, err = table.SetFactor("CURRENCY", "USD", numeric.MustParse("0.5"))
	assert.NoError(t, err)

	assert.Equal(t, []string{"CURRENCY", "FUND", "NASDAQ"}, table.Namespaces())
	assert.Equal(t, []string{"ABC"}, table.Codes("FUND"))
	assert.Equal(t, 3, table.Len())

	got, ok := table.ToBase("NASDAQ", "ABC", numeric.FromInt(2))
	assert.True(t, ok)
	assert.Equal(t, "300", got.String())

	got, ok = table.ToBase("FUND", "ABC", numeric.FromInt(2))
	assert.True(t, ok)
	assert.Equal(t, "20", got.String())

	// 2 ABC on NASDAQ is 300 EUR which is 600 USD.
	got, ok = table.Convert(numeric.FromInt(2), MustParse("NASDAQ:ABC"), MustCurrency("USD"))
	assert.True(t, ok)
	assert.Equal(t, "600.0000", got.String())
}

func TestConversionTableRemove(t *testing.T) {
	table := newTestTable(t)
	_, err := table.SetFactor("FUND", "ABC", numeric.MustParse("10"))
	assert.NoError(t, err)

	change, ok := table.RemoveFactor("FUND", "ABC")
	assert.True(t, ok)
	assert.Equal(t, FactorRemoved, change.Kind)
	assert.Equal(t, "10", change.Old.String())
	assert.Equal(t, 0, len(table.Namespaces()))

	_, ok = table.RemoveFactor("FUND", "ABC")
	assert.False(t, ok)
	_, ok = table.ToBase("FUND", "ABC", numeric.One)
	assert.False(t, ok)
}
