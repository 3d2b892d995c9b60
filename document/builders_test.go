package document

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestNewBook(t *testing.T) {
	root := NewAccount("acc-root", "Root Account", "ROOT", "CURRENCY:EUR", "")
	assets := NewAccount("acc-assets", "Assets", "ASSET", "CURRENCY:EUR", "acc-root")

	book := NewBook("book-1",
		WithOption("base_currency", "EUR"),
		WithCounter(CounterInvoice, 12),
		WithAccounts(root),
		WithAccounts(assets),
	)

	assert.Equal(t, "book-1", book.ID)
	assert.Equal(t, "EUR", book.Options["base_currency"])
	assert.Equal(t, int64(12), book.Counters[CounterInvoice])
	assert.Equal(t, []*Account{root, assets}, book.Accounts)
	assert.Equal(t, "", root.Parent)
	assert.Equal(t, "acc-root", assets.Parent)
}

func TestNewTransaction(t *testing.T) {
	posted := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	entered := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	txn := NewTransaction("tx-1", "CURRENCY:EUR", posted,
		WithNum("42"),
		WithDescription("Payment"),
		WithSplits(
			NewSplit("s-1", "acc-bank", "132760/100"),
			NewSplit("s-2", "acc-ar", "-132760/100",
				WithLot("lot-1"),
				WithAction("Payment"),
				WithMemo("March"),
				WithReconcile("c"),
			),
		),
	)

	assert.Equal(t, posted, txn.Entered)
	assert.Equal(t, "42", txn.Num)
	assert.Equal(t, "Payment", txn.Description)
	assert.Equal(t, 2, len(txn.Splits))

	s := txn.Splits[1]
	assert.Equal(t, "-132760/100", s.Quantity)
	assert.Equal(t, "lot-1", s.Lot)
	assert.Equal(t, "Payment", s.Action)
	assert.Equal(t, "March", s.Memo)
	assert.Equal(t, "c", s.Reconcile)
	assert.Equal(t, "n", txn.Splits[0].Reconcile)

	txn = NewTransaction("tx-2", "CURRENCY:EUR", posted, WithEntered(entered),
		WithSplits(NewSplit("s-3", "acc-stock", "100/1", WithQuantity("2/1"))))
	assert.Equal(t, entered, txn.Entered)
	assert.Equal(t, "2/1", txn.Splits[0].Quantity)
}

func TestOwners(t *testing.T) {
	tests := []struct {
		name  string
		owner Owner
		want  string
	}{
		{"Customer", CustomerOwner("c"), OwnerCustomer},
		{"Vendor", VendorOwner("v"), OwnerVendor},
		{"Job", JobOwner("j"), OwnerJob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.owner.Type)
		})
	}
}

func TestNewInvoice(t *testing.T) {
	opened := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	posted := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	due := posted.AddDate(0, 0, 30)

	inv := NewInvoice("inv-1", "000001", CustomerOwner("cust-1"), "CURRENCY:EUR", opened,
		WithPosting("acc-ar", "tx-post", "lot-1", posted),
		WithDue(due),
		WithTerms("net30"),
		WithInvoiceNotes("thanks"),
	)

	assert.True(t, inv.Active)
	assert.Equal(t, "acc-ar", inv.PostAccount)
	assert.Equal(t, "tx-post", inv.PostTxn)
	assert.Equal(t, "lot-1", inv.PostLot)
	assert.Equal(t, posted, inv.Posted)
	assert.Equal(t, due, inv.Due)
	assert.Equal(t, "net30", inv.Terms)
	assert.Equal(t, "thanks", inv.Notes)
}

func TestNewEntry(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	e := NewEntry("e-1", "inv-1", date, "2/1", "66380/100",
		WithEntryDescription("Consulting"),
		WithEntryAccount("acc-income"),
		WithTax("tt-vat", true),
	)
	assert.Equal(t, "66380/100", e.InvoicePrice)
	assert.Equal(t, "", e.BillPrice)
	assert.True(t, e.Taxable)
	assert.True(t, e.TaxIncluded)
	assert.Equal(t, "tt-vat", e.TaxTable)
	assert.Equal(t, "acc-income", e.Account)

	bill := NewEntry("e-2", "bill-1", date, "1/1", "", WithBillPrice("500/1"))
	assert.Equal(t, "", bill.InvoicePrice)
	assert.Equal(t, "500/1", bill.BillPrice)
	assert.False(t, bill.Taxable)
}

func TestTaxAndTerms(t *testing.T) {
	tt := NewTaxTable("tt-vat", "VAT", NewPercentTax("acc-vat", "21/1"))
	assert.Equal(t, 1, len(tt.Entries))
	assert.Equal(t, "PERCENT", tt.Entries[0].Type)

	term := NewBillTerm("net30", "Net 30", 30)
	assert.Equal(t, 30, term.DueDays)

	p := NewPrice("p-1", "EURONEXT:MBG", "CURRENCY:EUR", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "6512/100")
	assert.Equal(t, "user:price", p.Source)
}
