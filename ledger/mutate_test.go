package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/cashbook/commodity"
)

func TestNewAccountRejects(t *testing.T) {
	tb := newTestBook(t)
	tests := []struct {
		name   string
		acc    string
		typ    AccountType
		parent *Account
		field  string
	}{
		{name: "empty name", acc: " ", typ: AccountTypeAsset, parent: tb.Root(), field: "name"},
		{name: "separator in name", acc: "Cash:Box", typ: AccountTypeAsset, parent: tb.Root(), field: "name"},
		{name: "unknown type", acc: "Cash", typ: AccountType(99), parent: tb.Root(), field: "type"},
		{name: "root with parent", acc: "Root", typ: AccountTypeRoot, parent: tb.Root(), field: "parent"},
		{name: "no parent", acc: "Cash", typ: AccountTypeAsset, field: "parent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tb.Accounts())
			_, _, err := tb.NewAccount(tt.acc, tt.typ, eur, tt.parent)
			var invalid *InvalidFieldError
			assert.True(t, errors.As(err, &invalid), "%v", err)
			assert.Equal(t, tt.field, invalid.Field)
			assert.Equal(t, n, len(tb.Accounts()))
		})
	}
}

func TestNewTransaction(t *testing.T) {
	tb := newTestBook(t)
	posted := newTestDate(t, "2024-02-01")

	txn, change, err := tb.NewTransaction(eur, posted, "Sale",
		SplitSpec{Account: tb.bank, Value: mustDec("25.00")},
		SplitSpec{Account: tb.income, Value: mustDec("-25.00")},
	)
	assert.NoError(t, err)
	assert.Equal(t, Added, change.Op)
	assert.Equal(t, KindTransaction, change.Kind)
	assert.Equal(t, "", change.ID)
	assert.Equal(t, "Sale", txn.Description())
	assert.Equal(t, posted, txn.Entered())
	assert.Equal(t, []*Transaction{txn}, tb.bank.Transactions())
	assertDec(t, "25.00", tb.bank.Balance(time.Time{}))
	assert.Equal(t, NotReconciled, txn.Splits()[0].Reconcile())

	tests := []struct {
		name   string
		splits []SplitSpec
		check  func(t *testing.T, err error)
	}{
		{
			name: "unbalanced",
			splits: []SplitSpec{
				{Account: tb.bank, Value: mustDec("25.00")},
				{Account: tb.income, Value: mustDec("-24.99")},
			},
			check: func(t *testing.T, err error) {
				var unbalanced *UnbalancedTransactionError
				assert.True(t, errors.As(err, &unbalanced))
				assertDec(t, "0.01", unbalanced.Imbalance)
			},
		},
		{
			name:   "single split",
			splits: []SplitSpec{{Account: tb.bank, Value: mustDec("0")}},
			check: func(t *testing.T, err error) {
				var invalid *InvalidFieldError
				assert.True(t, errors.As(err, &invalid))
				assert.Equal(t, "splits", invalid.Field)
			},
		},
		{
			name: "foreign account",
			splits: []SplitSpec{
				{Account: tb.bank, Value: mustDec("1")},
				{Account: newTestBook(t).income, Value: mustDec("-1")},
			},
			check: func(t *testing.T, err error) {
				var unknown *UnknownEntityError
				assert.True(t, errors.As(err, &unknown))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tb.NewTransaction(eur, posted, "Bad", tt.splits...)
			tt.check(t, err)
			assert.Equal(t, 1, len(tb.Transactions()))
			assert.Equal(t, 1, len(tb.bank.Splits()))
		})
	}

	_, _, err = tb.NewTransaction(fund, posted, "Not a currency",
		SplitSpec{Account: tb.bank, Value: mustDec("1")},
		SplitSpec{Account: tb.income, Value: mustDec("-1")},
	)
	var wrongType *commodity.InvalidCommodityTypeError
	assert.True(t, errors.As(err, &wrongType))
}

func TestTransactionEdit(t *testing.T) {
	tb := newTestBook(t)
	txn, _, err := tb.NewTransaction(eur, newTestDate(t, "2024-02-01"), "Sale",
		SplitSpec{Account: tb.bank, Value: mustDec("25.00")},
		SplitSpec{Account: tb.income, Value: mustDec("-25.00")},
	)
	assert.NoError(t, err)

	t.Run("unbalanced commit changes nothing", func(t *testing.T) {
		edit, err := tb.EditTransaction(txn)
		assert.NoError(t, err)
		edit.Description = "Changed"
		edit.Splits()[0].Value = mustDec("30.00")
		assertDec(t, "5.00", edit.Imbalance())

		_, err = edit.Commit()
		var unbalanced *UnbalancedTransactionError
		assert.True(t, errors.As(err, &unbalanced))
		assert.Equal(t, "Sale", txn.Description())
		assertDec(t, "25.00", txn.Splits()[0].Value())
		assertDec(t, "25.00", tb.bank.Balance(time.Time{}))
	})

	t.Run("commit moves splits", func(t *testing.T) {
		edit, err := tb.EditTransaction(txn)
		assert.NoError(t, err)
		drafts := edit.Splits()
		drafts[0].Account = tb.receivable
		drafts[0].Value = mustDec("30.00")
		drafts[1].Value = mustDec("-20.00")
		added := edit.AddSplit(SplitSpec{Account: tb.expenses, Value: mustDec("-10.00"), Memo: "fee"})
		assert.Zero(t, added.Split())

		change, err := edit.Commit()
		assert.NoError(t, err)
		assert.Equal(t, Updated, change.Op)
		assert.Equal(t, "splits", change.Field)

		assert.Equal(t, 3, len(txn.Splits()))
		assert.True(t, txn.IsBalanced())
		assertDec(t, "0", tb.bank.Balance(time.Time{}))
		assertDec(t, "30.00", tb.receivable.Balance(time.Time{}))
		assertDec(t, "-10.00", tb.expenses.Balance(time.Time{}))
		assertDec(t, "-20.00", tb.income.Balance(time.Time{}))
		for _, s := range txn.Splits() {
			assertDec(t, s.Value().String(), s.Quantity())
		}
		assert.Equal(t, 0, len(tb.bank.Splits()))

		_, err = edit.Commit()
		assert.True(t, errors.Is(err, ErrEditFinished))
	})

	t.Run("remove split and discard", func(t *testing.T) {
		edit, err := tb.EditTransaction(txn)
		assert.NoError(t, err)
		drafts := edit.Splits()
		assert.True(t, edit.RemoveSplit(drafts[2]))
		assert.False(t, edit.RemoveSplit(drafts[2]))
		assertDec(t, "10.00", edit.Imbalance())
		edit.Discard()
		_, err = edit.Commit()
		assert.True(t, errors.Is(err, ErrEditFinished))
		assert.Equal(t, 3, len(txn.Splits()))
	})
}

func TestTransactionEditPayment(t *testing.T) {
	b := loadScenario(t)
	txn, _ := b.Transaction("tx-pay")
	inv, _ := b.Invoice("inv-1")
	bank, _ := b.Account("acc-bank")
	custx, _ := b.Account("acc-custx")

	edit, err := b.EditTransaction(txn)
	assert.NoError(t, err)
	drafts := edit.Splits()
	drafts[0].Value = mustDec("-100.00")
	drafts[1].Value = mustDec("100.00")
	_, err = edit.Commit()
	assert.NoError(t, err)

	assertDec(t, "-100.00", txn.Splits()[0].Quantity())
	assertDec(t, "100.00", bank.Balance(time.Time{}))
	assertDec(t, "1227.60", custx.Balance(time.Time{}))
	assertDec(t, "100.00", inv.AmountPaid())
	assert.False(t, inv.IsFullyPaid())
	assert.NoError(t, b.Validate(context.Background()))
}

func TestTransactionEditQuantity(t *testing.T) {
	tb := newTestBook(t)
	stock, _, err := tb.NewAccount("Fund", AccountTypeStock, fund, tb.bank.Parent())
	assert.NoError(t, err)
	txn, _, err := tb.NewTransaction(eur, newTestDate(t, "2024-02-01"), "Buy",
		SplitSpec{Account: stock, Value: mustDec("50"), Quantity: quantity("2")},
		SplitSpec{Account: tb.bank, Value: mustDec("-50")},
	)
	assert.NoError(t, err)

	t.Run("foreign quantity survives a value change", func(t *testing.T) {
		edit, err := tb.EditTransaction(txn)
		assert.NoError(t, err)
		drafts := edit.Splits()
		drafts[0].Value = mustDec("60")
		drafts[1].Value = mustDec("-60")
		_, err = edit.Commit()
		assert.NoError(t, err)
		assertDec(t, "2", stock.Balance(time.Time{}))
		assertDec(t, "-60", tb.bank.Balance(time.Time{}))
	})

	t.Run("explicit zero quantity", func(t *testing.T) {
		edit, err := tb.EditTransaction(txn)
		assert.NoError(t, err)
		gain := edit.AddSplit(SplitSpec{Account: stock, Value: mustDec("5"), Quantity: quantity("0")})
		assert.True(t, gain.Quantity().IsZero())
		edit.AddSplit(SplitSpec{Account: tb.income, Value: mustDec("-5")})
		_, err = edit.Commit()
		assert.NoError(t, err)
		assertDec(t, "2", stock.Balance(time.Time{}))
		assertDec(t, "0", txn.Splits()[2].Quantity())
	})

	t.Run("quantity must follow value in the transaction currency", func(t *testing.T) {
		edit, err := tb.EditTransaction(txn)
		assert.NoError(t, err)
		edit.Splits()[1].SetQuantity(mustDec("-1"))
		_, err = edit.Commit()
		var invalid *InvalidFieldError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "quantity", invalid.Field)
		assertDec(t, "-60", tb.bank.Balance(time.Time{}))

		_, _, err = tb.NewTransaction(eur, newTestDate(t, "2024-02-02"), "",
			SplitSpec{Account: tb.bank, Value: mustDec("1"), Quantity: quantity("2")},
			SplitSpec{Account: tb.income, Value: mustDec("-1")},
		)
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "quantity", invalid.Field)
	})
}

func TestSetParent(t *testing.T) {
	tb := newTestBook(t)
	current, _, err := tb.NewAccount("Current", AccountTypeBank, eur, tb.bank)
	assert.NoError(t, err)

	_, err = tb.bank.SetParent(current)
	var cycle *AccountCycleError
	assert.True(t, errors.As(err, &cycle))
	assert.Equal(t, tb.bank, current.Parent())

	_, err = tb.bank.SetParent(tb.bank)
	assert.True(t, errors.As(err, &cycle))

	_, err = current.SetParent(tb.receivable.Parent())
	assert.NoError(t, err)
	assert.Equal(t, "Assets:Current", current.FullName())
	assert.Equal(t, 0, len(tb.bank.Children()))
}

func TestParentBalanceFollowsMoves(t *testing.T) {
	tb := newTestBook(t)
	savings, _, err := tb.NewAccount("Savings", AccountTypeBank, eur, tb.bank)
	assert.NoError(t, err)
	_, _, err = tb.NewTransaction(eur, newTestDate(t, "2024-02-01"), "Deposit",
		SplitSpec{Account: savings, Value: mustDec("40")},
		SplitSpec{Account: tb.income, Value: mustDec("-40")},
	)
	assert.NoError(t, err)

	total, complete := tb.bank.RecursiveBalance(time.Time{})
	assert.True(t, complete)
	assertDec(t, "40", total)

	_, err = savings.SetParent(tb.Root())
	assert.NoError(t, err)
	total, _ = tb.bank.RecursiveBalance(time.Time{})
	assertDec(t, "0", total)
}

func TestRemoveInUse(t *testing.T) {
	tb := newTestBook(t)
	vat, _, err := tb.NewTaxTable("VAT", TaxRate{Account: tb.vat, Type: TaxPercent, Amount: mustDec("21")})
	assert.NoError(t, err)
	cust, _, err := tb.NewCustomer("Customer", eur)
	assert.NoError(t, err)
	_, err = cust.SetTaxTable(vat)
	assert.NoError(t, err)
	job, _, err := tb.NewJob("Project", CustomerOwner(cust))
	assert.NoError(t, err)
	inv, _, err := tb.NewInvoice(JobOwner(job), eur, newTestDate(t, "2024-05-01"))
	assert.NoError(t, err)
	addEntry(t, tb, inv, "1", "10", nil, false)
	_, _, err = tb.PostInvoice(inv, tb.receivable, newTestDate(t, "2024-05-02"), time.Time{}, "")
	assert.NoError(t, err)

	tests := []struct {
		name   string
		remove func() (Change, error)
		reason string
	}{
		{name: "root account", remove: func() (Change, error) { return tb.RemoveAccount(tb.Root()) }, reason: "root account"},
		{name: "account with children", remove: func() (Change, error) { return tb.RemoveAccount(tb.bank.Parent()) }, reason: "has child accounts"},
		{name: "account with splits", remove: func() (Change, error) { return tb.RemoveAccount(tb.income) }, reason: "has splits"},
		{name: "tax account", remove: func() (Change, error) { return tb.RemoveAccount(tb.vat) }, reason: "used by tax table VAT"},
		{name: "posting transaction", remove: func() (Change, error) { return tb.RemoveTransaction(inv.PostTransaction()) }, reason: "posts an invoice"},
		{name: "customer with jobs", remove: func() (Change, error) { return tb.RemoveCustomer(cust) }, reason: "has jobs"},
		{name: "job with invoices", remove: func() (Change, error) { return tb.RemoveJob(job) }, reason: "has invoices"},
		{name: "posted invoice", remove: func() (Change, error) { return tb.RemoveInvoice(inv) }, reason: "posted"},
		{name: "posted entry", remove: func() (Change, error) { return tb.RemoveEntry(inv.Entries()[0]) }, reason: "posted"},
		{name: "default tax table", remove: func() (Change, error) { return tb.RemoveTaxTable(vat) }, reason: "default of customer Customer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.remove()
			var inUse *InUseError
			assert.True(t, errors.As(err, &inUse), "%v", err)
			assert.Equal(t, tt.reason, inUse.Reason)
		})
	}
}

func TestRemoveDetaches(t *testing.T) {
	tb := newTestBook(t)
	cust, _, err := tb.NewCustomer("Customer", eur)
	assert.NoError(t, err)
	inv, _, err := tb.NewInvoice(CustomerOwner(cust), eur, newTestDate(t, "2024-05-01"))
	assert.NoError(t, err)
	e := addEntry(t, tb, inv, "1", "10", nil, false)

	change, err := tb.RemoveInvoice(inv)
	assert.NoError(t, err)
	assert.Equal(t, Removed, change.Op)
	assert.Equal(t, 0, len(tb.Invoices()))

	// Handles of removed entities no longer belong to the book.
	_, err = tb.RemoveEntry(e)
	var unknown *UnknownEntityError
	assert.True(t, errors.As(err, &unknown))
	_, err = inv.SetNotes("gone")
	assert.True(t, errors.As(err, &unknown))

	_, err = tb.RemoveCustomer(cust)
	assert.NoError(t, err)
	_, ok := tb.CustomerByName("Customer")
	assert.False(t, ok)
}

func TestJobAndInvoiceOwners(t *testing.T) {
	tb := newTestBook(t)
	cust, _, err := tb.NewCustomer("Customer", eur)
	assert.NoError(t, err)
	vend, _, err := tb.NewVendor("Supplier", eur)
	assert.NoError(t, err)
	job, _, err := tb.NewJob("Project", CustomerOwner(cust))
	assert.NoError(t, err)

	_, _, err = tb.NewJob("Nested", JobOwner(job))
	var invalid *InvalidFieldError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "owner", invalid.Field)

	_, err = job.SetOwner(VendorOwner(vend))
	assert.NoError(t, err)
	assert.Equal(t, []*Job{job}, tb.JobsOf(VendorOwner(vend)))

	inv, _, err := tb.NewInvoice(CustomerOwner(cust), eur, newTestDate(t, "2024-05-01"))
	assert.NoError(t, err)
	e := addEntry(t, tb, inv, "1", "10", nil, false)
	_, err = e.SetBillPrice(mustDec("5"))
	var wrong *WrongInvoiceKindError
	assert.True(t, errors.As(err, &wrong))

	_, err = inv.SetOwner(JobOwner(job))
	assert.NoError(t, err)
	assert.Equal(t, JobInvoice, inv.Kind())
	assert.True(t, inv.IsBill())

	_, err = job.SetOwner(CustomerOwner(cust))
	var inUse *InUseError
	assert.True(t, errors.As(err, &inUse))
}

func TestNewCommodity(t *testing.T) {
	tb := newTestBook(t)
	c, _, err := tb.NewCommodity(fund, "ABC Fund", 1000)
	assert.NoError(t, err)
	scale, ok := c.Scale()
	assert.True(t, ok)
	assert.Equal(t, int32(3), scale)

	_, _, err = tb.NewCommodity(fund, "Again", 1000)
	var dup *DuplicateIDError
	assert.True(t, errors.As(err, &dup))

	_, _, err = tb.NewCommodity(commodity.MustParse("FUND:XYZ"), "Bad", 0)
	var invalid *InvalidFieldError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "fraction", invalid.Field)

	_, _, err = tb.AddPrice(fund, eur, newTestDate(t, "2024-01-01"), mustDec("25"))
	assert.NoError(t, err)
	_, err = tb.RemoveCommodity(c)
	var inUse *InUseError
	assert.True(t, errors.As(err, &inUse))
	assert.Equal(t, "has prices", inUse.Reason)
}
