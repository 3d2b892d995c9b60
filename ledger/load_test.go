package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/document"
	"github.com/robinvdvleuten/cashbook/telemetry"
)

func TestLoadScenario(t *testing.T) {
	b := loadScenario(t)

	assert.Equal(t, "book-1", b.ID())
	assert.False(t, b.IsModified())
	assert.Equal(t, 6, len(b.Accounts()))
	assert.Equal(t, 2, len(b.Transactions()))

	inv, ok := b.Invoice("inv-1")
	assert.True(t, ok)
	assert.True(t, inv.IsPosted())
	assert.Equal(t, "lot-1", inv.Lot())
	post, _ := b.Transaction("tx-post")
	assert.Equal(t, post, inv.PostTransaction())
	custx, _ := b.Account("acc-custx")
	assert.Equal(t, custx, inv.PostAccount())

	owner, err := inv.Owner(Direct)
	assert.NoError(t, err)
	c, ok := owner.Customer()
	assert.True(t, ok)
	assert.Equal(t, "Customer X", c.Name())
}

func TestLoadReportsProblems(t *testing.T) {
	date := newTestDate(t, "2024-01-10")
	tests := []struct {
		name    string
		doc     *document.Book
		check   func(t *testing.T, b *Book, errs []error)
		wantLen int
	}{
		{
			name: "unbalanced transaction",
			doc: document.NewBook("b",
				document.WithAccounts(
					document.NewAccount("root", "Root Account", "ROOT", "CURRENCY:EUR", ""),
					document.NewAccount("bank", "Bank", "BANK", "CURRENCY:EUR", "root"),
					document.NewAccount("income", "Income", "INCOME", "CURRENCY:EUR", "root"),
				),
				document.WithTransactions(document.NewTransaction("tx", "CURRENCY:EUR", date,
					document.WithSplits(
						document.NewSplit("s1", "bank", "1000/100"),
						document.NewSplit("s2", "income", "-999/100"),
					),
				)),
			),
			wantLen: 1,
			check: func(t *testing.T, b *Book, errs []error) {
				var unbalanced *UnbalancedTransactionError
				assert.True(t, errors.As(errs[0], &unbalanced))
				assertDec(t, "0.01", unbalanced.Imbalance)
				_, ok := b.Transaction("tx")
				assert.True(t, ok)
			},
		},
		{
			name: "dangling split account",
			doc: document.NewBook("b",
				document.WithAccounts(
					document.NewAccount("root", "Root Account", "ROOT", "CURRENCY:EUR", ""),
					document.NewAccount("bank", "Bank", "BANK", "CURRENCY:EUR", "root"),
				),
				document.WithTransactions(document.NewTransaction("tx", "CURRENCY:EUR", date,
					document.WithSplits(
						document.NewSplit("s1", "bank", "1000/100"),
						document.NewSplit("s2", "missing", "-1000/100"),
					),
				)),
			),
			wantLen: 1,
			check: func(t *testing.T, b *Book, errs []error) {
				var dangling *DanglingReferenceError
				assert.True(t, errors.As(errs[0], &dangling))
				assert.Equal(t, "missing", dangling.Ref)
				s, ok := b.Split("s2")
				assert.True(t, ok)
				assert.Zero(t, s.Account())
			},
		},
		{
			name: "duplicate account id keeps the first",
			doc: document.NewBook("b",
				document.WithAccounts(
					document.NewAccount("root", "Root Account", "ROOT", "CURRENCY:EUR", ""),
					document.NewAccount("bank", "Bank", "BANK", "CURRENCY:EUR", "root"),
					document.NewAccount("bank", "Other Bank", "BANK", "CURRENCY:EUR", "root"),
				),
			),
			wantLen: 1,
			check: func(t *testing.T, b *Book, errs []error) {
				var dup *DuplicateIDError
				assert.True(t, errors.As(errs[0], &dup))
				acc, _ := b.Account("bank")
				assert.Equal(t, "Bank", acc.Name())
			},
		},
		{
			name: "account cycle",
			doc: document.NewBook("b",
				document.WithAccounts(
					document.NewAccount("root", "Root Account", "ROOT", "CURRENCY:EUR", ""),
					document.NewAccount("a", "A", "ASSET", "CURRENCY:EUR", "b"),
					document.NewAccount("b", "B", "ASSET", "CURRENCY:EUR", "a"),
				),
			),
			wantLen: 1,
			check: func(t *testing.T, b *Book, errs []error) {
				var cycle *AccountCycleError
				assert.True(t, errors.As(errs[0], &cycle))
				assert.Equal(t, "b", cycle.Account)
				assert.Equal(t, []string{"b", "a", "b"}, cycle.Path)
			},
		},
		{
			name: "payment of two lots",
			doc: document.NewBook("b",
				document.WithAccounts(
					document.NewAccount("root", "Root Account", "ROOT", "CURRENCY:EUR", ""),
					document.NewAccount("ar", "Receivables", "RECEIVABLE", "CURRENCY:EUR", "root"),
					document.NewAccount("bank", "Bank", "BANK", "CURRENCY:EUR", "root"),
				),
				document.WithTransactions(document.NewTransaction("tx", "CURRENCY:EUR", date,
					document.WithSplits(
						document.NewSplit("s1", "ar", "-10/1", document.WithLot("lot-a"), document.WithAction("Payment")),
						document.NewSplit("s2", "ar", "-5/1", document.WithLot("lot-b"), document.WithAction("payment")),
						document.NewSplit("s3", "bank", "15/1"),
					),
				)),
			),
			wantLen: 1,
			check: func(t *testing.T, b *Book, errs []error) {
				var ambiguous *AmbiguousPaymentError
				assert.True(t, errors.As(errs[0], &ambiguous))
				assert.Equal(t, []string{"lot-a", "lot-b"}, ambiguous.Lots)
			},
		},
		{
			name: "invoice with unknown owner",
			doc: document.NewBook("b",
				document.WithAccounts(document.NewAccount("root", "Root Account", "ROOT", "CURRENCY:EUR", "")),
				document.WithInvoices(document.NewInvoice("inv", "1", document.CustomerOwner("nobody"), "CURRENCY:EUR", date)),
			),
			wantLen: 1,
			check: func(t *testing.T, b *Book, errs []error) {
				var dangling *DanglingReferenceError
				assert.True(t, errors.As(errs[0], &dangling))
				assert.Equal(t, "nobody", dangling.Ref)
				inv, _ := b.Invoice("inv")
				assert.Equal(t, InvoiceKindUnknown, inv.Kind())
			},
		},
		{
			name: "job owned by a job",
			doc: document.NewBook("b",
				document.WithAccounts(document.NewAccount("root", "Root Account", "ROOT", "CURRENCY:EUR", "")),
				document.WithCustomers(document.NewCustomer("c", "1", "C", "CURRENCY:EUR")),
				document.WithJobs(
					document.NewJob("j1", "1", "J1", document.CustomerOwner("c")),
					document.NewJob("j2", "2", "J2", document.JobOwner("j1")),
				),
			),
			wantLen: 1,
			check: func(t *testing.T, b *Book, errs []error) {
				var invalid *InvalidFieldError
				assert.True(t, errors.As(errs[0], &invalid))
				assert.Equal(t, "owner", invalid.Field)
			},
		},
		{
			name: "bad amount and options",
			doc: document.NewBook("b",
				document.WithOption(OptionDivisionScale, "many"),
				document.WithAccounts(
					document.NewAccount("root", "Root Account", "ROOT", "CURRENCY:EUR", ""),
					document.NewAccount("bank", "Bank", "BANK", "CURRENCY:EUR", "root"),
					document.NewAccount("income", "Income", "INCOME", "CURRENCY:EUR", "root"),
				),
				document.WithTransactions(document.NewTransaction("tx", "CURRENCY:EUR", date,
					document.WithSplits(
						document.NewSplit("s1", "bank", "0"),
						document.NewSplit("s2", "income", "abc"),
					),
				)),
			),
			wantLen: 3,
			check: func(t *testing.T, b *Book, errs []error) {
				var invalid *InvalidFieldError
				assert.True(t, errors.As(errs[0], &invalid))
				assert.Equal(t, "options", invalid.Field)
				assert.True(t, errors.As(errs[1], &invalid))
				assert.Equal(t, "value", invalid.Field)
				assert.True(t, errors.As(errs[2], &invalid))
				assert.Equal(t, "quantity", invalid.Field)
				assert.Equal(t, "s2", invalid.ID)
				assert.Equal(t, NewConfig().DivisionScale, b.Config().DivisionScale)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Load(context.Background(), tt.doc)
			assert.NotZero(t, b)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "expected a ValidationError, got %v", err)
			assert.Equal(t, tt.wantLen, len(verr.Errors), "%v", verr)
			tt.check(t, b, verr.Errors)
		})
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	doc := scenarioDoc(t)
	doc.Options[OptionPaymentAction] = "Settle"

	b, err := Load(context.Background(), doc)
	assert.NoError(t, err)
	assert.Equal(t, "Settle", b.Config().PaymentAction)

	fromCtx := NewConfig()
	fromCtx.PaymentAction = "Context"
	b, _ = Load(fromCtx.WithContext(context.Background()), doc)
	assert.Equal(t, "Context", b.Config().PaymentAction)

	explicit := NewConfig()
	explicit.PaymentAction = "Explicit"
	b, _ = Load(fromCtx.WithContext(context.Background()), doc, WithConfig(explicit))
	assert.Equal(t, "Explicit", b.Config().PaymentAction)
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b, err := Load(ctx, scenarioDoc(t))
	assert.Zero(t, b)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadTelemetry(t *testing.T) {
	collector := telemetry.NewTimingCollector()
	ctx := telemetry.WithCollector(context.Background(), collector)
	_, err := Load(ctx, scenarioDoc(t))
	assert.NoError(t, err)

	names := collector.Names()
	assert.True(t, slices.Contains(names, "ledger.load"))
	assert.True(t, slices.Contains(names, "ledger.load.accounts"))
	assert.True(t, slices.Contains(names, "ledger.validate"))
}
