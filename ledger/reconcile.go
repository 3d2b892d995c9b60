package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robinvdvleuten/cashbook/numeric"
	"github.com/robinvdvleuten/cashbook/telemetry"
)

// paymentSplits returns the payment splits carrying the invoice lot.
func (inv *Invoice) paymentSplits() []*Split {
	if inv.lot == "" || inv.book == nil {
		return nil
	}
	action := inv.book.config().PaymentAction
	var splits []*Split
	for _, txn := range inv.book.transactions.order {
		for _, s := range txn.splits {
			if s.lot == inv.lot && s.IsPayment(action) {
				splits = append(splits, s)
			}
		}
	}
	return splits
}

// PayingTransactions returns the transactions with a payment split on the invoice
// lot, in book order.
func (inv *Invoice) PayingTransactions() []*Transaction {
	var txns []*Transaction
	for _, s := range inv.paymentSplits() {
		if len(txns) == 0 || txns[len(txns)-1] != s.txn {
			txns = append(txns, s.txn)
		}
	}
	return txns
}

// IsPaid reports whether any payment references the invoice.
func (inv *Invoice) IsPaid() bool { return len(inv.paymentSplits()) > 0 }

// AmountPaid returns the absolute sum of the payment split values booked to the
// post account. Without a post account, payments booked to any receivable or
// payable account count.
func (inv *Invoice) AmountPaid() numeric.Decimal {
	total := numeric.Zero
	for _, s := range inv.paymentSplits() {
		if inv.postAccount != nil {
			if s.account != inv.postAccount {
				continue
			}
		} else if s.account == nil || !s.account.typ.IsReceivableOrPayable() {
			continue
		}
		total = total.Add(s.value)
	}
	return total.Abs()
}

// AmountUnpaid returns the gross amount minus the amount paid.
func (inv *Invoice) AmountUnpaid() numeric.Decimal {
	return inv.AmountWithTaxes().Sub(inv.AmountPaid())
}

// IsFullyPaid reports whether the amount paid equals the gross amount within the
// tolerance of the invoice currency.
func (inv *Invoice) IsFullyPaid() bool {
	tolerance := inv.book.config().Tolerance.For(inv.currency)
	return AmountEqual(inv.AmountWithTaxes(), inv.AmountPaid(), tolerance)
}

// InvoiceStatus is the reconciliation state of one invoice.
type InvoiceStatus struct {
	Invoice   *Invoice
	Gross     numeric.Decimal
	Paid      numeric.Decimal
	Unpaid    numeric.Decimal
	FullyPaid bool
}

// Reconcile computes the payment state of every invoice.
func (b *Book) Reconcile(ctx context.Context) ([]InvoiceStatus, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.reconcile (%d invoices)", b.invoices.len()))
	defer timer.End()

	statuses := make([]InvoiceStatus, 0, b.invoices.len())
	for _, inv := range b.invoices.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gross := inv.AmountWithTaxes()
		paid := inv.AmountPaid()
		statuses = append(statuses, InvoiceStatus{
			Invoice:   inv,
			Gross:     gross,
			Paid:      paid,
			Unpaid:    gross.Sub(paid),
			FullyPaid: AmountEqual(gross, paid, b.config().Tolerance.For(inv.currency)),
		})
	}

	b.logger.Debug("reconciled invoices", slog.Int("invoices", len(statuses)))
	return statuses, nil
}

// PaidInvoices returns the fully paid invoices in book order.
func (b *Book) PaidInvoices() []*Invoice {
	return b.filterInvoices(func(inv *Invoice) bool { return inv.IsFullyPaid() })
}

// UnpaidInvoices returns the invoices with an outstanding amount in book order.
func (b *Book) UnpaidInvoices() []*Invoice {
	return b.filterInvoices(func(inv *Invoice) bool { return !inv.IsFullyPaid() })
}

// InvoicesOf returns the invoices owned by owner. With ViaJob, invoices owned by
// the owner's jobs are included as well.
func (b *Book) InvoicesOf(owner Owner, res Resolution) []*Invoice {
	return b.filterInvoices(func(inv *Invoice) bool {
		if inv.owner == owner {
			return true
		}
		return res == ViaJob && inv.owner.kind == OwnerJob && inv.owner.job != nil && inv.owner.job.owner == owner
	})
}

// JobsOf returns the jobs of a customer or vendor.
func (b *Book) JobsOf(owner Owner) []*Job {
	var jobs []*Job
	for _, j := range b.jobs.order {
		if j.owner == owner {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

func (b *Book) filterInvoices(keep func(*Invoice) bool) []*Invoice {
	var out []*Invoice
	for _, inv := range b.invoices.order {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	return out
}
