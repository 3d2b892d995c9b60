package ledger

import (
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/numeric"
)

// TaxBreakdown splits the amount of an invoice into net and tax, per tax
// percentage and per account. Every amount is rounded to the invoice currency.
type TaxBreakdown struct {
	Net   numeric.Decimal
	Tax   numeric.Decimal
	Gross numeric.Decimal

	// Groups are the entries grouped by applicable percentage, in order of first
	// appearance.
	Groups []TaxGroup
	// Lines are the net amounts per income or expense account.
	Lines []AccountAmount
	// Taxes are the tax amounts per tax account.
	Taxes []AccountAmount
}

// TaxGroup holds the entries sharing one percentage and inclusion mode.
type TaxGroup struct {
	Percent  numeric.Decimal
	Included bool
	Net      numeric.Decimal
	Tax      numeric.Decimal
}

// AccountAmount is an amount booked to one account.
type AccountAmount struct {
	Account *Account
	Amount  numeric.Decimal
}

type groupKey struct {
	percent  string
	included bool
}

type taxGroup struct {
	percent  numeric.Decimal
	included bool
	amount   numeric.Decimal // sum of entry amounts, gross for included groups
	value    numeric.Decimal // sum of VALUE rates over the entries
	entries  []*Entry
}

// Breakdown groups the entries by tax percentage and computes each group's tax
// once. For tax-included entries the group amount is gross and the net is derived
// as (gross - value taxes) / (1 + percent/100).
func (inv *Invoice) Breakdown() TaxBreakdown {
	scale := inv.book.scaleOf(inv.currency)
	divScale := inv.book.config().DivisionScale

	groups := getGroupMap()
	defer putGroupMap(groups)

	var order []*taxGroup
	for _, e := range inv.entries {
		percent, value, included := numeric.Zero, numeric.Zero, false
		if e.taxable && e.taxTable != nil {
			percent = e.taxTable.Percent()
			value = e.taxTable.Value()
			included = e.taxIncluded
		}
		key := groupKey{percent: percent.StringFixed(numeric.FractionScale), included: included}
		g, ok := groups[key]
		if !ok {
			g = &taxGroup{percent: percent, included: included}
			groups[key] = g
			order = append(order, g)
		}
		g.amount = g.amount.Add(e.Amount())
		g.value = g.value.Add(value)
		g.entries = append(g.entries, e)
	}

	var out TaxBreakdown
	lines := &accountSums{}
	taxes := &accountSums{}
	for _, g := range order {
		net, tax := g.totals(scale, divScale)
		out.Groups = append(out.Groups, TaxGroup{Percent: g.percent, Included: g.included, Net: net, Tax: tax})
		out.Net = out.Net.Add(net)
		out.Tax = out.Tax.Add(tax)

		factor := g.netFactor(divScale)
		for _, e := range g.entries {
			entryNet := e.Amount()
			if g.included {
				var value numeric.Decimal
				if e.taxable && e.taxTable != nil {
					value = e.taxTable.Value()
				}
				entryNet, _ = entryNet.Sub(value).Div(factor, divScale)
			}
			lines.add(e.account, entryNet)
			if !e.taxable || e.taxTable == nil {
				continue
			}
			for _, rate := range e.taxTable.entries {
				switch rate.typ {
				case TaxPercent:
					t, _ := entryNet.Mul(rate.amount).Div(numeric.Hundred, divScale)
					taxes.add(rate.account, t)
				case TaxValue:
					taxes.add(rate.account, rate.amount)
				}
			}
		}
	}
	out.Gross = out.Net.Add(out.Tax)
	out.Lines = lines.rounded(scale, out.Net)
	out.Taxes = taxes.rounded(scale, out.Tax)
	return out
}

// netFactor is 1 + percent/100.
func (g *taxGroup) netFactor(divScale int32) numeric.Decimal {
	f, _ := g.percent.Div(numeric.Hundred, divScale)
	return numeric.One.Add(f)
}

func (g *taxGroup) totals(scale, divScale int32) (net, tax numeric.Decimal) {
	value := g.value.Round(scale)
	if !g.included {
		net = g.amount.Round(scale)
		pct, _ := net.Mul(g.percent).Div(numeric.Hundred, scale)
		return net, pct.Add(value)
	}
	gross := g.amount.Round(scale)
	net, _ = gross.Sub(value).Div(g.netFactor(divScale), scale)
	return net, gross.Sub(net)
}

// accountSums accumulates amounts per account in order of first appearance.
type accountSums struct {
	items []AccountAmount
}

func (s *accountSums) add(acc *Account, amount numeric.Decimal) {
	i := slices.IndexFunc(s.items, func(a AccountAmount) bool { return a.Account == acc })
	if i < 0 {
		s.items = append(s.items, AccountAmount{Account: acc, Amount: amount})
		return
	}
	s.items[i].Amount = s.items[i].Amount.Add(amount)
}

// rounded rounds every amount and books the rounding residual against total on the
// first item.
func (s *accountSums) rounded(scale int32, total numeric.Decimal) []AccountAmount {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]AccountAmount, len(s.items))
	sum := numeric.Zero
	for i, item := range s.items {
		out[i] = AccountAmount{Account: item.Account, Amount: item.Amount.Round(scale)}
		sum = sum.Add(out[i].Amount)
	}
	out[0].Amount = out[0].Amount.Add(total.Sub(sum))
	return out
}

// AmountWithoutTaxes returns the net amount of the invoice.
func (inv *Invoice) AmountWithoutTaxes() numeric.Decimal { return inv.Breakdown().Net }

// TaxAmount returns the total tax of the invoice.
func (inv *Invoice) TaxAmount() numeric.Decimal { return inv.Breakdown().Tax }

// AmountWithTaxes returns the gross amount of the invoice.
func (inv *Invoice) AmountWithTaxes() numeric.Decimal { return inv.Breakdown().Gross }
