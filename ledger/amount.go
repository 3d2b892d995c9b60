package ledger

import (
	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/numeric"
)

var defaultTolerance = numeric.New(5, 3)

// ToleranceConfig holds the amount by which two totals may differ and still be
// considered equal, per currency code with a "*" wildcard.
type ToleranceConfig struct {
	defaults map[string]numeric.Decimal
}

// NewToleranceConfig returns the default configuration: 0.005 for every currency.
func NewToleranceConfig() *ToleranceConfig {
	return &ToleranceConfig{
		defaults: map[string]numeric.Decimal{"*": defaultTolerance},
	}
}

// Set overrides the tolerance of one currency code, or of every currency for "*".
func (c *ToleranceConfig) Set(code string, tolerance numeric.Decimal) {
	c.defaults[code] = tolerance.Abs()
}

// For returns the tolerance of a currency. A currency-specific value wins over the
// wildcard.
func (c *ToleranceConfig) For(currency commodity.ID) numeric.Decimal {
	if c == nil {
		return defaultTolerance
	}
	if tolerance, ok := c.defaults[currency.Code()]; ok {
		return tolerance
	}
	if tolerance, ok := c.defaults["*"]; ok {
		return tolerance
	}
	return defaultTolerance
}

// AmountEqual reports whether a and b differ by at most tolerance.
func AmountEqual(a, b, tolerance numeric.Decimal) bool {
	return a.CmpWithTolerance(b, tolerance) == 0
}

// parseAmount reads a wire or locale amount, attributing failures to a field.
func parseAmount(kind EntityKind, id, field, text string) (numeric.Decimal, error) {
	if text == "" {
		return numeric.Zero, nil
	}
	d, err := numeric.Parse(text)
	if err != nil {
		return numeric.Zero, &InvalidFieldError{Kind: kind, ID: id, Field: field, Err: err}
	}
	return d, nil
}
