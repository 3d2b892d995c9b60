package ledger

import "github.com/robinvdvleuten/cashbook/commodity"

// Commodity is the definition of a currency or security used by the book.
type Commodity struct {
	book *Book

	id       commodity.ID
	name     string
	xcode    string
	fraction int64
}

func (c *Commodity) ID() commodity.ID { return c.id }
func (c *Commodity) Name() string { return c.name }

// XCode returns the optional exchange code, usually an ISIN.
func (c *Commodity) XCode() string { return c.xcode }

// Fraction returns the smallest unit, 100 for cents.
func (c *Commodity) Fraction() int64 { return c.fraction }

// Scale returns the number of decimals of the fraction. It is false when the
// fraction is not a power of ten.
func (c *Commodity) Scale() (int32, bool) {
	if c.fraction <= 0 {
		return 0, false
	}
	var scale int32
	for f := c.fraction; f > 1; f /= 10 {
		if f%10 != 0 {
			return 0, false
		}
		scale++
	}
	return scale, true
}

// SetName renames the commodity.
func (c *Commodity) SetName(name string) (Change, error) {
	if err := c.book.checkWritable(KindCommodity, c.id.WireString()); err != nil {
		return Change{}, err
	}
	c.name = name
	return c.book.touch(updated(KindCommodity, c.id.WireString(), "name", c)), nil
}
