// Package numeric provides the exact decimal type used for every monetary amount,
// quantity and price in a book.
//
// A Decimal is an (unscaled integer, scale) pair backed by github.com/shopspring/decimal.
// Values are immutable: every operation returns a new Decimal and never modifies its
// receiver, so a balance handed out by a getter cannot change under the caller.
//
// Arithmetic never loses precision silently. Addition, subtraction and multiplication
// are exact. Division and rounding always take an explicit scale and round half-up
// (half away from zero): 0.125 rounded to two places is 0.13, -0.125 is -0.13.
package numeric

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimal is an exact, arbitrary-precision decimal number.
// The zero value is 0 with scale 0.
type Decimal struct {
	d decimal.Decimal
}

var (
	// Zero is the decimal 0.
	Zero = Decimal{}

	// One is the decimal 1.
	One = New(1, 0)

	// Hundred is the decimal 100, used to turn percentages into factors.
	Hundred = New(100, 0)
)

var ten = big.NewInt(10)

// New returns unscaled × 10^-scale. New(132760, 2) is 1327.60.
func New(unscaled int64, scale int32) Decimal {
	return Decimal{d: decimal.New(unscaled, -scale)}
}

// NewFromBigInt returns unscaled × 10^-scale for an arbitrary-size integer.
func NewFromBigInt(unscaled *big.Int, scale int32) Decimal {
	return Decimal{d: decimal.NewFromBigInt(unscaled, -scale)}
}

// FromInt returns the integer n with scale 0.
func FromInt(n int64) Decimal {
	return Decimal{d: decimal.NewFromInt(n)}
}

// Sum adds all values. The sum of no values is Zero.
func Sum(values ...Decimal) Decimal {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Scale returns the number of digits after the decimal point.
// Values built from positive exponents report scale 0.
func (x Decimal) Scale() int32 {
	if exp := x.d.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// Unscaled returns the integer u such that x == u × 10^-Scale().
func (x Decimal) Unscaled() *big.Int {
	coef := x.d.Coefficient()
	if exp := x.d.Exponent(); exp > 0 {
		coef.Mul(coef, new(big.Int).Exp(ten, big.NewInt(int64(exp)), nil))
	}
	return coef
}

// Add returns x + y.
func (x Decimal) Add(y Decimal) Decimal { return Decimal{d: x.d.Add(y.d)} }

// Sub returns x - y.
func (x Decimal) Sub(y Decimal) Decimal { return Decimal{d: x.d.Sub(y.d)} }

// Mul returns x × y. The scale of the result is the sum of both scales.
func (x Decimal) Mul(y Decimal) Decimal { return Decimal{d: x.d.Mul(y.d)} }

// Div returns x ÷ y rounded half-up to scale digits after the decimal point.
// Dividing by zero fails with an *ArithmeticError.
func (x Decimal) Div(y Decimal, scale int32) (Decimal, error) {
	if y.IsZero() {
		return Zero, NewDivisionByZeroError(x)
	}
	return Decimal{d: x.d.DivRound(y.d, scale)}, nil
}

// Round returns x rounded half-up to scale digits. Rounding to a larger scale pads
// with zeros, so Round can also be used to normalize a value's scale.
func (x Decimal) Round(scale int32) Decimal {
	return Decimal{d: x.d.Round(scale)}
}

// Neg returns -x.
func (x Decimal) Neg() Decimal { return Decimal{d: x.d.Neg()} }

// Abs returns |x|.
func (x Decimal) Abs() Decimal { return Decimal{d: x.d.Abs()} }

// Sign returns -1, 0 or +1.
func (x Decimal) Sign() int { return x.d.Sign() }

// IsZero reports whether x == 0 regardless of scale.
func (x Decimal) IsZero() bool { return x.d.IsZero() }

// IsNegative reports whether x < 0.
func (x Decimal) IsNegative() bool { return x.d.IsNegative() }

// IsPositive reports whether x > 0.
func (x Decimal) IsPositive() bool { return x.d.IsPositive() }

// Cmp compares x and y exactly and returns -1, 0 or +1. Scale is ignored,
// so 1.5 and 1.50 compare equal.
func (x Decimal) Cmp(y Decimal) int { return x.d.Cmp(y.d) }

// Equal reports whether x and y are numerically equal.
func (x Decimal) Equal(y Decimal) bool { return x.d.Equal(y.d) }

// CmpWithTolerance returns 0 when |x - y| <= eps, otherwise the exact ordering
// of x and y. A negative eps is treated as its absolute value.
func (x Decimal) CmpWithTolerance(y, eps Decimal) int {
	if x.d.Sub(y.d).Abs().LessThanOrEqual(eps.d.Abs()) {
		return 0
	}
	return x.d.Cmp(y.d)
}

// Min returns the smaller of x and y.
func Min(x, y Decimal) Decimal {
	if x.Cmp(y) <= 0 {
		return x
	}
	return y
}

// Max returns the larger of x and y.
func Max(x, y Decimal) Decimal {
	if x.Cmp(y) >= 0 {
		return x
	}
	return y
}

// String returns the plain decimal representation keeping the scale ("1327.60").
func (x Decimal) String() string {
	return x.d.StringFixed(x.Scale())
}

// StringFixed returns x rounded half-up to places digits, always showing them.
func (x Decimal) StringFixed(places int32) string {
	return x.d.StringFixed(places)
}

// WireString returns the canonical fraction form used on disk: the unscaled value over
// 10^scale. 1327.60 renders as "132760/100", 5 as "5/1".
func (x Decimal) WireString() string {
	denom := new(big.Int).Exp(ten, big.NewInt(int64(x.Scale())), nil)
	return fmt.Sprintf("%s/%s", x.Unscaled().String(), denom.String())
}

// GoString makes test failures readable.
func (x Decimal) GoString() string {
	return fmt.Sprintf("numeric.MustParse(%q)", x.String())
}
