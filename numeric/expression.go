package numeric

import "fmt"

// Evaluate computes a formula typed into an amount field, such as "3 * 12,50" or
// "(100 - 15) / 4". Operands are read like Parse reads locale text; '*' and '/' bind
// tighter than '+' and '-'. Divisions are rounded half-up to scale digits.
func Evaluate(expr string, scale int32) (Decimal, error) {
	p := &exprParser{input: expr, scale: scale}
	result, err := p.parseExpr(0)
	if err != nil {
		return Zero, err
	}
	if !p.atEnd() {
		return Zero, NewParseError(expr, expr[p.pos:], "unexpected token")
	}
	return result, nil
}

// exprParser is a Pratt parser over the bytes of one formula.
type exprParser struct {
	input string
	pos   int
	scale int32
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) atEnd() bool {
	p.skipSpace()
	return p.pos >= len(p.input)
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) operand() (Decimal, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if (ch < '0' || ch > '9') && ch != '.' && ch != ',' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		if p.pos >= len(p.input) {
			return Zero, NewParseError(p.input, p.input, "missing operand")
		}
		return Zero, NewParseError(p.input, p.input[p.pos:], "expected number")
	}
	d, err := Parse(p.input[start:p.pos])
	if err != nil {
		return Zero, fmt.Errorf("invalid operand in %q: %w", p.input, err)
	}
	return d, nil
}

func (p *exprParser) primary() (Decimal, error) {
	switch p.peek() {
	case '(':
		p.pos++
		v, err := p.parseExpr(0)
		if err != nil {
			return Zero, err
		}
		if p.peek() != ')' {
			return Zero, NewParseError(p.input, p.input[p.pos:], "expected ')'")
		}
		p.pos++
		return v, nil
	case '-':
		p.pos++
		v, err := p.primary()
		return v.Neg(), err
	case '+':
		p.pos++
		return p.primary()
	}
	return p.operand()
}

func (p *exprParser) parseExpr(minPrec int) (Decimal, error) {
	left, err := p.primary()
	if err != nil {
		return Zero, err
	}
	for {
		op := p.peek()
		prec := precedence(op)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		p.pos++
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return Zero, err
		}
		if left, err = p.apply(left, op, right); err != nil {
			return Zero, err
		}
	}
}

// precedence is zero for bytes that are not operators.
func precedence(op byte) int {
	switch op {
	case '+', '-':
		return 1
	case '*', '/':
		return 2
	default:
		return 0
	}
}

func (p *exprParser) apply(left Decimal, op byte, right Decimal) (Decimal, error) {
	switch op {
	case '+':
		return left.Add(right), nil
	case '-':
		return left.Sub(right), nil
	case '*':
		return left.Mul(right), nil
	default:
		return left.Div(right, p.scale)
	}
}
