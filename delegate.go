package tpsa

import (
	"fmt"
	"math"
	"strconv"
)

// ============================================================
// Delegate: named unary function
// ============================================================

// Delegate pairs a unary function with a display name. Delegates compose
// like functions and combine pointwise, building readable names as they go.
// They serve as coefficients of symbolic series.
type Delegate struct {
	fn   func(float64) float64
	name string
}

func NewDelegate(fn func(float64) float64, name string) *Delegate {
	return &Delegate{fn: fn, name: name}
}

// Const returns the constant function c.
func Const(c float64) *Delegate {
	return &Delegate{fn: func(float64) float64 { return c }, name: formatFloat(c)}
}

var (
	Identity = NewDelegate(func(x float64) float64 { return x }, "x")
	ExpFunc  = NewDelegate(math.Exp, "exp")
	LnFunc   = NewDelegate(math.Log, "ln")
	SinFunc  = NewDelegate(math.Sin, "sin")
	CosFunc  = NewDelegate(math.Cos, "cos")
	InvFunc  = NewDelegate(func(x float64) float64 { return 1 / x }, "inv")
)

func (d *Delegate) Call(x float64) float64 { return d.fn(x) }
func (d *Delegate) Name() string           { return d.name }
func (d *Delegate) String() string         { return d.name }
func (d *Delegate) IsZero() bool           { return isZeroName(d.name) }

// Compose returns d∘g, displayed as d(g).
func (d *Delegate) Compose(g *Delegate) *Delegate {
	f, inner := d.fn, g.fn
	return &Delegate{
		fn:   func(x float64) float64 { return f(inner(x)) },
		name: d.name + "(" + g.name + ")",
	}
}

// Apply evaluates d at a number, or composes d with a delegate.
func (d *Delegate) Apply(arg interface{}) (interface{}, error) {
	if x, ok := toFloat(arg); ok {
		return d.fn(x), nil
	}
	if g, ok := arg.(*Delegate); ok && g != nil {
		return d.Compose(g), nil
	}
	return nil, fmt.Errorf("apply %s to %T: %w", d.name, arg, ErrInvalidType)
}

// Mul returns the pointwise product. The shorter name is written as the
// outer factor.
func (d *Delegate) Mul(o *Delegate) *Delegate {
	f, g := d.fn, o.fn
	fn := func(x float64) float64 { return f(x) * g(x) }

	outer, inner := d.name, o.name
	if len(outer) > len(inner) {
		outer, inner = inner, outer
	}
	var name string
	a, aok := literal(outer)
	b, bok := literal(inner)
	switch {
	case isZeroName(outer) || isZeroName(inner):
		name = "0"
	case aok && bok:
		name = formatFloat(a * b)
	case isOneName(outer):
		name = inner
	case isOneName(inner):
		name = outer
	case isNegOneName(outer):
		name = "-(" + inner + ")"
	case isNegOneName(inner):
		name = "-(" + outer + ")"
	default:
		name = outer + "*(" + inner + ")"
	}
	return &Delegate{fn: fn, name: name}
}

// Scale returns c·d.
func (d *Delegate) Scale(c float64) *Delegate {
	f := d.fn
	fn := func(x float64) float64 { return c * f(x) }

	var name string
	v, isLit := literal(d.name)
	switch {
	case d.IsZero() || c == 0:
		name = "0"
	case c == 1:
		name = d.name
	case isLit:
		name = formatFloat(c * v)
	case c == -1:
		name = "-(" + d.name + ")"
	default:
		name = formatFloat(c) + "*(" + d.name + ")"
	}
	return &Delegate{fn: fn, name: name}
}

// Add returns the pointwise sum. Zero operands are dropped from the name.
func (d *Delegate) Add(o *Delegate) *Delegate {
	f, g := d.fn, o.fn
	fn := func(x float64) float64 { return f(x) + g(x) }

	var name string
	a, aok := literal(d.name)
	b, bok := literal(o.name)
	switch {
	case o.IsZero() && d.IsZero():
		name = "0"
	case aok && bok:
		name = formatFloat(a + b)
	case o.IsZero():
		name = d.name
	case d.IsZero():
		name = o.name
	default:
		name = d.name + "+" + o.name
	}
	return &Delegate{fn: fn, name: name}
}

func (d *Delegate) AddScalar(c float64) *Delegate {
	f := d.fn
	fn := func(x float64) float64 { return c + f(x) }

	var name string
	v, isLit := literal(d.name)
	switch {
	case c == 0:
		name = d.name
	case isLit:
		name = formatFloat(v + c)
	default:
		name = d.name + "+" + formatFloat(c)
	}
	return &Delegate{fn: fn, name: name}
}

func (d *Delegate) Neg() *Delegate {
	f := d.fn
	name := "-(" + d.name + ")"
	if v, ok := literal(d.name); ok {
		name = formatFloat(-v)
	}
	return &Delegate{fn: func(x float64) float64 { return -f(x) }, name: name}
}

func formatFloat(c float64) string {
	if c == 0 {
		return "0"
	}
	return strconv.FormatFloat(c, 'g', -1, 64)
}

// literal reports whether a name is a plain number.
func literal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func isZeroName(s string) bool {
	switch s {
	case "0", "0.0", "-0", "-0.0":
		return true
	}
	return false
}

func isOneName(s string) bool    { return s == "1" || s == "1.0" }
func isNegOneName(s string) bool { return s == "-1" || s == "-1.0" }
