package tpsa

import (
	"fmt"
	"sort"
)

// ============================================================
// Coefficient values
// ============================================================

// value is one coefficient in either representation: sym is nil for a
// plain number.
type value struct {
	num float64
	sym *Delegate
}

func (v value) scale(c float64) value {
	if v.sym != nil {
		return value{sym: v.sym.Scale(c)}
	}
	return value{num: v.num * c}
}

func (s *Series) base() value {
	if s.sym != nil {
		return value{sym: s.sym[0]}
	}
	return value{num: s.num[0]}
}

// apply evaluates fn at the base value; on a symbolic series this composes.
func (s *Series) apply(fn *Delegate) value {
	if s.sym != nil {
		return value{sym: fn.Compose(s.sym[0])}
	}
	return value{num: fn.Call(s.num[0])}
}

func (s *Series) mulValue(v value) *Series {
	if v.sym == nil {
		return s.MulScalar(v.num)
	}
	sym := s.symbols()
	for i := range sym {
		sym[i] = sym[i].Mul(v.sym)
	}
	return s.likeSym(sym)
}

func (s *Series) divValue(v value) *Series {
	if v.sym == nil {
		return s.MulScalar(1 / v.num)
	}
	return s.mulValue(value{sym: InvFunc.Compose(v.sym)})
}

func (s *Series) addValue(v value) *Series {
	if v.sym == nil {
		return s.AddScalar(v.num)
	}
	sym := s.symbols()
	sym[0] = sym[0].Add(v.sym)
	return s.likeSym(sym)
}

// perturbation is t with its base value zeroed.
func (s *Series) perturbation() *Series {
	if s.sym != nil {
		sym := s.symbols()
		sym[0] = Const(0)
		return s.likeSym(sym)
	}
	num := append([]float64(nil), s.num...)
	num[0] = 0
	return s.like(num)
}

func (s *Series) zeroLike() *Series {
	if s.sym != nil {
		sym := make([]*Delegate, len(s.sym))
		for i := range sym {
			sym[i] = Const(0)
		}
		return s.likeSym(sym)
	}
	return s.like(make([]float64, len(s.num)))
}

// ============================================================
// Series expansion
// ============================================================

// expand returns Σ_k factors[k]·u^(k+1), where u is t with its base value
// zeroed. Powers of u beyond the order of t vanish, so len(factors) is
// t.Order() for every caller.
func expand(t *Series, factors []value) *Series {
	u := t.perturbation()
	acc := u
	out := t.zeroLike()
	for k, f := range factors {
		if k > 0 {
			acc = acc.Mul(u)
		}
		out = out.Add(acc.mulValue(f))
	}
	return out
}

// derivFactors turns derivative values at the base point, d[m] = f^(m)(x0),
// into expansion factors d[k+1]/(k+1)!.
func derivFactors(n int, deriv func(m int) value) []value {
	factors := make([]value, n)
	fact := 1.0
	for k := range factors {
		fact *= float64(k + 1)
		factors[k] = deriv(k + 1).scale(1 / fact)
	}
	return factors
}

// ============================================================
// Elementary functions
// ============================================================

const (
	DefaultLogisticPower = 1.0
	DefaultSharpness     = 10.0
)

func Exp(t *Series) *Series {
	one := value{num: 1}
	factors := derivFactors(t.Order(), func(int) value { return one })
	return expand(t, factors).AddScalar(1).mulValue(t.apply(ExpFunc))
}

// Ln requires a nonzero base value; a negative one gives NaN.
func Ln(t *Series) *Series {
	rel := t.divValue(t.base())
	factors := make([]value, t.Order())
	for k := range factors {
		factors[k] = value{num: sign(k) / float64(k+1)}
	}
	return expand(rel, factors).addValue(t.apply(LnFunc))
}

func Sin(t *Series) *Series {
	s0, c0 := t.apply(SinFunc), t.apply(CosFunc)
	cycle := [4]value{s0, c0, s0.scale(-1), c0.scale(-1)}
	factors := derivFactors(t.Order(), func(m int) value { return cycle[m%4] })
	return expand(t, factors).addValue(s0)
}

func Cos(t *Series) *Series {
	s0, c0 := t.apply(SinFunc), t.apply(CosFunc)
	cycle := [4]value{c0, s0.scale(-1), c0.scale(-1), s0}
	factors := derivFactors(t.Order(), func(m int) value { return cycle[m%4] })
	return expand(t, factors).addValue(c0)
}

func Tan(t *Series) *Series { return Sin(t).Div(Cos(t)) }
func Sec(t *Series) *Series { return Cos(t).Inv() }
func Csc(t *Series) *Series { return Sin(t).Inv() }
func Cot(t *Series) *Series { return Cos(t).Div(Sin(t)) }

func Sinh(t *Series) *Series { return Exp(t).Sub(Exp(t.Neg())).MulScalar(0.5) }
func Cosh(t *Series) *Series { return Exp(t).Add(Exp(t.Neg())).MulScalar(0.5) }

// Tanh is (e^2t - 1)/(e^2t + 1).
func Tanh(t *Series) *Series {
	e := Exp(t.MulScalar(2))
	return e.SubScalar(1).Div(e.AddScalar(1))
}

func Sqrt(t *Series) *Series { return t.Pow(0.5) }

// Logistic is (1 + e^-t)^-p.
func Logistic(t *Series, p float64) *Series {
	return Exp(t.Neg()).AddScalar(1).Pow(-p)
}

// Heaviside is a smooth step, logistic(2·sharpness·t). Larger sharpness
// gives a steeper step.
func Heaviside(t *Series, sharpness float64) *Series {
	return Logistic(t.MulScalar(2*sharpness), DefaultLogisticPower)
}

var unary = map[string]func(*Series) *Series{
	"exp":       Exp,
	"ln":        Ln,
	"log":       Ln,
	"sin":       Sin,
	"cos":       Cos,
	"tan":       Tan,
	"sec":       Sec,
	"csc":       Csc,
	"cot":       Cot,
	"sinh":      Sinh,
	"cosh":      Cosh,
	"tanh":      Tanh,
	"sqrt":      Sqrt,
	"inv":       (*Series).Inv,
	"neg":       (*Series).Neg,
	"logistic":  func(t *Series) *Series { return Logistic(t, DefaultLogisticPower) },
	"heaviside": func(t *Series) *Series { return Heaviside(t, DefaultSharpness) },
}

// Call applies the named elementary function to arg, which must be a
// *Series.
func Call(name string, arg interface{}) (*Series, error) {
	fn, ok := unary[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownFunc)
	}
	t, ok := arg.(*Series)
	if !ok || t == nil {
		return nil, fmt.Errorf("%s(%T): %w", name, arg, ErrNotSeries)
	}
	return fn(t), nil
}

// Functions lists the names accepted by Call.
func Functions() []string {
	names := make([]string, 0, len(unary))
	for name := range unary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
