// Package tpsa implements truncated power-series algebra: forward-mode
// automatic differentiation with a value and its derivatives carried
// together in one object.
//
// A Series holds f(x0), f'(x0), ..., f^(n)(x0) for a truncation order n.
// Coefficients are derivative values, not Taylor coefficients; the
// binomial weights of the Leibniz rule take the place of the factorials
// in multiplication.
//
// Design goals:
//   - Ordinary-looking arithmetic propagates derivatives exactly up to order n
//   - One generic expansion routine behind every transcendental function
//   - Coefficients are float64 or composable named functions (Delegate)
//   - Truncation order lives in an explicit Config, with a package default
package tpsa

import (
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"strings"
	"sync"
)

// ============================================================
// Config: truncation order and binomial table
// ============================================================

// Config carries the truncation order and the binomial coefficients
// derived from it. Changing the order only affects series constructed
// afterwards.
type Config struct {
	mu    sync.RWMutex
	order int
	binom [][]float64
}

// DefaultOrder is the truncation order of Default.
const DefaultOrder = 2

// Default is the package-level configuration used by New, Var and friends.
var Default = MustConfig(DefaultOrder)

func NewConfig(order int) (*Config, error) {
	c := &Config{}
	if err := c.SetOrder(order); err != nil {
		return nil, err
	}
	return c, nil
}

func MustConfig(order int) *Config {
	c, err := NewConfig(order)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Config) Order() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order
}

// SetOrder changes the truncation order and rebuilds the binomial table.
func (c *Config) SetOrder(order int) error {
	if order <= 1 {
		return fmt.Errorf("set order %d: %w", order, ErrOrderValue)
	}
	table := binomialTable(order)
	c.mu.Lock()
	c.order = order
	c.binom = table
	c.mu.Unlock()
	return nil
}

// SetOrderValue is SetOrder for loosely typed input such as decoded JSON
// or config values. Non-integers fail with ErrOrderType.
func (c *Config) SetOrderValue(v interface{}) error {
	order, err := OrderFromValue(v)
	if err != nil {
		return err
	}
	return c.SetOrder(order)
}

// Binomial returns a copy of the table C(n, k) for n, k in 0..order.
func (c *Config) Binomial() [][]float64 {
	_, table := c.snapshot()
	out := make([][]float64, len(table))
	for i, row := range table {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func (c *Config) snapshot() (int, [][]float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order, c.binom
}

// OrderFromValue converts v to a truncation order. Any Go integer kind and
// integral json.Number values are accepted; the range is not checked here.
func OrderFromValue(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("order %q: %w", n.String(), ErrOrderType)
		}
		return int(i), nil
	}
	return 0, fmt.Errorf("order %v (%T): %w", v, v, ErrOrderType)
}

func binomialTable(order int) [][]float64 {
	table := make([][]float64, order+1)
	for n := range table {
		table[n] = make([]float64, order+1)
		table[n][0] = 1
		for k := 1; k <= n; k++ {
			table[n][k] = table[n-1][k-1] + table[n-1][k]
		}
	}
	return table
}

func Order() int                               { return Default.Order() }
func SetOrder(order int) error                 { return Default.SetOrder(order) }
func SetOrderValue(v interface{}) error        { return Default.SetOrderValue(v) }
func New(v interface{}) (*Series, error)       { return Default.New(v) }
func Var(x float64) *Series                    { return Default.Var(x) }
func FromCoeffs(cs []float64) (*Series, error) { return Default.FromCoeffs(cs) }

// ============================================================
// Series: truncated power series
// ============================================================

// Series is a truncated power series. Exactly one of num and sym is
// non-nil; its length is fixed when the series is built.
type Series struct {
	binom [][]float64
	num   []float64
	sym   []*Delegate
}

// New builds a series from a number (the variable shifted by that value),
// a sequence of exactly order+1 numbers, a *Delegate or a []*Delegate.
func (c *Config) New(v interface{}) (*Series, error) {
	switch x := v.(type) {
	case *Delegate:
		if x == nil {
			break
		}
		return c.Symbol(x), nil
	case []*Delegate:
		return c.FromDelegates(x)
	case []float64:
		return c.FromCoeffs(x)
	case []float32:
		return c.FromCoeffs(floatsOf(len(x), func(i int) float64 { return float64(x[i]) }))
	case []int:
		return c.FromCoeffs(floatsOf(len(x), func(i int) float64 { return float64(x[i]) }))
	case []int64:
		return c.FromCoeffs(floatsOf(len(x), func(i int) float64 { return float64(x[i]) }))
	case []interface{}:
		cs := make([]float64, len(x))
		for i, e := range x {
			f, ok := toFloat(e)
			if !ok {
				return nil, fmt.Errorf("coefficient %d is %T: %w", i, e, ErrInvalidType)
			}
			cs[i] = f
		}
		return c.FromCoeffs(cs)
	}
	if f, ok := toFloat(v); ok {
		return c.Var(f), nil
	}
	return nil, fmt.Errorf("new series from %T: %w", v, ErrInvalidType)
}

func (c *Config) MustNew(v interface{}) *Series {
	s, err := c.New(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Var returns the independent variable at x: [x, 1, 0, ...].
func (c *Config) Var(x float64) *Series {
	order, binom := c.snapshot()
	num := make([]float64, order+1)
	num[0] = x
	num[1] = 1
	return &Series{binom: binom, num: num}
}

// Constant returns [k, 0, 0, ...].
func (c *Config) Constant(k float64) *Series {
	order, binom := c.snapshot()
	num := make([]float64, order+1)
	num[0] = k
	return &Series{binom: binom, num: num}
}

func (c *Config) Zero() *Series { return c.Constant(0) }
func (c *Config) One() *Series  { return c.Constant(1) }

// FromCoeffs copies cs, which must have exactly order+1 entries.
func (c *Config) FromCoeffs(cs []float64) (*Series, error) {
	order, binom := c.snapshot()
	if len(cs) != order+1 {
		return nil, fmt.Errorf("input is length %d, should be %d: %w", len(cs), order+1, ErrLength)
	}
	return &Series{binom: binom, num: append([]float64(nil), cs...)}, nil
}

// Symbol returns the symbolic series [d, 1, 0, ...].
func (c *Config) Symbol(d *Delegate) *Series {
	order, binom := c.snapshot()
	sym := make([]*Delegate, order+1)
	sym[0] = d
	sym[1] = Const(1)
	for i := 2; i <= order; i++ {
		sym[i] = Const(0)
	}
	return &Series{binom: binom, sym: sym}
}

func (c *Config) FromDelegates(ds []*Delegate) (*Series, error) {
	order, binom := c.snapshot()
	if len(ds) != order+1 {
		return nil, fmt.Errorf("input is length %d, should be %d: %w", len(ds), order+1, ErrLength)
	}
	for i, d := range ds {
		if d == nil {
			return nil, fmt.Errorf("delegate %d is nil: %w", i, ErrInvalidType)
		}
	}
	return &Series{binom: binom, sym: append([]*Delegate(nil), ds...)}, nil
}

func floatsOf(n int, at func(int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = at(i)
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ============================================================
// Accessors
// ============================================================

func (s *Series) Len() int {
	if s.sym != nil {
		return len(s.sym)
	}
	return len(s.num)
}

// Order is the truncation order the series was built with.
func (s *Series) Order() int       { return s.Len() - 1 }
func (s *Series) IsSymbolic() bool { return s.sym != nil }

// At returns coefficient i, the i-th derivative value. It panics on a
// symbolic series; use Term.
func (s *Series) At(i int) float64 {
	if s.sym != nil {
		panic("tpsa: At on symbolic series")
	}
	return s.num[i]
}

// Derivative returns f^(n)(x0); it is At under a more descriptive name.
func (s *Series) Derivative(n int) float64 { return s.At(n) }

// Slice returns a copy of coefficients [i, j).
func (s *Series) Slice(i, j int) []float64 {
	if s.sym != nil {
		panic("tpsa: Slice on symbolic series")
	}
	return append([]float64(nil), s.num[i:j]...)
}

// Coeffs returns a copy of the numeric coefficients.
func (s *Series) Coeffs() []float64 { return s.Slice(0, s.Len()) }

// Term returns coefficient i as a delegate; numeric coefficients become
// constants.
func (s *Series) Term(i int) *Delegate {
	if s.sym != nil {
		return s.sym[i]
	}
	return Const(s.num[i])
}

// Terms returns a copy of the coefficients as delegates.
func (s *Series) Terms() []*Delegate { return s.symbols() }

// All iterates over the numeric coefficients in order. It panics on a
// symbolic series; use AllTerms there.
func (s *Series) All() iter.Seq2[int, float64] {
	if s.sym != nil {
		panic("tpsa: All on symbolic series")
	}
	num := s.num
	return func(yield func(int, float64) bool) {
		for i, v := range num {
			if !yield(i, v) {
				return
			}
		}
	}
}

// AllTerms iterates over the coefficients as delegates. Numeric
// coefficients are yielded as constants.
func (s *Series) AllTerms() iter.Seq2[int, *Delegate] {
	return func(yield func(int, *Delegate) bool) {
		for i := 0; i < s.Len(); i++ {
			if !yield(i, s.Term(i)) {
				return
			}
		}
	}
}

// Taylor returns the Taylor coefficients f^(i)(x0)/i!.
func (s *Series) Taylor() []float64 {
	out := s.Coeffs()
	fact := 1.0
	for i := range out {
		if i > 0 {
			fact *= float64(i)
		}
		out[i] /= fact
	}
	return out
}

// Eval evaluates every coefficient of a symbolic series at x. A numeric
// series is returned as a copy.
func (s *Series) Eval(x float64) *Series {
	if s.sym == nil {
		return s.like(append([]float64(nil), s.num...))
	}
	num := make([]float64, len(s.sym))
	for i, d := range s.sym {
		num[i] = d.Call(x)
	}
	return s.like(num)
}

func (s *Series) String() string {
	parts := make([]string, s.Len())
	for i := range parts {
		if s.sym != nil {
			parts[i] = s.sym[i].String()
		} else {
			parts[i] = formatFloat(s.num[i])
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ============================================================
// Equality
// ============================================================

const (
	DefaultRelTol = 1e-5
	DefaultAbsTol = 1e-8
)

// Equal reports approximate coefficientwise equality with the default
// tolerances. Symbolic series compare by coefficient names.
func (s *Series) Equal(o *Series) bool { return s.ApproxEqual(o, DefaultRelTol, DefaultAbsTol) }

// ApproxEqual uses |a-b| <= atol + rtol*|b| per coefficient.
func (s *Series) ApproxEqual(o *Series, rtol, atol float64) bool {
	if s == nil || o == nil {
		return false
	}
	if s.Len() != o.Len() || s.IsSymbolic() != o.IsSymbolic() {
		return false
	}
	if s.sym != nil {
		for i := range s.sym {
			if s.sym[i].name != o.sym[i].name {
				return false
			}
		}
		return true
	}
	for i, a := range s.num {
		b := o.num[i]
		if a == b {
			continue
		}
		if !(math.Abs(a-b) <= atol+rtol*math.Abs(b)) {
			return false
		}
	}
	return true
}

// ============================================================
// Arithmetic
// ============================================================

func (s *Series) like(num []float64) *Series      { return &Series{binom: s.binom, num: num} }
func (s *Series) likeSym(sym []*Delegate) *Series { return &Series{binom: s.binom, sym: sym} }

// symbols returns a fresh delegate vector, lifting numeric coefficients
// to constants.
func (s *Series) symbols() []*Delegate {
	out := make([]*Delegate, s.Len())
	for i := range out {
		out[i] = s.Term(i)
	}
	return out
}

func (s *Series) assign(r *Series) *Series {
	s.num, s.sym = r.num, r.sym
	return s
}

func mustMatch(op string, a, b *Series) {
	if a.Len() != b.Len() {
		panic(fmt.Errorf("%s: lengths %d and %d: %w", op, a.Len(), b.Len(), ErrOrderMismatch))
	}
}

func (s *Series) Add(o *Series) *Series {
	mustMatch("add", s, o)
	if s.sym == nil && o.sym == nil {
		num := make([]float64, len(s.num))
		for i := range num {
			num[i] = s.num[i] + o.num[i]
		}
		return s.like(num)
	}
	a, b := s.symbols(), o.symbols()
	for i := range a {
		a[i] = a[i].Add(b[i])
	}
	return s.likeSym(a)
}

// AddScalar adds c to the base value only.
func (s *Series) AddScalar(c float64) *Series {
	if s.sym != nil {
		sym := s.symbols()
		sym[0] = sym[0].AddScalar(c)
		return s.likeSym(sym)
	}
	num := append([]float64(nil), s.num...)
	num[0] += c
	return s.like(num)
}

func (s *Series) Neg() *Series {
	if s.sym != nil {
		sym := s.symbols()
		for i := range sym {
			sym[i] = sym[i].Neg()
		}
		return s.likeSym(sym)
	}
	num := make([]float64, len(s.num))
	for i, v := range s.num {
		num[i] = -v
	}
	return s.like(num)
}

func (s *Series) Sub(o *Series) *Series       { return s.Add(o.Neg()) }
func (s *Series) SubScalar(c float64) *Series { return s.AddScalar(-c) }

// RSub returns c - s.
func (s *Series) RSub(c float64) *Series { return s.Neg().AddScalar(c) }

// Mul is the truncated product: out[j] = Σ_k C(j,k)·s[k]·o[j-k].
func (s *Series) Mul(o *Series) *Series {
	mustMatch("mul", s, o)
	if s.sym == nil && o.sym == nil {
		return s.like(convolve(s.binom, s.num, o.num))
	}
	a, b := s.symbols(), o.symbols()
	out := make([]*Delegate, len(a))
	for j := range out {
		acc := Const(0)
		for k := 0; k <= j; k++ {
			acc = acc.Add(a[k].Mul(b[j-k]).Scale(s.binom[j][k]))
		}
		out[j] = acc
	}
	return s.likeSym(out)
}

func convolve(binom [][]float64, a, b []float64) []float64 {
	out := make([]float64, len(a))
	for j := range out {
		row := binom[j]
		var sum float64
		for k := 0; k <= j; k++ {
			sum += row[k] * a[k] * b[j-k]
		}
		out[j] = sum
	}
	return out
}

// MulScalar scales every coefficient by c.
func (s *Series) MulScalar(c float64) *Series {
	if s.sym != nil {
		sym := s.symbols()
		for i := range sym {
			sym[i] = sym[i].Scale(c)
		}
		return s.likeSym(sym)
	}
	num := make([]float64, len(s.num))
	for i, v := range s.num {
		num[i] = v * c
	}
	return s.like(num)
}

// Div multiplies by the inverse of o. A zero base value in o yields
// infinities or NaN.
func (s *Series) Div(o *Series) *Series       { return s.Mul(o.Inv()) }
func (s *Series) DivScalar(c float64) *Series { return s.MulScalar(1 / c) }

// RDiv returns c / s.
func (s *Series) RDiv(c float64) *Series { return s.Inv().MulScalar(c) }

// Inv returns 1/s, expanding 1/(1+w) in the relative perturbation w.
func (s *Series) Inv() *Series {
	base := s.base()
	rel := s.divValue(base)
	factors := make([]value, s.Order())
	for k := range factors {
		factors[k] = value{num: sign(k + 1)}
	}
	return expand(rel, factors).AddScalar(1).divValue(base)
}

// Pow returns exp(p·ln s). Integer powers are not special-cased, so the
// base value must be positive.
func (s *Series) Pow(p float64) *Series { return Exp(Ln(s).MulScalar(p)) }

// PowSeries returns exp(p·ln s) for a series exponent.
func (s *Series) PowSeries(p *Series) *Series { return Exp(p.Mul(Ln(s))) }

// Abs flips the series by the sign of its base value: -s when the base
// value is positive, s when it is negative.
func (s *Series) Abs() (*Series, error) {
	if s.sym != nil {
		return nil, fmt.Errorf("abs of symbolic series: %w", ErrDomain)
	}
	switch {
	case s.num[0] > 0:
		return s.Neg(), nil
	case s.num[0] < 0:
		return s.like(append([]float64(nil), s.num...)), nil
	}
	return nil, ErrDomain
}

// In-place variants. Each mutates and returns the receiver.

func (s *Series) AddAssign(o *Series) *Series       { return s.assign(s.Add(o)) }
func (s *Series) AddScalarAssign(c float64) *Series { return s.assign(s.AddScalar(c)) }
func (s *Series) SubAssign(o *Series) *Series       { return s.assign(s.Sub(o)) }
func (s *Series) MulAssign(o *Series) *Series       { return s.assign(s.Mul(o)) }
func (s *Series) MulScalarAssign(c float64) *Series { return s.assign(s.MulScalar(c)) }
func (s *Series) DivAssign(o *Series) *Series       { return s.assign(s.Div(o)) }

func sign(k int) float64 {
	if k%2 == 0 {
		return 1
	}
	return -1
}
