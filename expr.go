package tpsa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ============================================================
// Expr: expression trees over the independent variable
// ============================================================

// Expr is a function of one variable that can be evaluated on a series.
// Evaluating at Var(x0) yields the function's derivatives at x0.
type Expr interface {
	Eval(x *Series) (*Series, error)
	String() string
	eval(x *Series) (operand, error)
	toJSON() map[string]interface{}
}

// operand is an intermediate result: a series, or a plain number when s
// is nil. Binary operators try the series path first.
type operand struct {
	s *Series
	c float64
}

func (o operand) isSeries() bool { return o.s != nil }

func evalExpr(e Expr, x *Series) (*Series, error) {
	v, err := e.eval(x)
	if err != nil {
		return nil, err
	}
	if v.isSeries() {
		return v.s, nil
	}
	return x.zeroLike().AddScalar(v.c), nil
}

func combine(op string, a, b operand) operand {
	switch {
	case a.isSeries() && b.isSeries():
		switch op {
		case "add":
			return operand{s: a.s.Add(b.s)}
		case "sub":
			return operand{s: a.s.Sub(b.s)}
		case "mul":
			return operand{s: a.s.Mul(b.s)}
		default:
			return operand{s: a.s.Div(b.s)}
		}
	case a.isSeries():
		switch op {
		case "add":
			return operand{s: a.s.AddScalar(b.c)}
		case "sub":
			return operand{s: a.s.SubScalar(b.c)}
		case "mul":
			return operand{s: a.s.MulScalar(b.c)}
		default:
			return operand{s: a.s.DivScalar(b.c)}
		}
	case b.isSeries():
		switch op {
		case "add":
			return operand{s: b.s.AddScalar(a.c)}
		case "sub":
			return operand{s: b.s.RSub(a.c)}
		case "mul":
			return operand{s: b.s.MulScalar(a.c)}
		default:
			return operand{s: b.s.RDiv(a.c)}
		}
	}
	switch op {
	case "add":
		return operand{c: a.c + b.c}
	case "sub":
		return operand{c: a.c - b.c}
	case "mul":
		return operand{c: a.c * b.c}
	}
	return operand{c: a.c / b.c}
}

// ---------- Var ----------

type VarExpr struct{}

// X is the independent variable.
func X() Expr { return VarExpr{} }

func (v VarExpr) Eval(x *Series) (*Series, error) { return evalExpr(v, x) }
func (VarExpr) String() string                    { return "x" }
func (VarExpr) eval(x *Series) (operand, error)   { return operand{s: x}, nil }
func (VarExpr) toJSON() map[string]interface{}    { return map[string]interface{}{"type": "var"} }

// ---------- Num ----------

type NumExpr struct{ V float64 }

func C(v float64) Expr { return NumExpr{V: v} }

func (n NumExpr) Eval(x *Series) (*Series, error) { return evalExpr(n, x) }
func (n NumExpr) String() string                  { return formatFloat(n.V) }
func (n NumExpr) eval(*Series) (operand, error)   { return operand{c: n.V}, nil }
func (n NumExpr) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.V}
}

// ---------- Add / Mul ----------

// NaryExpr folds its terms left to right with add or mul.
type NaryExpr struct {
	Op    string
	Terms []Expr
}

func AddOf(terms ...Expr) Expr { return NaryExpr{Op: "add", Terms: terms} }
func MulOf(terms ...Expr) Expr { return NaryExpr{Op: "mul", Terms: terms} }

func (n NaryExpr) Eval(x *Series) (*Series, error) { return evalExpr(n, x) }

func (n NaryExpr) eval(x *Series) (operand, error) {
	acc := operand{}
	if n.Op == "mul" {
		acc.c = 1
	}
	for i, t := range n.Terms {
		v, err := t.eval(x)
		if err != nil {
			return operand{}, fmt.Errorf("%s: term %d: %w", n.Op, i, err)
		}
		acc = combine(n.Op, acc, v)
	}
	return acc, nil
}

func (n NaryExpr) String() string {
	if len(n.Terms) == 0 {
		if n.Op == "mul" {
			return "1"
		}
		return "0"
	}
	sep := " + "
	if n.Op == "mul" {
		sep = "*"
	}
	parts := make([]string, len(n.Terms))
	for i, t := range n.Terms {
		parts[i] = t.String()
		if inner, ok := t.(NaryExpr); ok && inner.Op == "add" && n.Op == "mul" {
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return strings.Join(parts, sep)
}

func (n NaryExpr) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(n.Terms))
	for i, t := range n.Terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": n.Op, "terms": ts}
}

// ---------- Sub / Div ----------

type BinaryExpr struct {
	Op          string
	Left, Right Expr
}

func SubOf(l, r Expr) Expr { return BinaryExpr{Op: "sub", Left: l, Right: r} }
func DivOf(l, r Expr) Expr { return BinaryExpr{Op: "div", Left: l, Right: r} }

func (b BinaryExpr) Eval(x *Series) (*Series, error) { return evalExpr(b, x) }

func (b BinaryExpr) eval(x *Series) (operand, error) {
	l, err := b.Left.eval(x)
	if err != nil {
		return operand{}, fmt.Errorf("%s: left: %w", b.Op, err)
	}
	r, err := b.Right.eval(x)
	if err != nil {
		return operand{}, fmt.Errorf("%s: right: %w", b.Op, err)
	}
	return combine(b.Op, l, r), nil
}

func (b BinaryExpr) String() string {
	op := " - "
	if b.Op == "div" {
		op = "/"
	}
	return "(" + b.Left.String() + op + b.Right.String() + ")"
}

func (b BinaryExpr) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": b.Op, "left": b.Left.toJSON(), "right": b.Right.toJSON()}
}

// ---------- Neg ----------

type NegExpr struct{ Arg Expr }

func NegOf(arg Expr) Expr { return NegExpr{Arg: arg} }

func (n NegExpr) Eval(x *Series) (*Series, error) { return evalExpr(n, x) }
func (n NegExpr) String() string                  { return "-(" + n.Arg.String() + ")" }
func (n NegExpr) eval(x *Series) (operand, error) {
	v, err := n.Arg.eval(x)
	if err != nil {
		return operand{}, err
	}
	if v.isSeries() {
		return operand{s: v.s.Neg()}, nil
	}
	return operand{c: -v.c}, nil
}
func (n NegExpr) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "neg", "arg": n.Arg.toJSON()}
}

// ---------- Pow ----------

type PowExpr struct{ Base, Exp Expr }

func PowOf(base, exp Expr) Expr { return PowExpr{Base: base, Exp: exp} }

func (p PowExpr) Eval(x *Series) (*Series, error) { return evalExpr(p, x) }
func (p PowExpr) String() string                  { return "(" + p.Base.String() + ")^(" + p.Exp.String() + ")" }

func (p PowExpr) eval(x *Series) (operand, error) {
	b, err := p.Base.eval(x)
	if err != nil {
		return operand{}, fmt.Errorf("pow: base: %w", err)
	}
	e, err := p.Exp.eval(x)
	if err != nil {
		return operand{}, fmt.Errorf("pow: exp: %w", err)
	}
	switch {
	case b.isSeries() && e.isSeries():
		return operand{s: b.s.PowSeries(e.s)}, nil
	case b.isSeries():
		return operand{s: b.s.Pow(e.c)}, nil
	case e.isSeries():
		return operand{s: Exp(e.s.MulScalar(math.Log(b.c)))}, nil
	}
	return operand{c: math.Pow(b.c, e.c)}, nil
}

func (p PowExpr) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.Base.toJSON(), "exp": p.Exp.toJSON()}
}

// ---------- Func ----------

// FuncExpr applies an elementary function by name. Param is the power of
// logistic or the sharpness of heaviside; nil selects the default. Other
// functions take no parameter.
type FuncExpr struct {
	Name  string
	Arg   Expr
	Param *float64
}

func FuncOf(name string, arg Expr) Expr { return FuncExpr{Name: name, Arg: arg} }

// FuncWith applies a parameterized function such as logistic or heaviside.
func FuncWith(name string, arg Expr, param float64) Expr {
	return FuncExpr{Name: name, Arg: arg, Param: &param}
}

func takesParam(name string) bool { return name == "logistic" || name == "heaviside" }

func (f FuncExpr) Eval(x *Series) (*Series, error) { return evalExpr(f, x) }

func (f FuncExpr) String() string {
	if f.Param != nil {
		return f.Name + "(" + f.Arg.String() + ", " + formatFloat(*f.Param) + ")"
	}
	return f.Name + "(" + f.Arg.String() + ")"
}

func (f FuncExpr) eval(x *Series) (operand, error) {
	v, err := f.Arg.eval(x)
	if err != nil {
		return operand{}, fmt.Errorf("%s: %w", f.Name, err)
	}
	var arg interface{} = v.c
	if v.isSeries() {
		arg = v.s
	}
	if f.Param != nil && !takesParam(f.Name) {
		return operand{}, fmt.Errorf("%s takes no parameter", f.Name)
	}
	switch f.Name {
	case "abs":
		t, ok := arg.(*Series)
		if !ok {
			return operand{}, fmt.Errorf("abs(%T): %w", arg, ErrNotSeries)
		}
		r, err := t.Abs()
		return operand{s: r}, err
	case "logistic", "heaviside":
		if f.Param != nil {
			t, ok := arg.(*Series)
			if !ok {
				return operand{}, fmt.Errorf("%s(%T): %w", f.Name, arg, ErrNotSeries)
			}
			if f.Name == "logistic" {
				return operand{s: Logistic(t, *f.Param)}, nil
			}
			return operand{s: Heaviside(t, *f.Param)}, nil
		}
	}
	r, err := Call(f.Name, arg)
	if err != nil {
		return operand{}, err
	}
	return operand{s: r}, nil
}

func (f FuncExpr) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "func", "name": f.Name, "arg": f.Arg.toJSON()}
	if f.Param != nil {
		m["param"] = *f.Param
	}
	return m
}

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// ParseJSON decodes a JSON expression document.
func ParseJSON(data []byte) (Expr, error) {
	var m map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid expression JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid expression JSON: trailing data after expression")
	}
	return FromJSON(m)
}

func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	sub := func(field string) (Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}

	subArray := func(field string) ([]Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	subNumber := func(field string) (float64, bool, error) {
		v, ok := data[field]
		if !ok {
			return 0, false, nil
		}
		f, ok := toFloat(v)
		if !ok {
			return 0, true, fmt.Errorf("%s: %q must be a number", typ, field)
		}
		return f, true, nil
	}

	switch typ {
	case "var":
		return X(), nil

	case "num":
		v, ok, err := subNumber("value")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("num: missing 'value'")
		}
		return C(v), nil

	case "add", "mul":
		terms, err := subArray("terms")
		if err != nil {
			return nil, err
		}
		return NaryExpr{Op: typ, Terms: terms}, nil

	case "sub", "div":
		l, err := sub("left")
		if err != nil {
			return nil, err
		}
		r, err := sub("right")
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: typ, Left: l, Right: r}, nil

	case "neg":
		arg, err := sub("arg")
		if err != nil {
			return nil, err
		}
		return NegOf(arg), nil

	case "pow":
		base, err := sub("base")
		if err != nil {
			return nil, err
		}
		exp, err := sub("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "func":
		nameAny, ok := data["name"]
		name, isStr := nameAny.(string)
		if !ok || !isStr || name == "" {
			return nil, fmt.Errorf("func: 'name' must be a non-empty string")
		}
		if _, known := unary[name]; !known && name != "abs" {
			return nil, fmt.Errorf("func %q: %w", name, ErrUnknownFunc)
		}
		arg, err := sub("arg")
		if err != nil {
			return nil, err
		}
		param, hasParam, err := subNumber("param")
		if err != nil {
			return nil, err
		}
		if !hasParam {
			return FuncExpr{Name: name, Arg: arg}, nil
		}
		if !takesParam(name) {
			return nil, fmt.Errorf("func %q takes no parameter", name)
		}
		return FuncWith(name, arg, param), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}
