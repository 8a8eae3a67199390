package tpsa_test

import (
	"errors"
	"math"
	"testing"

	tpsa "github.com/njchilds90/gotpsa"
)

// ============================================================
// Delegate tests
// ============================================================

func TestDelegate_CallAndCompose(t *testing.T) {
	sqrt := tpsa.NewDelegate(math.Sqrt, "sqrt")
	if got := sqrt.Call(16); got != 4 {
		t.Errorf("want 4, got %v", got)
	}
	sinx := tpsa.SinFunc.Compose(tpsa.Identity)
	if sinx.Name() != "sin(x)" {
		t.Errorf("want sin(x), got %s", sinx.Name())
	}
	nested := tpsa.ExpFunc.Compose(sinx)
	if nested.String() != "exp(sin(x))" {
		t.Errorf("want exp(sin(x)), got %s", nested)
	}
	if got, want := nested.Call(0.3), math.Exp(math.Sin(0.3)); got != want {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestDelegate_Apply(t *testing.T) {
	sq := tpsa.NewDelegate(func(x float64) float64 { return x * x }, "sq")

	v, err := sq.Apply(3)
	if err != nil {
		t.Fatal(err)
	}
	if v.(float64) != 9 {
		t.Errorf("want 9, got %v", v)
	}

	v, err = sq.Apply(tpsa.CosFunc)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := v.(*tpsa.Delegate)
	if !ok || d.Name() != "sq(cos)" {
		t.Errorf("want delegate sq(cos), got %v", v)
	}

	if _, err := sq.Apply("three"); !errors.Is(err, tpsa.ErrInvalidType) {
		t.Errorf("want ErrInvalidType, got %v", err)
	}
}

func TestDelegate_MulNames(t *testing.T) {
	sin, cos := tpsa.SinFunc, tpsa.CosFunc
	sinx := sin.Compose(tpsa.Identity)
	tests := []struct {
		name string
		got  *tpsa.Delegate
		want string
	}{
		{"equal length", sin.Mul(cos), "sin*(cos)"},
		{"shorter outside", sinx.Mul(tpsa.Identity), "x*(sin(x))"},
		{"zero left", tpsa.Const(0).Mul(sin), "0"},
		{"zero right", sinx.Mul(tpsa.Const(0)), "0"},
		{"one left", tpsa.Const(1).Mul(sin), "sin"},
		{"one right", sinx.Mul(tpsa.Const(1)), "sin(x)"},
		{"minus one", tpsa.Const(-1).Mul(sinx), "-(sin(x))"},
		{"literals", tpsa.Const(2).Mul(tpsa.Const(3)), "6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Name() != tt.want {
				t.Errorf("want %q, got %q", tt.want, tt.got.Name())
			}
		})
	}
	if got := sin.Mul(cos).Call(0.4); got != math.Sin(0.4)*math.Cos(0.4) {
		t.Errorf("product value: got %v", got)
	}
}

func TestDelegate_ScaleNames(t *testing.T) {
	sin := tpsa.SinFunc
	tests := []struct {
		c    float64
		want string
	}{
		{0, "0"},
		{1, "sin"},
		{-1, "-(sin)"},
		{2.5, "2.5*(sin)"},
	}
	for _, tt := range tests {
		if got := sin.Scale(tt.c).Name(); got != tt.want {
			t.Errorf("Scale(%v): want %q, got %q", tt.c, tt.want, got)
		}
	}
	if got := tpsa.Const(4).Scale(0.5).Name(); got != "2" {
		t.Errorf("scaled literal: want 2, got %q", got)
	}
	if got := sin.Scale(2.5).Call(math.Pi / 2); got != 2.5 {
		t.Errorf("want 2.5, got %v", got)
	}
}

func TestDelegate_AddNames(t *testing.T) {
	sin, cos := tpsa.SinFunc, tpsa.CosFunc
	tests := []struct {
		name string
		got  *tpsa.Delegate
		want string
	}{
		{"plain", sin.Add(cos), "sin+cos"},
		{"zero right", sin.Add(tpsa.Const(0)), "sin"},
		{"zero left", tpsa.Const(0).Add(cos), "cos"},
		{"both zero", tpsa.Const(0).Add(tpsa.Const(0)), "0"},
		{"literals", tpsa.Const(2).Add(tpsa.Const(3)), "5"},
		{"scalar zero", sin.AddScalar(0), "sin"},
		{"scalar literal", tpsa.Const(0).AddScalar(2), "2"},
		{"scalar", sin.AddScalar(2), "sin+2"},
		{"neg", sin.Neg(), "-(sin)"},
		{"neg literal", tpsa.Const(3).Neg(), "-3"},
		{"neg zero", tpsa.Const(0).Neg(), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Name() != tt.want {
				t.Errorf("want %q, got %q", tt.want, tt.got.Name())
			}
		})
	}
	if got := sin.Add(cos).Call(0); got != 1 {
		t.Errorf("sin+cos at 0: want 1, got %v", got)
	}
	if got := sin.Neg().Call(math.Pi / 2); got != -1 {
		t.Errorf("-(sin) at pi/2: want -1, got %v", got)
	}
}

func TestDelegate_IsZero(t *testing.T) {
	if !tpsa.Const(0).IsZero() {
		t.Error("Const(0) should be zero")
	}
	if tpsa.Identity.IsZero() {
		t.Error("x should not be zero")
	}
	if tpsa.InvFunc.Call(4) != 0.25 {
		t.Error("inv(4) should be 0.25")
	}
}
