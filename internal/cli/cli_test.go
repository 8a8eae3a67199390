package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	tpsa "github.com/njchilds90/gotpsa"
	"github.com/njchilds90/gotpsa/internal/config"
)

// run executes the command tree with fresh flag state.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvOrder, "")
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config=", "--color=never"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEval_FuncJSON(t *testing.T) {
	out, err := run(t, "eval", "--func", "exp", "--at", "0", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res tpsa.SeriesResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Order != tpsa.DefaultOrder || len(res.Coeffs) != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	for i, c := range res.Coeffs {
		if c != 1 {
			t.Errorf("coefficient %d: want 1, got %v", i, c)
		}
	}
}

func TestEval_ExpressionTable(t *testing.T) {
	expr := `{"type":"pow","base":{"type":"var"},"exp":{"type":"num","value":4}}`
	out, err := run(t, "eval", "--at", "10", expr)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"order 2", "(x)^(4)", "10000", "4000", "1200", "f''"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEval_OrderFlag(t *testing.T) {
	out, err := run(t, "eval", "--func", "sin", "--order", "5", "--taylor")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "order 5") || !strings.Contains(out, "f^(5)") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := run(t, "eval", "--func", "sin", "--order", "1"); !errors.Is(err, tpsa.ErrOrderValue) {
		t.Errorf("want ErrOrderValue, got %v", err)
	}
}

func TestEval_Errors(t *testing.T) {
	if _, err := run(t, "eval"); err == nil {
		t.Error("expected error without an expression")
	}
	if _, err := run(t, "eval", "--func", "exp", `{"type":"var"}`); err == nil {
		t.Error("expected error for both --func and an expression")
	}
	if _, err := run(t, "eval", "--func", "erf"); !errors.Is(err, tpsa.ErrUnknownFunc) {
		t.Errorf("want ErrUnknownFunc, got %v", err)
	}
}

func TestEval_Compare(t *testing.T) {
	ratio := `{"type":"div","left":{"type":"func","name":"sin","arg":{"type":"var"}},"right":{"type":"func","name":"cos","arg":{"type":"var"}}}`
	out, err := run(t, "eval", "--func", "tan", "--at", "0.4", "--order", "4", "--compare", ratio)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "equal (rtol=1e-05, atol=1e-08)") || strings.Contains(out, "not equal") {
		t.Errorf("unexpected output:\n%s", out)
	}

	shifted := `{"type":"add","terms":[{"type":"func","name":"tan","arg":{"type":"var"}},{"type":"num","value":0.001}]}`
	out, err = run(t, "eval", "--func", "tan", "--at", "0.4", "--json", "--compare", shifted)
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		Equal *bool `json:"equal"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Equal == nil || *res.Equal {
		t.Errorf("offset of 1e-3 should not be equal under default tolerances: %s", out)
	}

	path := filepath.Join(t.TempDir(), "loose.toml")
	if err := os.WriteFile(path, []byte("atol = 0.01\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "--config", path, "eval", "--func", "tan", "--at", "0.4", "--compare", shifted)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "equal (rtol=1e-05, atol=0.01)") || strings.Contains(out, "not equal") {
		t.Errorf("configured atol should accept the offset:\n%s", out)
	}

	if _, err := run(t, "eval", "--func", "tan", "--compare", `{"type":"var"} {}`); err == nil || !strings.Contains(err.Error(), "--compare") {
		t.Errorf("want --compare parse error, got %v", err)
	}
}

func TestOrder(t *testing.T) {
	out, err := run(t, "order", "4")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "order 4") || !strings.Contains(out, "n=4 1 4 6 4 1") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := run(t, "order", "2.5"); !errors.Is(err, tpsa.ErrOrderType) {
		t.Errorf("want ErrOrderType, got %v", err)
	}
	if _, err := run(t, "order", "1"); !errors.Is(err, tpsa.ErrOrderValue) {
		t.Errorf("want ErrOrderValue, got %v", err)
	}
}

func TestFunctionsAndSchema(t *testing.T) {
	out, err := run(t, "functions")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "tanh\n") || !strings.Contains(out, "heaviside\n") {
		t.Errorf("unexpected functions list:\n%s", out)
	}
	out, err = run(t, "schema")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != tpsa.ToolSpec() {
		t.Error("schema should print ToolSpec")
	}
}
