package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	tpsa "github.com/njchilds90/gotpsa"
	"github.com/njchilds90/gotpsa/internal/style"
)

var (
	evalOrder   int
	evalAt      float64
	evalFunc    string
	evalJSON    bool
	evalTaylor  bool
	evalCompare string
)

var evalCmd = &cobra.Command{
	Use:   "eval [expr-json]",
	Short: "Evaluate an expression and its derivatives at a point",
	Long: `Evaluate an expression on the series of x at a point and print the value
and derivatives up to the truncation order.

Examples:
  tpsa eval --at 10 '{"type":"pow","base":{"type":"var"},"exp":{"type":"num","value":4}}'
  tpsa eval --func tanh --at 5 --order 8
  tpsa eval --func exp --at 1 --json
  tpsa eval --func tan --at 0.4 --compare '{"type":"div","left":{"type":"func","name":"sin","arg":{"type":"var"}},"right":{"type":"func","name":"cos","arg":{"type":"var"}}}'

With --compare, both expressions are evaluated at the same point and the
coefficients are compared using the rtol and atol settings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().IntVar(&evalOrder, "order", 0, "Truncation order (default from settings)")
	evalCmd.Flags().Float64Var(&evalAt, "at", 0, "Base point")
	evalCmd.Flags().StringVar(&evalFunc, "func", "", "Elementary function to apply to x instead of an expression")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "Output as JSON")
	evalCmd.Flags().BoolVar(&evalTaylor, "taylor", false, "Also print Taylor coefficients f^(n)/n!")
	evalCmd.Flags().StringVar(&evalCompare, "compare", "", "Expression JSON to compare against within the configured tolerances")
}

// evalResult is the --json output; Equal is set only with --compare.
type evalResult struct {
	tpsa.SeriesResult
	Equal *bool `json:"equal,omitempty"`
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := configFor(cmd, evalOrder)
	if err != nil {
		return err
	}

	var expr tpsa.Expr
	switch {
	case evalFunc != "" && len(args) > 0:
		return fmt.Errorf("give either --func or an expression, not both")
	case evalFunc != "":
		expr = tpsa.FuncOf(evalFunc, tpsa.X())
	case len(args) == 1:
		expr, err = tpsa.ParseJSON([]byte(args[0]))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("missing expression (or --func)")
	}

	x := cfg.Var(evalAt)
	s, err := expr.Eval(x)
	if err != nil {
		return err
	}

	var equal *bool
	var other tpsa.Expr
	if evalCompare != "" {
		other, err = tpsa.ParseJSON([]byte(evalCompare))
		if err != nil {
			return fmt.Errorf("--compare: %w", err)
		}
		o, err := other.Eval(x)
		if err != nil {
			return fmt.Errorf("--compare: %w", err)
		}
		eq := s.ApproxEqual(o, settings.RelTol, settings.AbsTol)
		equal = &eq
	}

	out := cmd.OutOrStdout()
	if evalJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(evalResult{
			SeriesResult: tpsa.SeriesResult{Order: s.Order(), At: evalAt, Coeffs: s.Coeffs(), Taylor: s.Taylor()},
			Equal:        equal,
		})
	}

	rows := []style.Row{
		{Label: "expr", Value: expr.String()},
		{Label: "at", Value: strconv.FormatFloat(evalAt, 'g', -1, 64)},
	}
	taylor := s.Taylor()
	for i, c := range s.All() {
		v := strconv.FormatFloat(c, 'g', -1, 64)
		if evalTaylor || settings.Output.Taylor {
			v += style.Dim.Render(fmt.Sprintf("  (/%d! = %s)", i, strconv.FormatFloat(taylor[i], 'g', -1, 64)))
		}
		rows = append(rows, style.Row{Label: derivLabel(i), Value: v})
	}
	if equal != nil {
		verdict := style.Success.Render("equal")
		if !*equal {
			verdict = style.Error.Render("not equal")
		}
		rows = append(rows,
			style.Row{Label: "compare", Value: other.String()},
			style.Row{Label: "result", Value: fmt.Sprintf("%s (rtol=%g, atol=%g)", verdict, settings.RelTol, settings.AbsTol)},
		)
	}
	style.Table(out, fmt.Sprintf("order %d", s.Order()), rows)
	return nil
}

// configFor applies the --order flag, when given, on top of the settings.
func configFor(cmd *cobra.Command, order int) (*tpsa.Config, error) {
	s := settings
	if cmd.Flags().Changed("order") {
		s.Order = order
	}
	return s.TPSA()
}

func derivLabel(n int) string {
	switch n {
	case 0:
		return "f"
	case 1:
		return "f'"
	case 2:
		return "f''"
	}
	return fmt.Sprintf("f^(%d)", n)
}
