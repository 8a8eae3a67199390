package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	tpsa "github.com/njchilds90/gotpsa"
	"github.com/njchilds90/gotpsa/internal/style"
)

var orderCmd = &cobra.Command{
	Use:   "order [n]",
	Short: "Show the truncation order and its binomial table",
	Long: `Show the configured truncation order, or validate n, and print the
binomial coefficient table used by series multiplication.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrder,
}

func init() {
	rootCmd.AddCommand(orderCmd)
}

func runOrder(cmd *cobra.Command, args []string) error {
	opts := settings
	if len(args) == 1 {
		n, err := parseOrder(args[0])
		if err != nil {
			return err
		}
		opts.Order = n
	}
	cfg, err := opts.TPSA()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d\n", style.Success.Render("order"), cfg.Order())
	for n, row := range cfg.Binomial() {
		cells := make([]string, n+1)
		for k := range cells {
			cells[k] = strconv.FormatFloat(row[k], 'g', -1, 64)
		}
		fmt.Fprintf(out, "  %s %s\n", style.Dim.Render(fmt.Sprintf("n=%d", n)), strings.Join(cells, " "))
	}
	return nil
}

// parseOrder rejects anything that is not an integer literal.
func parseOrder(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("order %q: %w", arg, tpsa.ErrOrderType)
	}
	return n, nil
}
