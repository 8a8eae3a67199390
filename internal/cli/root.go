// Package cli implements the tpsa command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/njchilds90/gotpsa/internal/config"
	"github.com/njchilds90/gotpsa/internal/style"
)

var (
	cfgFile  string
	colorOpt string
	settings = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "tpsa",
	Short: "Truncated power-series algebra",
	Long: `tpsa evaluates functions of one variable on truncated power series,
returning the value and derivatives up to the configured order.

Expressions are JSON trees, for example:
  {"type":"func","name":"sin","arg":{"type":"var"}}`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if colorOpt != "" {
			s.Output.Color = colorOpt
		}
		settings = s
		style.Configure(settings.Output.Color)
		return nil
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		style.PrintError(os.Stderr, err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv(config.EnvConfig), "Settings file (.toml or .yaml)")
	rootCmd.PersistentFlags().StringVar(&colorOpt, "color", "", "Color output: auto, always or never")
}
