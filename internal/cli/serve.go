package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	tpsa "github.com/njchilds90/gotpsa"
	"github.com/njchilds90/gotpsa/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP tool server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings.Server
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, cfg, log.New(os.Stderr, "tpsa ", log.LstdFlags))
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the tool schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), tpsa.ToolSpec())
		return err
	},
}

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List elementary functions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range tpsa.Functions() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, schemaCmd, functionsCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
}
