// Command ragsync uploads a local directory into a RAGFlow dataset.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/ragsync/internal/config"
)

var (
	cfgFile string
	v       = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "ragsync",
	Short: "Batch-upload a directory into a RAGFlow dataset",
	Long: `ragsync scans a local directory for supported documents, uploads them in
batches to a RAGFlow dataset (creating the dataset if needed) and triggers
parsing of the uploaded documents.

Settings come from flags, RAGSYNC_* environment variables, a .env file in the
current directory and an optional config file, in that order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}
		if err := config.ReadFile(v, cfgFile); err != nil {
			return err
		}
		return config.BindFlags(v, cmd.Flags())
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "info", Title: "Inspection Commands:"},
	)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./ragsync.{toml,yaml} or ~/.ragsync/ragsync.{toml,yaml})")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
