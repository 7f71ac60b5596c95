package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saltyorg/tablekit/internal/config"
	"github.com/saltyorg/tablekit/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	configPath string
	verbosity  int
	logFile    string
)

// loaded in PersistentPreRunE
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tablekit",
		Short: "Tablekit - generic table CRUD accessor",
		Long: `Tablekit runs create, read, update and delete operations against a single
database table using parameterized statements. Tables and their column types
are declared in the configuration file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./tablekit.yaml if present)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this rotating file")

	rootCmd.AddCommand(
		newCreateCmd(),
		newReadCmd(),
		newFindCmd(),
		newListCmd(),
		newUpdateCmd(),
		newUpdateWhereCmd(),
		newDeleteCmd(),
		newDeleteWhereCmd(),
		newExecCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			// Skip config loading.
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "tablekit %s (commit: %s, built: %s)\n", version, commit, date)
			},
		},
	)

	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logFile != "" {
		loaded.Log.File = logFile
	}

	logging.Apply(loaded.Log, verbosity)
	config.SetGlobalTimeouts(&loaded.Timeouts)

	log.Debug().
		Str("version", version).
		Str("driver", loaded.Database.Driver).
		Int("tables", len(loaded.Tables)).
		Msg("Configuration loaded")

	cfg = loaded
	return nil
}
