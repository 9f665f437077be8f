package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roktofy/client/internal/config"
)

var (
	// Global flags
	verbose bool
	apiURL  string

	logger *zap.Logger
	cli    *app
)

// newRootCmd builds the command tree. Flags bind to fresh variables on
// every call.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "roktofy",
		Short: "Roktofy blood donation client",
		Long: `roktofy talks to the Roktofy blood donation API.

Log in once and the credential pair is kept in local storage
(ROKTOFY_STORAGE) for the following commands.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
			cli, err = newApp(cmd.Context(), cfg, logger)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (or set ROKTOFY_API_URL)")

	root.AddCommand(authCommands()...)
	root.AddCommand(bloodCommands()...)
	root.AddCommand(overviewCommands()...)
	root.AddCommand(adminCmd())
	root.AddCommand(paymentCommands()...)
	return root
}

// shutdown closes the app and flushes the logger. PersistentPostRun is
// skipped when a command fails, so main calls it too.
func shutdown() {
	if cli != nil {
		cli.Close()
		cli = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func main() {
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	shutdown()
	if err != nil {
		os.Exit(1)
	}
}
