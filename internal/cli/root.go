package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"careermatch/internal/config"
	"careermatch/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "careermatch",
		Short: "Recommend careers from self-rated skill profiles",
		Long: `Careermatch registers people's self-rated technical and behavioral skills,
ranks a catalog of careers by weighted compatibility and lists the skills
to improve for each career. An optional AI advisor turns those gaps into
a learning plan.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvironment(cmd, configFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.careermatch/config.yaml)")

	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newCareersCmd())
	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newGapsCmd())
	rootCmd.AddCommand(newAdviseCmd())
	rootCmd.AddCommand(newInteractiveCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command line. Configuration is loaded from --config,
// the default search paths and CAREERMATCH_* variables.
func Execute(ctx context.Context) error {
	return run(ctx, os.Args[1:], os.Stdin, os.Stdout)
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	return rootCmd.ExecuteContext(ctx)
}

// loadEnvironment attaches the config and logger to the command context
// unless the caller already provided them.
func loadEnvironment(cmd *cobra.Command, configFile string) error {
	ctx := cmd.Context()
	if _, ok := ctx.Value(configKey).(*config.Config); ok {
		return nil
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to apply vault secrets: %w", err)
	}

	logger.Debug("Starting careermatch",
		"version", Version,
		"command", cmd.Name(),
		"log_level", cfg.App.LogLevel,
		"store_driver", cfg.Store.Driver,
		"advisor_configured", cfg.AdvisorConfigured())

	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}
