package cli

import (
	"context"

	"careermatch/internal/catalog"
	"careermatch/internal/common"
	"careermatch/internal/config"
	"careermatch/internal/errors"
	"careermatch/internal/store"

	"github.com/spf13/cobra"
)

// openCatalog loads catalog.file, or the built-in catalog when unset.
func openCatalog(cfg *config.Config, logger *errors.Logger) (*catalog.Catalog, error) {
	c, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		return nil, err
	}
	logger.Debug("Catalog loaded", "file", cfg.Catalog.File, "careers", c.Len())
	return c, nil
}

func openProfiles(ctx context.Context, cfg *config.Config, logger *errors.Logger) (store.ProfileStore, error) {
	profiles, err := store.Open(ctx, &cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("Profile store opened", "driver", cfg.Store.Driver)
	return profiles, nil
}

func closeProfiles(profiles store.ProfileStore, logger *errors.Logger) {
	if err := profiles.Close(); err != nil {
		logger.LogError(err, "Failed to close profile store")
	}
}

// addOutputFlags registers -o/--output and --format on cmd.
func addOutputFlags(cmd *cobra.Command, cmdConfig *common.CommandConfig) {
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutputFormat applies app.defaultFormat and rejects formats the
// configuration does not allow.
func resolveOutputFormat(cmd *cobra.Command, cmdConfig *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	if cmdConfig.OutputFormat == "" {
		cmdConfig.OutputFormat = cfg.App.DefaultFormat
	}
	return common.ValidateOutputFormat(cmdConfig.OutputFormat, cfg.App.SupportedFormats)
}

func newOutputHandler(cmd *cobra.Command) *common.OutputHandler {
	return common.NewOutputHandlerWithWriter(getLoggerFromContext(cmd.Context()), cmd.OutOrStdout())
}
