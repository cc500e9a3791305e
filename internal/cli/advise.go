package cli

import (
	"context"
	"fmt"

	"careermatch/internal/ai"
	"careermatch/internal/common"
	"careermatch/internal/config"
	"careermatch/internal/engine"
	"careermatch/internal/errors"
	"careermatch/internal/types"

	"github.com/spf13/cobra"
)

// newAdvisor is replaced in tests.
var newAdvisor = func(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*ai.Service, error) {
	if !cfg.AdvisorConfigured() {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"the advisor needs an API key: set ai.apiKey or CAREERMATCH_AI_APIKEY", nil)
	}
	return ai.NewService(ctx, &cfg.AI, logger)
}

func newAdviseCmd() *cobra.Command {
	var cmdConfig common.CommandConfig

	cmd := &cobra.Command{
		Use:   "advise [name] [career]",
		Short: "Ask the AI advisor for a learning plan towards a career",
		Long: `Ask the configured AI advisor for a step-by-step learning plan that
closes the gaps between a registered profile and one career.
Requires an API key in ai.apiKey.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveOutputFormat(cmd, &cmdConfig)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvise(cmd, args[0], args[1], cmdConfig)
		},
	}
	addOutputFlags(cmd, &cmdConfig)
	return cmd
}

func runAdvise(cmd *cobra.Command, name, title string, cmdConfig common.CommandConfig) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	careers, err := openCatalog(cfg, logger)
	if err != nil {
		return err
	}
	career, err := careers.Find(title)
	if err != nil {
		return err
	}

	advisor, err := newAdvisor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := advisor.Close(); err != nil {
			logger.LogError(err, "Failed to close advisor")
		}
	}()

	profiles, err := openProfiles(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProfiles(profiles, logger)

	advise := func(ctx context.Context, profile types.Profile) (types.Advice, *ai.TokenUsage, error) {
		logger.Info("Requesting learning plan", "profile", profile.Name, "career", career.Title)
		return advisor.Advise(ctx, types.AdviceInput{
			Profile: profile,
			Career:  career,
			Score:   engine.Compatibility(profile, career),
			Gaps:    engine.ImprovementAreas(profile, career, cfg.Engine.TopGaps),
		})
	}
	if _, err := common.RunProfileCommand(ctx, logger, cmdConfig, profiles, name, advise, newOutputHandler(cmd)); err != nil {
		return fmt.Errorf("failed to build learning plan: %w", err)
	}
	return nil
}
