package cli

import (
	"context"
	"fmt"

	"careermatch/internal/ai"
	"careermatch/internal/common"
	"careermatch/internal/report"
	"careermatch/internal/types"

	"github.com/spf13/cobra"
)

func newGapsCmd() *cobra.Command {
	var (
		cmdConfig common.CommandConfig
		top       int
	)

	cmd := &cobra.Command{
		Use:   "gaps [name] [career]",
		Short: "List the skills a profile should improve for one career",
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("top") {
				top = getConfigFromContext(cmd.Context()).Engine.TopGaps
			}
			if err := common.ValidateLimit("--top", top); err != nil {
				return err
			}
			return resolveOutputFormat(cmd, &cmdConfig)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfigFromContext(ctx)
			logger := getLoggerFromContext(ctx)

			careers, err := openCatalog(cfg, logger)
			if err != nil {
				return err
			}
			career, err := careers.Find(args[1])
			if err != nil {
				return err
			}

			profiles, err := openProfiles(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeProfiles(profiles, logger)

			analyze := func(_ context.Context, profile types.Profile) (types.GapReport, *ai.TokenUsage, error) {
				return report.BuildGapReport(profile, career, top), nil, nil
			}
			if _, err := common.RunProfileCommand(ctx, logger, cmdConfig, profiles, args[0], analyze, newOutputHandler(cmd)); err != nil {
				return fmt.Errorf("failed to analyze gaps: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 0, "Number of improvement areas (default from engine.topGaps)")
	addOutputFlags(cmd, &cmdConfig)
	return cmd
}
