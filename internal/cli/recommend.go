package cli

import (
	"context"
	"fmt"

	"careermatch/internal/ai"
	"careermatch/internal/common"
	"careermatch/internal/config"
	"careermatch/internal/engine"
	"careermatch/internal/errors"
	"careermatch/internal/formatters"
	"careermatch/internal/report"
	"careermatch/internal/types"

	"github.com/spf13/cobra"
)

type recommendOptions struct {
	output  common.CommandConfig
	top     int
	topGaps int
	save    bool
}

func newRecommendCmd() *cobra.Command {
	var opts recommendOptions

	cmd := &cobra.Command{
		Use:   "recommend [name]",
		Short: "Rank the catalog's careers for a profile",
		Long: `Rank every career in the catalog by compatibility with a registered
profile and show the best matches with their main improvement areas.
Use --save to store the report through the configured report sink.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfigFromContext(cmd.Context())
			if !cmd.Flags().Changed("top") {
				opts.top = cfg.Engine.TopCareers
			}
			if !cmd.Flags().Changed("gaps") {
				opts.topGaps = cfg.Engine.TopGaps
			}
			if err := common.ValidateLimit("--top", opts.top); err != nil {
				return err
			}
			if err := common.ValidateLimit("--gaps", opts.topGaps); err != nil {
				return err
			}
			return resolveOutputFormat(cmd, &opts.output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, args[0], opts)
		},
	}
	cmd.Flags().IntVarP(&opts.top, "top", "n", 0, "Number of careers to show (default from engine.topCareers)")
	cmd.Flags().IntVar(&opts.topGaps, "gaps", 0, "Improvement areas per career (default from engine.topGaps)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save the report through the configured report sink")
	addOutputFlags(cmd, &opts.output)
	return cmd
}

func runRecommend(cmd *cobra.Command, name string, opts recommendOptions) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	careers, err := openCatalog(cfg, logger)
	if err != nil {
		return err
	}
	profiles, err := openProfiles(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProfiles(profiles, logger)

	ranker := engine.NewRanker(careers.Careers())
	recommend := func(_ context.Context, profile types.Profile) (types.Report, *ai.TokenUsage, error) {
		return report.Build(profile, ranker.Recommend(profile, opts.top), opts.topGaps), nil, nil
	}

	outputHandler := newOutputHandler(cmd)
	result, err := common.RunProfileCommand(ctx, logger, opts.output, profiles, name, recommend, outputHandler)
	if err != nil {
		return fmt.Errorf("failed to recommend careers: %w", err)
	}
	logger.Info("Recommendation completed",
		"profile", result.Profile.Name,
		"careers", len(result.Recommendations))

	if !opts.save {
		return nil
	}
	location, err := saveReport(ctx, cfg, logger, outputHandler, result, opts.output.OutputFormat)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to %s\n", location)
	return nil
}

// saveReport renders rep in format and stores it through the configured
// sink, returning its location.
func saveReport(ctx context.Context, cfg *config.Config, logger *errors.Logger, outputHandler *common.OutputHandler, rep types.Report, format string) (string, error) {
	data, err := outputHandler.Render(rep, format)
	if err != nil {
		return "", err
	}

	sink, err := report.NewSink(ctx, cfg.Reports)
	if err != nil {
		return "", err
	}

	location, err := sink.Save(ctx,
		report.FileName(rep.Profile.Name, formatters.Extension(format)),
		formatters.ContentType(format),
		[]byte(data))
	if err != nil {
		return "", err
	}
	logger.Info("Report saved", "report_id", rep.ID, "location", location, "sink", cfg.Reports.Sink)
	return location, nil
}
