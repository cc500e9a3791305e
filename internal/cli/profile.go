package cli

import (
	"context"
	"fmt"
	"io"

	"careermatch/internal/ai"
	"careermatch/internal/catalog"
	"careermatch/internal/common"
	"careermatch/internal/errors"
	"careermatch/internal/store"
	"careermatch/internal/types"

	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Register and inspect skill profiles",
	}
	profileCmd.AddCommand(newProfileAddCmd())
	profileCmd.AddCommand(newProfileListCmd())
	profileCmd.AddCommand(newProfileShowCmd())
	return profileCmd
}

type profileAddOptions struct {
	name     string
	notes    string
	fromFile string
}

func newProfileAddCmd() *cobra.Command {
	var opts profileAddOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a profile",
		Long: `Register a profile by rating every skill the career catalog asks for,
from 0 (none) to 5 (expert). Use --from-file to import a JSON or YAML
profile instead of answering prompts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileAdd(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "Profile name (prompted when empty)")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "Free-form notes stored with the profile")
	cmd.Flags().StringVarP(&opts.fromFile, "from-file", "f", "", "Import the profile from a JSON or YAML file")
	return cmd
}

func runProfileAdd(cmd *cobra.Command, opts profileAddOptions) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	var (
		profile types.Profile
		err     error
	)
	if opts.fromFile != "" {
		profile, err = common.NewFileProcessor(logger).ReadProfile(opts.fromFile)
		if err == nil && opts.name != "" {
			profile.Name = opts.name
		}
		if err == nil && opts.notes != "" {
			profile.Notes = opts.notes
		}
	} else {
		var careers *catalog.Catalog
		careers, err = openCatalog(cfg, logger)
		if err != nil {
			return err
		}
		prompter := common.NewSkillPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		profile, err = promptProfile(prompter, cmd.OutOrStdout(), careers, opts)
	}
	if err != nil {
		return err
	}

	profiles, err := openProfiles(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProfiles(profiles, logger)

	return registerProfile(ctx, profiles, profile, cmd.OutOrStdout(), logger)
}

// promptProfile asks for a name, every technical and behavioral skill of the
// catalog, and optional notes.
func promptProfile(prompter *common.SkillPrompter, out io.Writer, careers *catalog.Catalog, opts profileAddOptions) (types.Profile, error) {
	name := opts.name
	for name == "" {
		answer, err := prompter.AskLine("Name: ")
		if err != nil {
			return types.Profile{}, err
		}
		name = answer
	}

	technical, behavioral := careers.SkillUnion()

	fmt.Fprintln(out, "Rate your technical skills:")
	technicalLevels, err := prompter.AskAll(technical)
	if err != nil {
		return types.Profile{}, err
	}

	fmt.Fprintln(out, "Rate your behavioral skills:")
	behavioralLevels, err := prompter.AskAll(behavioral)
	if err != nil {
		return types.Profile{}, err
	}

	notes := opts.notes
	if notes == "" {
		notes, err = prompter.AskLine("Notes (optional): ")
		if err != nil {
			return types.Profile{}, err
		}
	}

	return types.Profile{
		Name:       name,
		Technical:  technicalLevels,
		Behavioral: behavioralLevels,
		Notes:      notes,
	}, nil
}

func registerProfile(ctx context.Context, profiles store.ProfileStore, profile types.Profile, out io.Writer, logger *errors.Logger) error {
	if err := profiles.Append(ctx, profile); err != nil {
		return err
	}
	logger.Info("Profile registered", "profile", profile.Name)
	fmt.Fprintf(out, "Profile %q registered.\n", profile.Name)
	return nil
}

func newProfileListCmd() *cobra.Command {
	var cmdConfig common.CommandConfig

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered profiles",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveOutputFormat(cmd, &cmdConfig)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfigFromContext(ctx)
			logger := getLoggerFromContext(ctx)

			profiles, err := openProfiles(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeProfiles(profiles, logger)

			all, err := profiles.LoadAll(ctx)
			if err != nil {
				return err
			}
			if all == nil {
				all = []types.Profile{}
			}
			return newOutputHandler(cmd).HandleOutput(all, cmdConfig)
		},
	}
	addOutputFlags(cmd, &cmdConfig)
	return cmd
}

func newProfileShowCmd() *cobra.Command {
	var cmdConfig common.CommandConfig

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show one profile",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveOutputFormat(cmd, &cmdConfig)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfigFromContext(ctx)
			logger := getLoggerFromContext(ctx)

			profiles, err := openProfiles(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeProfiles(profiles, logger)

			show := func(_ context.Context, profile types.Profile) (types.Profile, *ai.TokenUsage, error) {
				return profile, nil, nil
			}
			_, err = common.RunProfileCommand(ctx, logger, cmdConfig, profiles, args[0], show, newOutputHandler(cmd))
			return err
		},
	}
	addOutputFlags(cmd, &cmdConfig)
	return cmd
}
