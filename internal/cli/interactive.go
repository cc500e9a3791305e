package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"careermatch/internal/catalog"
	"careermatch/internal/common"
	"careermatch/internal/engine"
	"careermatch/internal/errors"
	"careermatch/internal/formatters"
	"careermatch/internal/report"
	"careermatch/internal/store"
	"careermatch/internal/types"

	"github.com/spf13/cobra"
)

const menu = `
Choose an option:
1) Register a new profile
2) List profiles
3) Analyze a profile and recommend careers
4) Show a saved profile
5) Exit
`

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Run the menu-driven session",
		Long: `Run a menu-driven session to register profiles, list them, analyze one
against the career catalog and optionally save the JSON report.`,
		Args: cobra.NoArgs,
		RunE: runInteractive,
	}
}

// session holds what the menu actions share.
type session struct {
	ctx      context.Context
	cmd      *cobra.Command
	out      io.Writer
	prompter *common.SkillPrompter
	careers  *catalog.Catalog
	ranker   *engine.Ranker
	profiles store.ProfileStore
	logger   *errors.Logger
}

func runInteractive(cmd *cobra.Command, args []string) error {
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

	s := &session{
		ctx:      ctx,
		cmd:      cmd,
		out:      cmd.OutOrStdout(),
		prompter: common.NewSkillPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		careers:  careers,
		ranker:   engine.NewRanker(careers.Careers()),
		profiles: profiles,
		logger:   logger,
	}

	fmt.Fprintln(s.out, "=== Career Guidance ===")
	for {
		fmt.Fprint(s.out, menu)
		choice, err := s.prompter.AskLine("> ")
		if stderrors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = s.register()
		case "2":
			err = s.list()
		case "3":
			err = s.analyze()
		case "4":
			err = s.show()
		case "5":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid option. Try again.")
			continue
		}

		switch {
		case err == nil:
		case stderrors.Is(err, io.EOF):
			fmt.Fprintln(s.out)
			return nil
		case errors.TypeOf(err) == errors.ErrorTypeValidation,
			errors.TypeOf(err) == errors.ErrorTypeNotFound,
			errors.TypeOf(err) == errors.ErrorTypeConflict:
			fmt.Fprintf(s.out, "Error: %v\n", err)
		default:
			return err
		}
	}
}

func (s *session) register() error {
	profile, err := promptProfile(s.prompter, s.out, s.careers, profileAddOptions{})
	if err != nil {
		return err
	}
	return registerProfile(s.ctx, s.profiles, profile, s.out, s.logger)
}

func (s *session) list() error {
	names, err := store.Names(s.ctx, s.profiles)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(s.out, "No profiles registered.")
		return nil
	}
	fmt.Fprintln(s.out, "Registered profiles:")
	for _, name := range names {
		fmt.Fprintln(s.out, " -", name)
	}
	return nil
}

func (s *session) analyze() error {
	profile, err := s.askProfile("Profile to analyze: ")
	if err != nil {
		return err
	}

	cfg := getConfigFromContext(s.ctx)
	rep := report.Build(profile, s.ranker.Recommend(profile, cfg.Engine.TopCareers), cfg.Engine.TopGaps)

	outputHandler := newOutputHandler(s.cmd)
	text, err := outputHandler.Render(rep, formatters.FormatText)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out)
	fmt.Fprint(s.out, text)

	save, err := s.prompter.Confirm("Save the report as JSON?")
	if err != nil || !save {
		return err
	}
	location, err := saveReport(s.ctx, cfg, s.logger, outputHandler, rep, formatters.FormatJSON)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Report saved to", location)
	return nil
}

func (s *session) show() error {
	profile, err := s.askProfile("Profile name: ")
	if err != nil {
		return err
	}
	data, err := newOutputHandler(s.cmd).Render(profile, formatters.FormatJSON)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, data)
	return nil
}

func (s *session) askProfile(label string) (types.Profile, error) {
	name, err := s.prompter.AskLine(label)
	if err != nil {
		return types.Profile{}, err
	}
	return store.Find(s.ctx, s.profiles, name)
}
