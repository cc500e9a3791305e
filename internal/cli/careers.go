package cli

import (
	"careermatch/internal/common"

	"github.com/spf13/cobra"
)

func newCareersCmd() *cobra.Command {
	var cmdConfig common.CommandConfig

	cmd := &cobra.Command{
		Use:   "careers",
		Short: "List the career catalog",
		Long: `List every career in the catalog with its description and the skill
levels it requires. The catalog comes from catalog.file when set.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveOutputFormat(cmd, &cmdConfig)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfigFromContext(cmd.Context())
			logger := getLoggerFromContext(cmd.Context())

			careers, err := openCatalog(cfg, logger)
			if err != nil {
				return err
			}
			return newOutputHandler(cmd).HandleOutput(careers.Careers(), cmdConfig)
		},
	}
	addOutputFlags(cmd, &cmdConfig)
	return cmd
}
