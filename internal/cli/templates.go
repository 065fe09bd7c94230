package cli

import (
	"resumecraft/internal/common"
	"resumecraft/internal/types"

	"github.com/spf13/cobra"
)

func newTemplatesCmd() *cobra.Command {
	var output common.CommandConfig

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "List the resume templates",
		Long: `List the built-in template variants together with any descriptor
overrides from the configured templates directory.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if output.OutputFormat == "" {
				output.OutputFormat = "text"
			}
			return common.ValidateOutputFormat(output.OutputFormat, []string{"json", "text"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := runtime(cmd)
			if err != nil {
				return err
			}
			registry, err := loadTemplates(cfg, logger)
			if err != nil {
				return err
			}
			_, formatters, err := newFormatters()
			if err != nil {
				return err
			}
			return common.NewOutputHandler(formatters, cmd.OutOrStdout(), logger).
				HandleOutput(types.SummarizeTemplates(registry.List()), output)
		},
	}

	templatesCmd.Flags().StringVarP(&output.OutputFormat, "format", "f", "", "Output format: text or json")
	templatesCmd.Flags().StringVarP(&output.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	_ = templatesCmd.RegisterFlagCompletionFunc("format", completeChoices([]string{"json", "text"}))
	return templatesCmd
}
