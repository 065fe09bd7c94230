package cli

import (
	"context"

	"resumecraft/internal/common"
	"resumecraft/internal/config"
	"resumecraft/internal/document"
	"resumecraft/internal/errors"
	"resumecraft/internal/formatters"
	"resumecraft/internal/templates"

	"github.com/spf13/cobra"
)

type renderOptions struct {
	template string
	output   common.CommandConfig
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	renderCmd := &cobra.Command{
		Use:   "render [payload-file]",
		Short: "Render an improved resume payload",
		Long: `Render the JSON returned by the backend for an analysis (with its
improved_resume object and optional suggestions) through a template.

The payload is normalized exactly as the site does it: keys are renamed,
emphasis is applied and every field is classified into a section. Use "-" to
read the payload from standard input. Output formats are html, text, markdown
and json (the normalized document).`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			// Apply default format if not specified
			if opts.output.OutputFormat == "" {
				opts.output.OutputFormat = cfg.App.DefaultFormat
			}
			// Validate format against supported formats
			return common.ValidateOutputFormat(opts.output.OutputFormat, cfg.App.SupportedFormats)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, opts)
		},
	}

	renderCmd.Flags().StringVarP(&opts.template, "template", "t", "", "Template id (default from config)")
	renderCmd.Flags().StringVarP(&opts.output.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	renderCmd.Flags().StringVarP(&opts.output.OutputFormat, "format", "f", "", "Output format: html, text, markdown or json")

	_ = renderCmd.RegisterFlagCompletionFunc("template", completeTemplates)
	_ = renderCmd.RegisterFlagCompletionFunc("format", completeFormats)
	return renderCmd
}

func runRender(cmd *cobra.Command, args []string, opts *renderOptions) error {
	cfg, logger, err := runtime(cmd)
	if err != nil {
		return err
	}
	desc, err := resolveTemplate(cfg, logger, opts.template)
	if err != nil {
		return err
	}
	_, registry, err := newFormatters()
	if err != nil {
		return err
	}

	fc := common.FileCommand{
		Logger:     logger,
		Formatters: registry,
		Output:     opts.output,
		MaxBytes:   cfg.Server.MaxBodySize,
		Out:        cmd.OutOrStdout(),
	}

	createInput := func(contents [][]byte) ([]byte, error) {
		return contents[0], nil
	}
	operation := func(_ context.Context, payload []byte) (formatters.Resume, error) {
		return formatters.Resume{
			Document:   document.NormalizeJSON(payload, desc.Options()),
			Descriptor: desc,
		}, nil
	}
	logDetails := func(payload []byte, c common.CommandConfig) {
		logger.Info("Rendering resume",
			"template", desc.ID,
			"format", c.OutputFormat,
			"payload_bytes", len(payload))
	}

	return common.RunFileCommand(cmd.Context(), fc, args, createInput, operation, logDetails)
}

// resolveTemplate looks a template up by id, or returns the configured
// default when id is empty.
func resolveTemplate(cfg *config.Config, logger *errors.Logger, id string) (templates.Descriptor, error) {
	registry, err := loadTemplates(cfg, logger)
	if err != nil {
		return templates.Descriptor{}, err
	}
	if id == "" {
		return registry.Default(), nil
	}
	return registry.Get(id)
}
