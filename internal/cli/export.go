package cli

import (
	"bytes"
	"context"
	"path/filepath"

	"resumecraft/internal/common"
	"resumecraft/internal/document"
	"resumecraft/internal/export"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"
	"resumecraft/internal/utils"

	"github.com/spf13/cobra"
)

var (
	exportStrategies = []string{string(export.StrategyPrint), string(export.StrategyPDF)}
	exportSinks      = []string{"none", "local", "minio"}
)

type exportOptions struct {
	template string
	name     string
	file     string
	output   common.CommandConfig
}

func newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	exportCmd := &cobra.Command{
		Use:   "export [payload-file]",
		Short: "Export an improved resume payload as a printable file",
		Long: `Render a payload like "render" does and export the printable view.

The print strategy produces a standalone HTML page that opens the browser
print dialog; the pdf strategy prints the page with headless Chrome. The
artifact is handed to the configured sink (none, local or minio) and written
to --file, or to the artifact name in the current directory when the sink
keeps no copy of its own.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output.OutputFormat == "" {
				opts.output.OutputFormat = "text"
			}
			if err := common.ValidateOutputFormat(opts.output.OutputFormat, []string{"json", "text"}); err != nil {
				return err
			}
			strategy, _ := cmd.Flags().GetString("strategy")
			if err := common.ValidateChoice("strategy", strategy, exportStrategies); err != nil {
				return err
			}
			sink, _ := cmd.Flags().GetString("sink")
			return common.ValidateChoice("sink", sink, exportSinks)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, opts)
		},
	}

	flags := exportCmd.Flags()
	flags.StringVarP(&opts.template, "template", "t", "", "Template id (default from config)")
	flags.StringVarP(&opts.name, "name", "n", "resume", "Artifact base name, without extension")
	flags.StringVar(&opts.file, "file", "", "Where to write the artifact")
	flags.StringVarP(&opts.output.OutputFormat, "format", "f", "", "Summary format: text or json")
	flags.String("strategy", "", "Export strategy: print or pdf (overrides config)")
	flags.String("sink", "", "Artifact sink: none, local or minio (overrides config)")
	flags.String("chrome-path", "", "Chrome binary for the pdf strategy (overrides config)")
	flags.String("output-dir", "", "Directory for the local sink (overrides config)")

	bindFlags(exportCmd, map[string]string{
		"export.strategy":   "strategy",
		"export.sink":       "sink",
		"export.chromePath": "chrome-path",
		"export.outputDir":  "output-dir",
	})

	_ = exportCmd.RegisterFlagCompletionFunc("template", completeTemplates)
	_ = exportCmd.RegisterFlagCompletionFunc("strategy", completeChoices(exportStrategies))
	_ = exportCmd.RegisterFlagCompletionFunc("sink", completeChoices(exportSinks))
	_ = exportCmd.RegisterFlagCompletionFunc("format", completeChoices([]string{"json", "text"}))
	_ = exportCmd.MarkFlagDirname("output-dir")
	return exportCmd
}

func runExport(cmd *cobra.Command, args []string, opts *exportOptions) error {
	ctx := cmd.Context()
	cfg, logger, err := runtime(cmd)
	if err != nil {
		return err
	}
	desc, err := resolveTemplate(cfg, logger, opts.template)
	if err != nil {
		return err
	}
	renderer, registry, err := newFormatters()
	if err != nil {
		return err
	}
	exporter, err := export.New(cfg.Export.Strategy, export.Options{
		ChromePath: cfg.Export.ChromePath,
		Timeout:    cfg.Export.Timeout,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	sink, err := export.NewSink(ctx, cfg, logger)
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
	files := common.NewFileProcessor(logger, 0)

	createInput := func(contents [][]byte) (*document.Document, error) {
		return document.NormalizeJSON(contents[0], desc.Options()), nil
	}
	operation := func(ctx context.Context, doc *document.Document) (types.ExportResult, error) {
		var buf bytes.Buffer
		if err := renderer.Render(&buf, doc, desc, templates.ModeView); err != nil {
			return types.ExportResult{}, err
		}
		artifact, err := exporter.Export(ctx, export.Input{
			Name:     opts.name,
			HTML:     buf.Bytes(),
			PrintCSS: desc.PrintCSS,
			PageSize: export.A4,
		})
		if err != nil {
			return types.ExportResult{}, err
		}
		location, err := sink.Store(ctx, artifact)
		if err != nil {
			return types.ExportResult{}, err
		}

		target := opts.file
		if target == "" && location == "" {
			target = artifact.Name
		}
		if target != "" {
			if err := files.ValidateOutputFile(target); err != nil {
				return types.ExportResult{}, err
			}
			if err := files.WriteFile(target, artifact.Data); err != nil {
				return types.ExportResult{}, err
			}
			target = filepath.Clean(target)
		}

		logger.Info("Resume exported",
			"strategy", string(exporter.Strategy()),
			"template", desc.ID,
			"size", utils.FormatFileSize(int64(artifact.Size)),
			"location", location)
		return types.ExportResult{
			Name:        artifact.Name,
			ContentType: artifact.ContentType,
			Size:        artifact.Size,
			Location:    location,
			Output:      target,
		}, nil
	}
	logDetails := func(doc *document.Document, _ common.CommandConfig) {
		logger.Debug("Exporting resume",
			"template", desc.ID,
			"strategy", string(exporter.Strategy()),
			"pages", len(doc.Pages))
	}

	return common.RunFileCommand(ctx, fc, args, createInput, operation, logDetails)
}
