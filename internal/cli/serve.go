package cli

import (
	"resumecraft/internal/common"
	"resumecraft/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the resume site and JSON API",
		Long: `Start an HTTP server that hosts the site pages, the resume editor and the
JSON API.

Main endpoints:
- GET  /improve_resume{N}/{analysisId}: Open an analysis in template N
- GET  /workspaces/{id}: Edit a resume
- GET  /workspaces/{id}/export: Print or download a resume
- POST /api/workspaces: Open an analysis for editing over the API
- POST /api/jobs/recommendations: Score job listings
- GET  /health: Health check endpoint
- GET  /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled or server
- Use --cert-file and --key-file for TLS certificates`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("tls-mode")
			if err := common.ValidateChoice("tls-mode", mode, []string{"disabled", "server"}); err != nil {
				return err
			}
			strategy, _ := cmd.Flags().GetString("export-strategy")
			return common.ValidateChoice("export-strategy", strategy, exportStrategies)
		},
		RunE: runServe,
	}

	flags := serveCmd.Flags()
	flags.StringP("port", "p", "", "Port to listen on (default from config)")
	flags.String("host", "", "Host to bind to (default from config)")
	flags.String("tls-mode", "", "TLS mode: disabled or server (overrides config)")
	flags.String("cert-file", "", "Server certificate file (PEM, overrides config)")
	flags.String("key-file", "", "Server private key file (PEM, overrides config)")
	flags.String("export-strategy", "", "Export strategy: print or pdf (overrides config)")
	flags.String("templates-dir", "", "Directory of template descriptor overrides (overrides config)")

	// Bind flags to config keys
	bindFlags(serveCmd, map[string]string{
		"server.port":         "port",
		"server.host":         "host",
		"server.tls.mode":     "tls-mode",
		"server.tls.certFile": "cert-file",
		"server.tls.keyFile":  "key-file",
		"export.strategy":     "export-strategy",
		"templates.dir":       "templates-dir",
	})

	_ = serveCmd.RegisterFlagCompletionFunc("tls-mode", completeChoices([]string{"disabled", "server"}))
	_ = serveCmd.RegisterFlagCompletionFunc("export-strategy", completeChoices(exportStrategies))
	_ = serveCmd.MarkFlagDirname("templates-dir")
	return serveCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := runtime(cmd)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cmd.Context(), cfg, server.ServerConfigFrom(cfg, Version), logger)
	if err != nil {
		return err
	}
	return srv.Start(cmd.Context())
}
