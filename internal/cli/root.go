package cli

import (
	"context"
	"fmt"
	"strings"

	"resumecraft/internal/common"
	"resumecraft/internal/config"
	"resumecraft/internal/errors"
	"resumecraft/internal/formatters"
	"resumecraft/internal/templates"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

// skipConfigAnnotation marks commands that run without loading configuration.
const skipConfigAnnotation = "resumecraft/skip-config"

// bindingsAnnotation prefixes command annotations that map config keys to
// flag names.
const bindingsAnnotation = "resumecraft/bind:"

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "resumecraft",
		Short: "Render, edit and export AI-improved resumes",
		Long: `Resumecraft turns the analysis results of a resume improvement backend into
editable, printable resumes. It serves the site and its JSON API, and renders,
exports and scores payloads offline.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadRuntime,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: resumecraft.yaml in /etc/resumecraft, $HOME/.resumecraft or .)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	bindFlags(rootCmd, map[string]string{"app.logLevel": "log-level"})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", completeChoices([]string{"debug", "info", "warn", "error"}))

	rootCmd.AddCommand(
		newServeCmd(),
		newRenderCmd(),
		newExportCmd(),
		newScoreCmd(),
		newJobsCmd(),
		newTemplatesCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line with ctx as the root context.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// WithRuntime attaches config and logger to ctx. Commands run with such a
// context skip configuration loading.
func WithRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// bindFlags records which config keys the flags of cmd override.
func bindFlags(cmd *cobra.Command, bindings map[string]string) {
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	for key, flag := range bindings {
		cmd.Annotations[bindingsAnnotation+key] = flag
	}
}

// flagBindings collects the bindings of cmd and its parents.
func flagBindings(cmd *cobra.Command) map[string]string {
	bindings := make(map[string]string)
	for c := cmd; c != nil; c = c.Parent() {
		for k, v := range c.Annotations {
			if key, ok := strings.CutPrefix(k, bindingsAnnotation); ok {
				if _, set := bindings[key]; !set {
					bindings[key] = v
				}
			}
		}
	}
	return bindings
}

func loadRuntime(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Value(configKey).(*config.Config); ok {
		return nil
	}
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		return nil
	}

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfigWithFlags(path, cmd.Flags(), flagBindings(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	logger.Debug("Starting resumecraft",
		"version", Version,
		"command", cmd.Name(),
		"log_level", cfg.App.LogLevel)

	cmd.SetContext(WithRuntime(ctx, cfg, logger))
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg, nil
	}
	return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "configuration not loaded", nil)
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger, nil
	}
	return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "logger not initialized", nil)
}

// runtime returns the config and logger every command needs.
func runtime(cmd *cobra.Command) (*config.Config, *errors.Logger, error) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadTemplates builds the descriptor registry, including overrides from the
// configured directory.
func loadTemplates(cfg *config.Config, logger *errors.Logger) (*templates.Registry, error) {
	registry := templates.NewRegistry(cfg.Templates.Default, logger)
	if cfg.Templates.Dir != "" {
		if err := registry.LoadDir(cfg.Templates.Dir); err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}
	}
	return registry, nil
}

func newFormatters() (*templates.Renderer, *formatters.FormatterRegistry, error) {
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, nil, err
	}
	return renderer, formatters.NewFormatterRegistry(renderer), nil
}

// completeChoices serves a fixed set of values to shell completion.
func completeChoices(allowed []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.CompleteChoices(allowed, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// completionConfig is the loaded config, or the defaults while the shell
// completes flags before any configuration is read.
func completionConfig(cmd *cobra.Command) *config.Config {
	if cfg, err := getConfigFromContext(cmd.Context()); err == nil {
		return cfg
	}
	cfg, err := config.Default()
	if err != nil {
		return &config.Config{}
	}
	return cfg
}

func completeFormats(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := common.GetSupportedFormats(completionConfig(cmd).App.SupportedFormats)
	return common.CompleteChoices(formats, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeTemplates(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, d := range templates.Builtins() {
		if strings.HasPrefix(d.ID, toComplete) {
			out = append(out, d.ID+"\t"+d.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
