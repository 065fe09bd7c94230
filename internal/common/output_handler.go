package common

import (
	"fmt"
	"io"
	"os"

	"resumecraft/internal/errors"
	"resumecraft/internal/formatters"
	"resumecraft/internal/utils"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler handles formatting and writing output
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	out           io.Writer
	logger        *errors.Logger
}

// NewOutputHandler creates a new output handler. Output without a file goes
// to out, or standard output when out is nil.
func NewOutputHandler(registry *formatters.FormatterRegistry, out io.Writer, logger *errors.Logger) *OutputHandler {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = errors.Discard()
	}
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger, 0),
		registry:      registry,
		out:           out,
		logger:        logger,
	}
}

// HandleOutput formats data and writes it to the specified output
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	// Validate output file
	if err := oh.fileProcessor.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	// Format output using the registry
	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	return oh.WriteOutput([]byte(output), config)
}

// WriteOutput writes already formatted bytes to the configured destination.
func (oh *OutputHandler) WriteOutput(data []byte, config CommandConfig) error {
	if config.OutputFile == "" {
		if _, err := oh.out.Write(data); err != nil {
			return errors.NewIOError("OUTPUT_WRITE_FAILED", "Cannot write output", err)
		}
		return nil
	}

	if err := oh.fileProcessor.WriteFile(config.OutputFile, data); err != nil {
		return err // Error already wrapped by WriteFile
	}

	oh.logger.Info("Output written successfully",
		"file", config.OutputFile,
		"format", config.OutputFormat,
		"size", utils.FormatFileSize(int64(len(data))))
	return nil
}

// GetSupportedFormats returns all supported output formats
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
