package common

import (
	"context"
	"fmt"
	"io"

	"resumecraft/internal/errors"
	"resumecraft/internal/formatters"
)

// CreateInputFunc defines how to build the operation input from file contents.
type CreateInputFunc[Input any] func(contents [][]byte) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc computes a command's result from its input.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// FileCommand carries what every file-based command needs.
type FileCommand struct {
	Logger     *errors.Logger
	Formatters *formatters.FormatterRegistry
	Output     CommandConfig
	MaxBytes   int64
	Out        io.Writer // nil writes to standard output
}

// RunFileCommand encapsulates the common logic for file-based CLI commands:
// read the argument files, build the input, run the operation and format
// the result.
func RunFileCommand[Input, Output any](
	ctx context.Context,
	cmd FileCommand,
	args []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(cmd.Logger, cmd.MaxBytes)
	outputHandler := NewOutputHandler(cmd.Formatters, cmd.Out, cmd.Logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmd.Output)
	}

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmd.Output)
}
