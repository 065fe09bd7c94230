package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumecraft/internal/errors"
	"resumecraft/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger   *errors.Logger
	maxBytes int64
}

// NewFileProcessor creates a new file processor instance. maxBytes limits
// what ReadBytes accepts; zero disables the limit.
func NewFileProcessor(logger *errors.Logger, maxBytes int64) *FileProcessor {
	if logger == nil {
		logger = errors.Discard()
	}
	return &FileProcessor{logger: logger, maxBytes: maxBytes}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	data, err := fp.ReadBytes(filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBytes reads a whole file, refusing files above the size limit.
// "-" reads standard input.
func (fp *FileProcessor) ReadBytes(filename string) ([]byte, error) {
	if filename == "-" {
		return fp.readLimited(os.Stdin, filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	return fp.readLimited(file, filename)
}

func (fp *FileProcessor) readLimited(r io.Reader, filename string) ([]byte, error) {
	if fp.maxBytes > 0 {
		r = io.LimitReader(r, fp.maxBytes+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	if fp.maxBytes > 0 && int64(len(content)) > fp.maxBytes {
		return nil, errors.NewPayloadError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s is larger than %s", filename, utils.FormatFileSize(fp.maxBytes)), nil)
	}
	return content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, content, 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates and reads multiple payload files
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([][]byte, error) {
	contents := make([][]byte, len(filenames))

	for i, filename := range filenames {
		if filename != "-" {
			if err := utils.ValidateInputFile(filename); err != nil {
				return nil, errors.NewValidationError("INVALID_INPUT_FILE",
					fmt.Sprintf("Invalid file %s", filename), err)
			}

			if !utils.IsPayloadFile(filename) {
				fp.logger.Warn("File may not be a JSON payload", "filename", filename)
			}
		}

		content, err := fp.ReadBytes(filename)
		if err != nil {
			return nil, err // Error already wrapped by ReadBytes
		}
		if !utils.LooksLikeObject(content) {
			fp.logger.Warn("Payload is not a JSON object and renders as the empty resume", "filename", filename)
		}

		contents[i] = content
	}

	return contents, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.EnsureParentDir(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
