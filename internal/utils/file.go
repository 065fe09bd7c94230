package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateInputFile checks that filename names a non-empty regular file.
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("file does not exist: %s", filename)
	case err != nil:
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	case info.IsDir():
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	case !info.Mode().IsRegular():
		return fmt.Errorf("not a regular file: %s", filename)
	case info.Size() == 0:
		return fmt.Errorf("file is empty: %s", filename)
	}
	return nil
}

// EnsureParentDir creates the directory an output file will be written to.
// An empty filename means standard output and needs nothing.
func EnsureParentDir(filename string) error {
	if filename == "" {
		return nil
	}
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// IsPayloadFile reports whether filename has a .json extension, ignoring case.
func IsPayloadFile(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}

// LooksLikeObject reports whether data starts with a JSON object after
// leading whitespace.
func LooksLikeObject(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatFileSize renders a byte count with binary units, e.g. "1.5 MB".
func FormatFileSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}
