package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumecraft/internal/errors"
	"resumecraft/internal/formatters"
	"resumecraft/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormatters(t *testing.T) *formatters.FormatterRegistry {
	t.Helper()
	r, err := templates.NewRenderer()
	require.NoError(t, err)
	return formatters.NewFormatterRegistry(r)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFileProcessorReadBytes(t *testing.T) {
	fp := NewFileProcessor(nil, 8)

	data, err := fp.ReadBytes(writeTemp(t, "small.json", `{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	_, err = fp.ReadBytes(writeTemp(t, "big.json", `{"a":1234567}`))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePayload))

	_, err = fp.ReadBytes(filepath.Join(t.TempDir(), "missing.json"))
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFileNotFound, appErr.Code)
}

func TestValidateAndReadFilesRejectsDirectory(t *testing.T) {
	_, err := NewFileProcessor(nil, 0).ValidateAndReadFiles(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestOutputHandlerWritesToWriterAndFile(t *testing.T) {
	var buf bytes.Buffer
	oh := NewOutputHandler(newFormatters(t), &buf, nil)

	require.NoError(t, oh.HandleOutput(map[string]int{"score": 80}, CommandConfig{OutputFormat: "json"}))
	assert.Contains(t, buf.String(), `"score": 80`)

	target := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, oh.HandleOutput([]string{"a"}, CommandConfig{OutputFile: target, OutputFormat: "json"}))
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"a"`)

	err = oh.HandleOutput(map[string]int{}, CommandConfig{OutputFormat: "yaml"})
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidFormat, appErr.Code)
}

func TestRunFileCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := FileCommand{
		Formatters: newFormatters(t),
		Output:     CommandConfig{OutputFormat: "json"},
		Out:        &buf,
	}
	path := writeTemp(t, "payload.json", `{"improved_resume":{}}`)

	var logged bool
	err := RunFileCommand(context.Background(), cmd, []string{path},
		func(contents [][]byte) (int, error) { return len(contents[0]), nil },
		func(_ context.Context, n int) (map[string]int, error) { return map[string]int{"bytes": n}, nil },
		func(int, CommandConfig) { logged = true },
	)
	require.NoError(t, err)
	assert.True(t, logged)
	assert.Equal(t, `{ "bytes": 22 }`, strings.Join(strings.Fields(buf.String()), " "))
}
