package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resumecraft/internal/errors"
)

// Strategy names an export implementation.
type Strategy string

const (
	// StrategyPrint produces a print-ready HTML page that opens the print dialog.
	StrategyPrint Strategy = "print"
	// StrategyPDF renders the print page to PDF with headless Chrome.
	StrategyPDF Strategy = "pdf"
)

// PageSize is a paper size in millimetres.
type PageSize struct {
	WidthMM  float64
	HeightMM float64
}

// A4 is the only page size the templates are laid out for.
var A4 = PageSize{WidthMM: 210, HeightMM: 297}

// Inches converts the page size for APIs that take inches.
func (p PageSize) Inches() (width, height float64) {
	const mmPerInch = 25.4
	return round2(p.WidthMM / mmPerInch), round2(p.HeightMM / mmPerInch)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// Input is a rendered document ready for export.
type Input struct {
	// Name is the base file name of the artifact, without extension.
	Name     string
	HTML     []byte
	PrintCSS string
	PageSize PageSize
}

// Artifact is the result of an export.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Location    string `json:"location,omitempty"`
	Data        []byte `json:"-"`
}

// Exporter turns rendered HTML into a printable artifact.
type Exporter interface {
	Export(ctx context.Context, in Input) (*Artifact, error)
	Strategy() Strategy
}

// ErrTargetNotFound is returned when the input has no #resume-root element.
var ErrTargetNotFound = errors.NewNotFoundError(errors.ErrCodeExportTarget, "resume root element not found", nil)

// Options configures New.
type Options struct {
	ChromePath string
	Timeout    time.Duration
	Logger     *errors.Logger
}

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case StrategyPrint, StrategyPDF:
		return s, nil
	case "":
		return StrategyPrint, nil
	}
	return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unknown export strategy %q (want print or pdf)", name), nil)
}

// New returns the exporter for strategy.
func New(strategy string, opts Options) (Exporter, error) {
	s, err := ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = errors.Discard()
	}
	switch s {
	case StrategyPDF:
		return NewPDFExporter(opts.ChromePath, opts.Timeout, opts.Logger), nil
	default:
		return NewPrintExporter(opts.Logger), nil
	}
}

func artifactName(name, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "resume"
	}
	return name + ext
}
