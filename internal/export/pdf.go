package export

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"resumecraft/internal/errors"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultPDFTimeout bounds one headless render.
const DefaultPDFTimeout = 60 * time.Second

// PDFExporter renders the print document to PDF with headless Chrome.
type PDFExporter struct {
	chromePath string
	timeout    time.Duration
	logger     *errors.Logger
}

// NewPDFExporter creates a PDF exporter. An empty chromePath uses the
// CHROME_PATH environment variable or chromedp's lookup.
func NewPDFExporter(chromePath string, timeout time.Duration, logger *errors.Logger) *PDFExporter {
	if chromePath == "" {
		chromePath = os.Getenv("CHROME_PATH")
	}
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}
	if logger == nil {
		logger = errors.Discard()
	}
	return &PDFExporter{chromePath: chromePath, timeout: timeout, logger: logger}
}

func (e *PDFExporter) Strategy() Strategy { return StrategyPDF }

func (e *PDFExporter) Export(ctx context.Context, in Input) (*Artifact, error) {
	doc, err := PrintDocument(in, false)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "resumecraft-export-")
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeExportFailed, "failed to create export work directory", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.LogError(err, "Failed to remove export work directory", "directory", tmpDir)
		}
	}()

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, doc, 0o600); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeExportFailed, "failed to write print document", err)
	}

	size := in.PageSize
	if size.WidthMM == 0 || size.HeightMM == 0 {
		size = A4
	}
	width, height := size.Inches()

	pdf, err := e.render(ctx, "file://"+htmlPath, width, height)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeExportFailed, "headless PDF render failed", err).
			WithContext("name", in.Name)
	}

	e.logger.Info("PDF exported", "name", in.Name, "bytes", len(pdf))
	return &Artifact{
		Name:        artifactName(in.Name, ".pdf"),
		ContentType: "application/pdf",
		Size:        len(pdf),
		Data:        pdf,
	}, nil
}

func (e *PDFExporter) render(ctx context.Context, url string, width, height float64) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if e.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(e.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, e.timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("#"+containerID, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	return pdf, err
}
