package report

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/gtmscore/gtmscore/pkg/models"
)

// Renderer converts report HTML to PDF through a headless browser. Rendering
// is resource-heavy, so concurrent renders are capped by a semaphore and
// each render runs under a timeout. Failures surface to the caller without
// retry; the user retries the download manually.
type Renderer struct {
	config Config
	sem    chan struct{}
}

// Config represents PDF renderer configuration.
type Config struct {
	MaxConcurrent int           `yaml:"max_concurrent" json:"max_concurrent"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns default renderer configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 2,
		Timeout:       30 * time.Second,
	}
}

// NewRenderer creates a PDF renderer.
func NewRenderer(cfg Config) *Renderer {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Renderer{
		config: cfg,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Render produces the PDF report for a submission.
func (r *Renderer) Render(ctx context.Context, sub models.Submission) ([]byte, error) {
	html, err := RenderHTML(sub)
	if err != nil {
		return nil, err
	}

	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("render queue wait canceled: %w", ctx.Err())
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF for submission %s: %w", sub.ID, err)
	}
	return pdf, nil
}
