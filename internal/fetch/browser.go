// Package fetch - browser.go provides headless browser rendering for the
// listing shell when the upstream serves it as a JavaScript application.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// WithBrowser renders a page in a headless browser and returns the rendered
// HTML. Used as a bootstrap fallback when the plain fetch yields a shell
// without the embedded page payload. Requires Chrome/Chromium on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	log := zap.S().Named("browser")
	log.Debugf("starting headless browser for %s", url)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// The Inertia payload is attached to #app once the bundle runs.
		chromedp.WaitVisible("#app"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debugf("rendered HTML: %d bytes", len(html))
	return html, nil
}
