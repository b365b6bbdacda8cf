package scraper

import (
	"context"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/mercadodasophia-design/mercadodasophia/pkg/config"
)

// Browser owns the shared headless Chrome process. The process is started
// lazily on first use and reused by every fetch; each fetch opens its own
// tab so no page state is shared across calls.
type Browser struct {
	cfg config.ScraperConfig

	mu       sync.Mutex
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowser returns an unstarted browser handle.
func NewBrowser(cfg config.ScraperConfig) *Browser {
	return &Browser{cfg: cfg}
}

// allocator returns the shared exec allocator context, starting the browser
// process on first call.
func (b *Browser) allocator() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.allocCtx == nil {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", b.cfg.Headless),
			chromedp.NoSandbox,
			chromedp.DisableGPU,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("no-first-run", true),
			chromedp.UserAgent(b.cfg.UserAgent),
		)
		b.allocCtx, b.cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
	return b.allocCtx
}

// NewTab opens a fresh tab on the shared browser. The returned cancel func
// closes the tab and must be called on every exit path.
func (b *Browser) NewTab() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(b.allocator())
}

// Close shuts down the browser process. Safe to call more than once and
// before the browser ever started.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
		b.allocCtx = nil
		b.cancel = nil
	}
}
