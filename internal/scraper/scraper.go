package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/mercadodasophia-design/mercadodasophia/pkg/config"
	"github.com/mercadodasophia-design/mercadodasophia/prometheus"
)

// Scrape-stage failures. Handlers surface these as 500s with a message.
var (
	// ErrFetchTimeout signals the page never reached its ready state within
	// the configured deadline.
	ErrFetchTimeout = errors.New("marketplace page load timed out")
	// ErrFetchNetwork signals navigation itself failed.
	ErrFetchNetwork = errors.New("marketplace navigation failed")
	// ErrExtractionEmpty signals the rendered page was missing required
	// fields (name, price).
	ErrExtractionEmpty = errors.New("required product fields missing from page")
)

const (
	searchReadySelector  = ".list-item"
	productReadySelector = ".product-title"
)

// Service fetches marketplace pages through a shared headless browser and
// extracts structured fields from the rendered HTML.
type Service struct {
	browser *Browser
	cfg     config.ScraperConfig
	log     *zap.Logger
}

// NewService builds a scraper service around a browser handle.
func NewService(browser *Browser, cfg config.ScraperConfig, log *zap.Logger) *Service {
	return &Service{browser: browser, cfg: cfg, log: log}
}

// SearchProducts loads the marketplace search page for query and returns up
// to limit listing summaries.
func (s *Service) SearchProducts(ctx context.Context, query string, limit int) ([]Listing, error) {
	defer prometheus.TrackScrape("search")(time.Now())

	searchURL := fmt.Sprintf("%s/wholesale?SearchText=%s", s.cfg.BaseURL, url.QueryEscape(query))
	s.log.Info("Searching marketplace products",
		zap.String("query", query),
		zap.Int("limit", limit))

	html, err := s.fetchRenderedHTML(ctx, searchURL, searchReadySelector)
	if err != nil {
		prometheus.RecordScrapeError("search", reason(err))
		return nil, err
	}

	listings, err := parseSearchResults(html, limit)
	if err != nil {
		prometheus.RecordScrapeError("search", reason(err))
		return nil, err
	}

	s.log.Info("Marketplace search finished",
		zap.String("query", query),
		zap.Int("count", len(listings)))
	return listings, nil
}

// FetchProductPage loads a single product page and extracts its raw fields.
func (s *Service) FetchProductPage(ctx context.Context, pageURL string) (*ImportSource, error) {
	defer prometheus.TrackScrape("product")(time.Now())

	s.log.Info("Fetching marketplace product page", zap.String("url", pageURL))

	html, err := s.fetchRenderedHTML(ctx, pageURL, productReadySelector)
	if err != nil {
		prometheus.RecordScrapeError("product", reason(err))
		return nil, err
	}

	source, err := parseProductPage(html, pageURL)
	if err != nil {
		prometheus.RecordScrapeError("product", reason(err))
		return nil, err
	}

	s.log.Info("Marketplace product page fetched",
		zap.String("url", pageURL),
		zap.String("external_id", source.ExternalID))
	return source, nil
}

// fetchRenderedHTML navigates a fresh tab to pageURL, waits for readySelector
// to become visible, and returns the rendered document. The tab is closed on
// every exit path. Navigation is bounded by the configured navigation
// timeout, the ready wait by the (shorter) ready timeout.
func (s *Service) fetchRenderedHTML(ctx context.Context, pageURL, readySelector string) (string, error) {
	tabCtx, closeTab := s.browser.NewTab()
	defer closeTab()

	navCtx, cancelNav := context.WithTimeout(tabCtx, s.cfg.NavigationTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(pageURL)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrFetchTimeout, pageURL)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrFetchNetwork, pageURL, err)
	}

	readyCtx, cancelReady := context.WithTimeout(tabCtx, s.cfg.ReadyTimeout)
	defer cancelReady()
	var html string
	err := chromedp.Run(readyCtx,
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s never became ready", ErrFetchTimeout, readySelector)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrFetchNetwork, pageURL, err)
	}

	return html, nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrFetchTimeout):
		return "timeout"
	case errors.Is(err, ErrExtractionEmpty):
		return "extraction_empty"
	default:
		return "network"
	}
}
