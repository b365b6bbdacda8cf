package importer

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/mercadodasophia-design/mercadodasophia/internal/model"
	"github.com/mercadodasophia-design/mercadodasophia/internal/scraper"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/config"
)

const (
	maxNameLength = 255

	fulfillmentMode     = "own_warehouse"
	inboundLeadTimeDays = 12
)

var (
	nameSpecialChars = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRuns   = regexp.MustCompile(`\s+`)
	htmlTags         = regexp.MustCompile(`<[^>]*>`)
	htmlEntities     = regexp.MustCompile(`&[a-zA-Z]+;`)
)

// ImportRecord is a normalized, store-ready product. It is owned by the
// orchestrator until handed to the catalog store.
type ImportRecord struct {
	Name            string
	Description     string
	DescriptionHTML string
	Price           float64
	OriginalPrice   *float64
	CostPrice       float64
	ExternalID      string
	ExternalURL     string
	Rating          *float64
	ReviewsCount    *int
	SalesCount      *int
	Images          []string
	Specifications  map[string]any
	Status          string
	StockQuantity   int
	CategoryID      *uuid.UUID
}

// Normalizer turns raw scrape results into import records. It is a pure
// transform: no network or store access, deterministic for a given source.
type Normalizer struct {
	pricing config.PricingConfig
}

// NewNormalizer builds a normalizer with the given pricing constants.
func NewNormalizer(pricing config.PricingConfig) *Normalizer {
	return &Normalizer{pricing: pricing}
}

// Normalize cleans a scraped product and derives localized pricing.
func (n *Normalizer) Normalize(src *scraper.ImportSource) (*ImportRecord, error) {
	externalID := src.ExternalID
	if externalID == "" {
		externalID = scraper.ExtractProductID(src.URL)
	}
	if externalID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingExternalID, src.URL)
	}

	record := &ImportRecord{
		Name:            CleanName(src.Name),
		Description:     CleanDescription(src.Description),
		DescriptionHTML: src.DescriptionHTML,
		Price:           n.LocalPrice(src.Price),
		CostPrice:       n.CostPrice(src.Price),
		ExternalID:      externalID,
		ExternalURL:     src.URL,
		Rating:          src.Rating,
		ReviewsCount:    src.ReviewsCount,
		SalesCount:      src.SalesCount,
		Images:          src.Images,
		Specifications:  mergeSpecifications(src),
		Status:          model.StatusPending,
		StockQuantity:   0,
	}

	if src.OriginalPrice != nil {
		original := n.LocalPrice(*src.OriginalPrice)
		record.OriginalPrice = &original
	}

	return record, nil
}

// LocalPrice converts a source price into the local sale price, applying the
// exchange rate and markup, rounded to 2 decimal places.
func (n *Normalizer) LocalPrice(sourcePrice float64) float64 {
	return round2(sourcePrice * n.pricing.ExchangeRate * n.pricing.Markup)
}

// CostPrice derives the landed cost: converted price plus flat shipping,
// taxed as a whole. Shipping is added before the tax multiplication.
func (n *Normalizer) CostPrice(sourcePrice float64) float64 {
	return round2((sourcePrice*n.pricing.ExchangeRate + n.pricing.FlatShipping) * (1 + n.pricing.TaxRate))
}

// CleanName strips characters outside word, space and hyphen classes,
// collapses whitespace runs and truncates to 255 characters. Idempotent.
func CleanName(name string) string {
	cleaned := nameSpecialChars.ReplaceAllString(name, "")
	cleaned = whitespaceRuns.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if runes := []rune(cleaned); len(runes) > maxNameLength {
		cleaned = string(runes[:maxNameLength])
	}
	return cleaned
}

// CleanDescription strips HTML tags and entities from a description.
func CleanDescription(description string) string {
	cleaned := htmlTags.ReplaceAllString(description, "")
	cleaned = htmlEntities.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// mergeSpecifications combines the scraped specification table with the raw
// HTML snapshot and the fulfillment descriptor.
func mergeSpecifications(src *scraper.ImportSource) map[string]any {
	specs := make(map[string]any, len(src.Specifications)+2)
	for k, v := range src.Specifications {
		specs[k] = v
	}
	specs["raw_description_html"] = src.DescriptionHTML
	specs["fulfillment"] = map[string]any{
		"mode":                   fulfillmentMode,
		"inbound_lead_time_days": inboundLeadTimeDays,
	}
	return specs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
