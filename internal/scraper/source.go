package scraper

import "regexp"

// productIDPattern matches the numeric product id segment of a marketplace
// product URL, e.g. https://www.aliexpress.com/item/1005001234567890.html.
var productIDPattern = regexp.MustCompile(`item/(\d+)\.html`)

// Listing is a lightweight search result summary.
type Listing struct {
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	Image      string   `json:"image,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	Reviews    *int     `json:"reviews,omitempty"`
	Sales      *int     `json:"sales,omitempty"`
	URL        string   `json:"url"`
	ExternalID string   `json:"external_id,omitempty"`
}

// ImportSource is the raw result of scraping a product page. It is produced
// once per fetch and discarded after normalization.
type ImportSource struct {
	Name            string            `json:"name"`
	Price           float64           `json:"price"`
	OriginalPrice   *float64          `json:"original_price,omitempty"`
	Description     string            `json:"description"`
	DescriptionHTML string            `json:"description_html"`
	Images          []string          `json:"images"`
	Specifications  map[string]string `json:"specifications"`
	URL             string            `json:"url"`
	ExternalID      string            `json:"external_id,omitempty"`
	Rating          *float64          `json:"rating,omitempty"`
	ReviewsCount    *int              `json:"reviews_count,omitempty"`
	SalesCount      *int              `json:"sales_count,omitempty"`
}

// ExtractProductID parses the marketplace product id from a product URL.
// Returns the empty string when the URL does not contain one.
func ExtractProductID(url string) string {
	m := productIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
