package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	nonPriceChars = regexp.MustCompile(`[^\d.,]`)
	nonDigits     = regexp.MustCompile(`[^\d]`)
)

// parsePrice extracts a numeric price from display text like "R$ 1.234,56"
// or "US $12.34". Returns 0 when no number is present.
func parsePrice(text string) float64 {
	cleaned := nonPriceChars.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	// Keep only the last dot as the decimal separator.
	if parts := strings.Split(cleaned, "."); len(parts) > 2 {
		cleaned = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// parseCount extracts an integer from display text like "1.532 reviews".
func parseCount(text string) *int {
	digits := nonDigits.ReplaceAllString(text, "")
	if digits == "" {
		return nil
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &value
}

// parseSearchResults extracts listing summaries from a rendered search page.
// Items without a name or price are skipped.
func parseSearchResults(html string, limit int) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchNetwork, err)
	}

	var listings []Listing
	doc.Find(".list-item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		if len(listings) >= limit {
			return false
		}

		name := strings.TrimSpace(item.Find(".item-title").Text())
		priceText := strings.TrimSpace(item.Find(".price-current").Text())
		if name == "" || priceText == "" {
			return true
		}

		listing := Listing{
			Name:  name,
			Price: parsePrice(priceText),
		}

		if src, ok := item.Find(".item-image img").Attr("src"); ok {
			listing.Image = src
		}
		if ratingText := strings.TrimSpace(item.Find(".rating-value").Text()); ratingText != "" {
			if rating, err := strconv.ParseFloat(ratingText, 64); err == nil {
				listing.Rating = &rating
			}
		}
		listing.Reviews = parseCount(item.Find(".rating-reviews").Text())
		listing.Sales = parseCount(item.Find(".sold-count").Text())
		if href, ok := item.Find("a").Attr("href"); ok {
			listing.URL = href
			listing.ExternalID = ExtractProductID(href)
		}

		listings = append(listings, listing)
		return true
	})

	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: no listings on search page", ErrExtractionEmpty)
	}
	return listings, nil
}

// parseProductPage extracts the raw import source from a rendered product
// page. Name and price are required.
func parseProductPage(html, pageURL string) (*ImportSource, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchNetwork, err)
	}

	name := strings.TrimSpace(doc.Find(".product-title").Text())
	priceText := strings.TrimSpace(doc.Find(".product-price-current").Text())
	if name == "" || priceText == "" {
		return nil, fmt.Errorf("%w: name or price not found at %s", ErrExtractionEmpty, pageURL)
	}

	source := &ImportSource{
		Name:           name,
		Price:          parsePrice(priceText),
		URL:            pageURL,
		ExternalID:     ExtractProductID(pageURL),
		Specifications: make(map[string]string),
	}

	if originalText := strings.TrimSpace(doc.Find(".product-price-original").Text()); originalText != "" {
		original := parsePrice(originalText)
		source.OriginalPrice = &original
	}

	description := doc.Find(".product-description")
	source.Description = strings.TrimSpace(description.Text())
	if descHTML, err := description.Html(); err == nil {
		source.DescriptionHTML = strings.TrimSpace(descHTML)
	}

	doc.Find(".product-image img").Each(func(i int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && src != "" {
			source.Images = append(source.Images, src)
		}
	})

	doc.Find(".product-specification-item").Each(func(i int, spec *goquery.Selection) {
		key := strings.TrimSpace(spec.Find(".spec-key").Text())
		value := strings.TrimSpace(spec.Find(".spec-value").Text())
		if key != "" && value != "" {
			source.Specifications[key] = value
		}
	})

	if ratingText := strings.TrimSpace(doc.Find(".product-rating-value").Text()); ratingText != "" {
		if rating, err := strconv.ParseFloat(ratingText, 64); err == nil {
			source.Rating = &rating
		}
	}
	source.ReviewsCount = parseCount(doc.Find(".product-reviews-count").Text())
	source.SalesCount = parseCount(doc.Find(".product-sold-count").Text())

	return source, nil
}
