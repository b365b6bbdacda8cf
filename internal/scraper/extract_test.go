package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const searchItemTemplate = `
<div class="list-item">
  <a href="https://www.aliexpress.com/item/%d.html">
    <div class="item-image"><img src="https://img.example/%d.jpg"/></div>
    <div class="item-title">Widget %d</div>
    <div class="price-current">US $%d.99</div>
    <div class="rating-value">4.5</div>
    <div class="rating-reviews">1,532 reviews</div>
    <div class="sold-count">2.000 sold</div>
  </a>
</div>`

func searchPage(items int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= items; i++ {
		b.WriteString(fmt.Sprintf(searchItemTemplate, 1000+i, i, i, i))
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestParseSearchResults(t *testing.T) {
	listings, err := parseSearchResults(searchPage(3), 20)
	assert.NoError(t, err)
	assert.Len(t, listings, 3)

	first := listings[0]
	assert.Equal(t, "Widget 1", first.Name)
	assert.Equal(t, 1.99, first.Price)
	assert.Equal(t, "https://img.example/1.jpg", first.Image)
	assert.Equal(t, "https://www.aliexpress.com/item/1001.html", first.URL)
	assert.Equal(t, "1001", first.ExternalID)
	if assert.NotNil(t, first.Rating) {
		assert.Equal(t, 4.5, *first.Rating)
	}
	if assert.NotNil(t, first.Reviews) {
		assert.Equal(t, 1532, *first.Reviews)
	}
	if assert.NotNil(t, first.Sales) {
		assert.Equal(t, 2000, *first.Sales)
	}
}

func TestParseSearchResultsHonorsLimit(t *testing.T) {
	listings, err := parseSearchResults(searchPage(30), 5)
	assert.NoError(t, err)
	assert.Len(t, listings, 5)
}

func TestParseSearchResultsSkipsIncompleteItems(t *testing.T) {
	html := `<html><body>
<div class="list-item"><div class="item-title">No price here</div></div>
<div class="list-item">
  <a href="https://www.aliexpress.com/item/77.html"></a>
  <div class="item-title">Priced</div>
  <div class="price-current">$7.00</div>
</div>
</body></html>`
	listings, err := parseSearchResults(html, 20)
	assert.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.Equal(t, "Priced", listings[0].Name)
}

func TestParseSearchResultsEmptyPage(t *testing.T) {
	_, err := parseSearchResults("<html><body></body></html>", 20)
	assert.ErrorIs(t, err, ErrExtractionEmpty)
}

const productPage = `<html><body>
<h1 class="product-title">Fancy Lamp</h1>
<div class="product-price-current">R$ 123,45</div>
<div class="product-price-original">R$ 199,99</div>
<div class="product-description"><p>Bright <b>and</b> warm</p></div>
<div class="product-image"><img src="https://img.example/a.jpg"/></div>
<div class="product-image"><img src="https://img.example/b.jpg"/></div>
<div class="product-specification-item">
  <span class="spec-key">Color</span><span class="spec-value">White</span>
</div>
<div class="product-specification-item">
  <span class="spec-key">Voltage</span><span class="spec-value">220V</span>
</div>
</body></html>`

func TestParseProductPage(t *testing.T) {
	source, err := parseProductPage(productPage, "https://www.aliexpress.com/item/555.html")
	assert.NoError(t, err)

	assert.Equal(t, "Fancy Lamp", source.Name)
	assert.Equal(t, 123.45, source.Price)
	if assert.NotNil(t, source.OriginalPrice) {
		assert.Equal(t, 199.99, *source.OriginalPrice)
	}
	assert.Equal(t, "Bright and warm", source.Description)
	assert.Contains(t, source.DescriptionHTML, "<b>and</b>")
	assert.Equal(t, []string{"https://img.example/a.jpg", "https://img.example/b.jpg"}, source.Images)
	assert.Equal(t, map[string]string{"Color": "White", "Voltage": "220V"}, source.Specifications)
	assert.Equal(t, "555", source.ExternalID)
	assert.Equal(t, "https://www.aliexpress.com/item/555.html", source.URL)
}

func TestParseProductPageMissingRequiredFields(t *testing.T) {
	_, err := parseProductPage("<html><body><h1 class='product-title'>Lamp</h1></body></html>",
		"https://www.aliexpress.com/item/555.html")
	assert.ErrorIs(t, err, ErrExtractionEmpty)

	_, err = parseProductPage("<html><body></body></html>", "https://www.aliexpress.com/item/555.html")
	assert.ErrorIs(t, err, ErrExtractionEmpty)
}

func TestParsePrice(t *testing.T) {
	cases := map[string]float64{
		"US $12.34":   12.34,
		"R$ 1.234,56": 1234.56,
		"99":          99,
		"R$ 5,90":     5.9,
		"":            0,
		"free":        0,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, parsePrice(input), "input %q", input)
	}
}

func TestExtractProductID(t *testing.T) {
	assert.Equal(t, "1005001234567890",
		ExtractProductID("https://www.aliexpress.com/item/1005001234567890.html?src=search"))
	assert.Equal(t, "", ExtractProductID("https://www.aliexpress.com/wholesale?SearchText=lamp"))
	assert.Equal(t, "", ExtractProductID(""))
}
