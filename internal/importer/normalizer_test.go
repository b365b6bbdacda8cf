package importer

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mercadodasophia-design/mercadodasophia/internal/model"
	"github.com/mercadodasophia-design/mercadodasophia/internal/scraper"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/config"
	"github.com/mercadodasophia-design/mercadodasophia/prometheus"
)

func TestMain(m *testing.M) {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	prometheus.InitMetrics(cfg)
	os.Exit(m.Run())
}

func defaultPricing() config.PricingConfig {
	return config.PricingConfig{
		ExchangeRate: 5.5,
		Markup:       1.3,
		FlatShipping: 2.0,
		TaxRate:      0.6,
	}
}

func sampleSource() *scraper.ImportSource {
	original := 15.0
	return &scraper.ImportSource{
		Name:            "Super Gadget!!! *NEW*",
		Price:           10.0,
		OriginalPrice:   &original,
		Description:     "<p>Great &amp; shiny</p>",
		DescriptionHTML: "<p>Great &amp; shiny</p>",
		Images:          []string{"https://img.example/1.jpg", "https://img.example/2.jpg"},
		Specifications:  map[string]string{"Color": "Red"},
		URL:             "https://www.aliexpress.com/item/1005001234567890.html",
	}
}

func TestNormalizePricing(t *testing.T) {
	n := NewNormalizer(defaultPricing())

	record, err := n.Normalize(sampleSource())
	assert.NoError(t, err)

	// price = round(10.0 × 5.5 × 1.3, 2), cost = round((10.0 × 5.5 + 2.0) × 1.6, 2)
	assert.Equal(t, 71.50, record.Price)
	assert.Equal(t, 91.20, record.CostPrice)
	if assert.NotNil(t, record.OriginalPrice) {
		assert.Equal(t, 107.25, *record.OriginalPrice)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := NewNormalizer(defaultPricing())

	record, err := n.Normalize(sampleSource())
	assert.NoError(t, err)

	assert.Equal(t, model.StatusPending, record.Status)
	assert.Equal(t, 0, record.StockQuantity)
	assert.Nil(t, record.CategoryID)
	assert.Equal(t, "1005001234567890", record.ExternalID)
	assert.Equal(t, "https://www.aliexpress.com/item/1005001234567890.html", record.ExternalURL)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := NewNormalizer(defaultPricing())

	first, err := n.Normalize(sampleSource())
	assert.NoError(t, err)
	second, err := n.Normalize(sampleSource())
	assert.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalizeCleansNameAndDescription(t *testing.T) {
	n := NewNormalizer(defaultPricing())

	record, err := n.Normalize(sampleSource())
	assert.NoError(t, err)

	assert.Equal(t, "Super Gadget NEW", record.Name)
	assert.Equal(t, "Great  shiny", record.Description)
	// The HTML variant is preserved verbatim.
	assert.Equal(t, "<p>Great &amp; shiny</p>", record.DescriptionHTML)
}

func TestNormalizeMergesSpecifications(t *testing.T) {
	n := NewNormalizer(defaultPricing())

	record, err := n.Normalize(sampleSource())
	assert.NoError(t, err)

	assert.Equal(t, "Red", record.Specifications["Color"])
	assert.Equal(t, "<p>Great &amp; shiny</p>", record.Specifications["raw_description_html"])

	fulfillment, ok := record.Specifications["fulfillment"].(map[string]any)
	if assert.True(t, ok) {
		assert.Equal(t, "own_warehouse", fulfillment["mode"])
		assert.Equal(t, 12, fulfillment["inbound_lead_time_days"])
	}
}

func TestNormalizeExternalIDResolution(t *testing.T) {
	n := NewNormalizer(defaultPricing())

	// Explicit id wins over the URL.
	src := sampleSource()
	src.ExternalID = "42"
	record, err := n.Normalize(src)
	assert.NoError(t, err)
	assert.Equal(t, "42", record.ExternalID)

	// No id anywhere fails.
	src = sampleSource()
	src.URL = "https://www.aliexpress.com/store/feedback"
	_, err = n.Normalize(src)
	assert.ErrorIs(t, err, ErrMissingExternalID)
}

func TestNormalizeOmitsAbsentOriginalPrice(t *testing.T) {
	n := NewNormalizer(defaultPricing())

	src := sampleSource()
	src.OriginalPrice = nil
	record, err := n.Normalize(src)
	assert.NoError(t, err)
	assert.Nil(t, record.OriginalPrice)
}

func TestCleanNameIsIdempotent(t *testing.T) {
	inputs := []string{
		"Super Gadget!!! *NEW*",
		"  spaced   out  ",
		"hífen-mantido",
		"emoji 🎉 stripped",
		"",
	}
	for _, input := range inputs {
		once := CleanName(input)
		assert.Equal(t, once, CleanName(once), "input %q", input)
	}
}

func TestCleanNameTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	assert.Len(t, CleanName(long), 255)
}

func TestCleanDescriptionStripsTagsAndEntities(t *testing.T) {
	assert.Equal(t, "Hello world", CleanDescription("<div><b>Hello</b> world&nbsp;</div>"))
	assert.Equal(t, "", CleanDescription(""))
}

func TestPricesNeverNegative(t *testing.T) {
	n := NewNormalizer(defaultPricing())

	for _, price := range []float64{0, 0.01, 1, 9.99, 1234.56} {
		assert.GreaterOrEqual(t, n.LocalPrice(price), 0.0)
		assert.GreaterOrEqual(t, n.CostPrice(price), 0.0)
	}
}
