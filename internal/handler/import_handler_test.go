package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/mercadodasophia-design/mercadodasophia/internal/importer"
	"github.com/mercadodasophia-design/mercadodasophia/internal/model"
	"github.com/mercadodasophia-design/mercadodasophia/internal/scraper"
	"github.com/mercadodasophia-design/mercadodasophia/internal/store"
)

type fakeFetcher struct {
	searchCalled int
	fetchCalled  int
	listings     []scraper.Listing
	source       *scraper.ImportSource
	err          error
}

func (f *fakeFetcher) SearchProducts(_ context.Context, query string, limit int) ([]scraper.Listing, error) {
	f.searchCalled++
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func (f *fakeFetcher) FetchProductPage(_ context.Context, url string) (*scraper.ImportSource, error) {
	f.fetchCalled++
	if f.err != nil {
		return nil, f.err
	}
	return f.source, nil
}

type fakeImportService struct {
	importCalled int
	bulkCalled   int
	product      *model.Product
	err          error
	bulkResult   *importer.BulkResult
}

func (f *fakeImportService) ImportProduct(_ context.Context, req importer.ImportRequest) (*model.Product, error) {
	f.importCalled++
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

func (f *fakeImportService) ImportBulk(_ context.Context, reqs []importer.ImportRequest) *importer.BulkResult {
	f.bulkCalled++
	return f.bulkResult
}

type fakeReader struct {
	page  *store.ImportedPage
	stats *store.ImportStats
	err   error
}

func (f *fakeReader) ListImported(_ context.Context, page, limit int, status string) (*store.ImportedPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeReader) GetImportStats(_ context.Context) (*store.ImportStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sampleProduct() *model.Product {
	externalID := "100"
	return &model.Product{
		ID:         uuid.New(),
		Name:       "Widget",
		Price:      71.50,
		Status:     model.StatusPending,
		ExternalID: &externalID,
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	fetcher := &fakeFetcher{}
	h := NewImportHandler(fetcher, &fakeImportService{}, &fakeReader{}, true)

	c, rec := newTestContext(http.MethodGet, "/search", "")
	assert.NoError(t, h.Search(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, fetcher.searchCalled)
}

func TestSearchRejectsBadLimit(t *testing.T) {
	fetcher := &fakeFetcher{}
	h := NewImportHandler(fetcher, &fakeImportService{}, &fakeReader{}, true)

	for _, limit := range []string{"0", "51", "abc"} {
		c, rec := newTestContext(http.MethodGet, "/search?q=lamp&limit="+limit, "")
		assert.NoError(t, h.Search(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit %q", limit)
	}
	assert.Zero(t, fetcher.searchCalled)
}

func TestSearchSuccess(t *testing.T) {
	fetcher := &fakeFetcher{listings: []scraper.Listing{
		{Name: "Widget", Price: 1.99, ExternalID: "1001"},
	}}
	h := NewImportHandler(fetcher, &fakeImportService{}, &fakeReader{}, true)

	c, rec := newTestContext(http.MethodGet, "/search?q=widget", "")
	assert.NoError(t, h.Search(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, "widget", body["query"])
}

func TestSearchScrapeFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: scraper.ErrFetchTimeout}
	h := NewImportHandler(fetcher, &fakeImportService{}, &fakeReader{}, true)

	c, rec := newTestContext(http.MethodGet, "/search?q=widget", "")
	assert.NoError(t, h.Search(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "timed out")
}

func TestProductDetailsRequiresURL(t *testing.T) {
	fetcher := &fakeFetcher{}
	h := NewImportHandler(fetcher, &fakeImportService{}, &fakeReader{}, true)

	c, rec := newTestContext(http.MethodGet, "/product/100", "")
	assert.NoError(t, h.ProductDetails(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, fetcher.fetchCalled)
}

func TestImportSuccess(t *testing.T) {
	svc := &fakeImportService{product: sampleProduct()}
	h := NewImportHandler(&fakeFetcher{}, svc, &fakeReader{}, true)

	c, rec := newTestContext(http.MethodPost, "/import",
		`{"aliexpress_url":"https://www.aliexpress.com/item/100.html"}`)
	assert.NoError(t, h.Import(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, svc.importCalled)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "Widget", data["name"])
	assert.Equal(t, 71.50, data["price"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "100", data["external_id"])
}

func TestImportValidation(t *testing.T) {
	svc := &fakeImportService{}
	h := NewImportHandler(&fakeFetcher{}, svc, &fakeReader{}, true)

	cases := []string{
		`{}`,
		`{"aliexpress_url":"https://x.test","price_override":-1}`,
		`{"aliexpress_url":"https://x.test","stock_quantity":-3}`,
	}
	for _, body := range cases {
		c, rec := newTestContext(http.MethodPost, "/import", body)
		assert.NoError(t, h.Import(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Zero(t, svc.importCalled)
}

func TestImportDuplicateConflict(t *testing.T) {
	existingID := uuid.New()
	svc := &fakeImportService{err: &importer.AlreadyImportedError{ProductID: existingID}}
	h := NewImportHandler(&fakeFetcher{}, svc, &fakeReader{}, true)

	c, rec := newTestContext(http.MethodPost, "/import",
		`{"aliexpress_url":"https://www.aliexpress.com/item/100.html"}`)
	assert.NoError(t, h.Import(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "product already imported", body["error"])
	assert.Equal(t, existingID.String(), body["product_id"])
}

func TestImportBulkRejectsBadBatchSize(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := &fakeImportService{}
	h := NewImportHandler(fetcher, svc, &fakeReader{}, true)

	// Empty batch.
	c, rec := newTestContext(http.MethodPost, "/import-bulk", `{"products":[]}`)
	assert.NoError(t, h.ImportBulk(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Oversized batch.
	var items []string
	for i := 0; i < 11; i++ {
		items = append(items, fmt.Sprintf(`{"aliexpress_url":"https://www.aliexpress.com/item/%d.html"}`, i))
	}
	c, rec = newTestContext(http.MethodPost, "/import-bulk",
		`{"products":[`+strings.Join(items, ",")+`]}`)
	assert.NoError(t, h.ImportBulk(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Validation happens before any fetch or import.
	assert.Zero(t, svc.bulkCalled)
	assert.Zero(t, fetcher.fetchCalled)
}

func TestImportBulkSuccess(t *testing.T) {
	svc := &fakeImportService{bulkResult: &importer.BulkResult{
		Success: []importer.BulkSuccess{{ID: uuid.New(), Name: "Widget", Price: 71.50, ExternalID: "100"}},
		Errors:  []importer.BulkFailure{{URL: "https://www.aliexpress.com/item/200.html", Error: "fetch failed"}},
	}}
	h := NewImportHandler(&fakeFetcher{}, svc, &fakeReader{}, true)

	c, rec := newTestContext(http.MethodPost, "/import-bulk",
		`{"products":[{"aliexpress_url":"https://www.aliexpress.com/item/100.html"},{"aliexpress_url":"https://www.aliexpress.com/item/200.html"}]}`)
	assert.NoError(t, h.ImportBulk(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.bulkCalled)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "import finished: 1 succeeded, 1 failed", body["message"])
}

func TestListImportedValidation(t *testing.T) {
	h := NewImportHandler(&fakeFetcher{}, &fakeImportService{}, &fakeReader{}, true)

	for _, target := range []string{
		"/imported?page=0",
		"/imported?limit=101",
		"/imported?status=bogus",
	} {
		c, rec := newTestContext(http.MethodGet, target, "")
		assert.NoError(t, h.ListImported(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestListImportedPagination(t *testing.T) {
	reader := &fakeReader{page: &store.ImportedPage{
		Products: []model.Product{*sampleProduct()},
		Total:    41,
	}}
	h := NewImportHandler(&fakeFetcher{}, &fakeImportService{}, reader, true)

	c, rec := newTestContext(http.MethodGet, "/imported?page=2&limit=20", "")
	assert.NoError(t, h.ListImported(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["page"])
	assert.Equal(t, float64(41), pagination["total"])
	assert.Equal(t, float64(3), pagination["pages"])
}

func TestStats(t *testing.T) {
	reader := &fakeReader{stats: &store.ImportStats{
		TotalImported: 12,
		ByStatus: []store.StatusCount{
			{Status: model.StatusPending, Count: 9},
			{Status: model.StatusActive, Count: 3},
		},
	}}
	h := NewImportHandler(&fakeFetcher{}, &fakeImportService{}, reader, true)

	c, rec := newTestContext(http.MethodGet, "/stats", "")
	assert.NoError(t, h.Stats(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(12), data["total_imported"])
}
