package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mercadodasophia-design/mercadodasophia/internal/importer"
	"github.com/mercadodasophia-design/mercadodasophia/internal/middleware"
	"github.com/mercadodasophia-design/mercadodasophia/internal/model"
	"github.com/mercadodasophia-design/mercadodasophia/internal/scraper"
	"github.com/mercadodasophia-design/mercadodasophia/internal/store"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/logger"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

// MarketplaceFetcher is the scraping surface the import handler depends on.
type MarketplaceFetcher interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]scraper.Listing, error)
	FetchProductPage(ctx context.Context, url string) (*scraper.ImportSource, error)
}

// ImportService runs the import pipeline.
type ImportService interface {
	ImportProduct(ctx context.Context, req importer.ImportRequest) (*model.Product, error)
	ImportBulk(ctx context.Context, reqs []importer.ImportRequest) *importer.BulkResult
}

// ImportReader serves queries about previously imported products.
type ImportReader interface {
	ListImported(ctx context.Context, page, limit int, status string) (*store.ImportedPage, error)
	GetImportStats(ctx context.Context) (*store.ImportStats, error)
}

// ImportHandler exposes the marketplace import API.
type ImportHandler struct {
	fetcher  MarketplaceFetcher
	importer ImportService
	reader   ImportReader
	devMode  bool
}

// NewImportHandler wires the import API around its collaborators.
func NewImportHandler(fetcher MarketplaceFetcher, imp ImportService, reader ImportReader, devMode bool) *ImportHandler {
	return &ImportHandler{fetcher: fetcher, importer: imp, reader: reader, devMode: devMode}
}

// Search handles GET /search?q=&limit=
func (h *ImportHandler) Search(c echo.Context) error {
	log := logger.FromContext(c)

	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid parameters",
			"details": []string{"q is required"},
		})
	}

	limit := defaultSearchLimit
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 || parsed > maxSearchLimit {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "invalid parameters",
				"details": []string{fmt.Sprintf("limit must be between 1 and %d", maxSearchLimit)},
			})
		}
		limit = parsed
	}

	listings, err := h.fetcher.SearchProducts(c.Request().Context(), query, limit)
	if err != nil {
		log.Error("Marketplace search failed", zap.String("query", query), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "failed to search marketplace products",
			"message": h.clientMessage(err),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    listings,
		"count":   len(listings),
		"query":   query,
	})
}

// ProductDetails handles GET /product/:id?url=
func (h *ImportHandler) ProductDetails(c echo.Context) error {
	log := logger.FromContext(c)

	url := c.QueryParam("url")
	if url == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid parameters",
			"details": []string{"url is required"},
		})
	}

	source, err := h.fetcher.FetchProductPage(c.Request().Context(), url)
	if err != nil {
		log.Error("Product page fetch failed", zap.String("url", url), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "failed to fetch product details",
			"message": h.clientMessage(err),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    source,
	})
}

// Import handles POST /import
func (h *ImportHandler) Import(c echo.Context) error {
	log := logger.FromContext(c)

	var req importer.ImportRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid import request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if details := validateImportRequest(&req); len(details) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid request data",
			"details": details,
		})
	}

	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		req.CreatedBy = &userID
	}

	log.Info("Importing marketplace product", zap.String("url", req.URL))

	product, err := h.importer.ImportProduct(c.Request().Context(), req)
	if err != nil {
		return h.importError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "product imported successfully",
		"data": echo.Map{
			"id":          product.ID,
			"name":        product.Name,
			"price":       product.Price,
			"status":      product.Status,
			"external_id": product.ExternalID,
		},
	})
}

// BulkImportRequest is the POST /import-bulk body.
type BulkImportRequest struct {
	Products []importer.ImportRequest `json:"products"`
}

// ImportBulk handles POST /import-bulk. Structural validation happens here,
// before any fetch; per-item failures are aggregated, never fatal.
func (h *ImportHandler) ImportBulk(c echo.Context) error {
	log := logger.FromContext(c)

	var req BulkImportRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid bulk import request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if len(req.Products) < 1 || len(req.Products) > importer.MaxBulkItems {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid request data",
			"details": []string{fmt.Sprintf("products must contain between 1 and %d items", importer.MaxBulkItems)},
		})
	}
	var details []string
	for i, item := range req.Products {
		for _, d := range validateImportRequest(&item) {
			details = append(details, fmt.Sprintf("products[%d]: %s", i, d))
		}
	}
	if len(details) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid request data",
			"details": details,
		})
	}

	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		for i := range req.Products {
			req.Products[i].CreatedBy = &userID
		}
	}

	result := h.importer.ImportBulk(c.Request().Context(), req.Products)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": fmt.Sprintf("import finished: %d succeeded, %d failed", len(result.Success), len(result.Errors)),
		"data":    result,
	})
}

// ListImported handles GET /imported?page=&limit=&status=
func (h *ImportHandler) ListImported(c echo.Context) error {
	log := logger.FromContext(c)

	page := 1
	if pageParam := c.QueryParam("page"); pageParam != "" {
		parsed, err := strconv.Atoi(pageParam)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "invalid parameters",
				"details": []string{"page must be a positive integer"},
			})
		}
		page = parsed
	}

	limit := defaultSearchLimit
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 || parsed > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "invalid parameters",
				"details": []string{"limit must be between 1 and 100"},
			})
		}
		limit = parsed
	}

	status := c.QueryParam("status")
	if status != "" && !model.IsValidStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid parameters",
			"details": []string{"unknown status"},
		})
	}

	result, err := h.reader.ListImported(c.Request().Context(), page, limit, status)
	if err != nil {
		log.Error("Failed to list imported products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list imported products"})
	}

	pages := result.Total / int64(limit)
	if result.Total%int64(limit) != 0 {
		pages++
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    result.Products,
		"pagination": echo.Map{
			"page":  page,
			"limit": limit,
			"total": result.Total,
			"pages": pages,
		},
	})
}

// Stats handles GET /stats
func (h *ImportHandler) Stats(c echo.Context) error {
	log := logger.FromContext(c)

	stats, err := h.reader.GetImportStats(c.Request().Context())
	if err != nil {
		log.Error("Failed to compute import stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute import statistics"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    stats,
	})
}

// importError maps pipeline errors to HTTP responses. Duplicate imports are
// a 400 conflict carrying the existing product id; everything else is a 500.
func (h *ImportHandler) importError(c echo.Context, err error) error {
	log := logger.FromContext(c)

	var dup *importer.AlreadyImportedError
	if errors.As(err, &dup) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":      "product already imported",
			"product_id": dup.ProductID,
		})
	}

	log.Error("Product import failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error":   "failed to import product",
		"message": h.clientMessage(err),
	})
}

// clientMessage hides internal error detail outside development mode.
func (h *ImportHandler) clientMessage(err error) string {
	if h.devMode {
		return err.Error()
	}
	return "something went wrong"
}

func validateImportRequest(req *importer.ImportRequest) []string {
	var details []string
	if req.URL == "" {
		details = append(details, "aliexpress_url is required")
	}
	if req.PriceOverride != nil && *req.PriceOverride < 0 {
		details = append(details, "price_override must be a positive number")
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		details = append(details, "stock_quantity must be a positive integer")
	}
	return details
}
