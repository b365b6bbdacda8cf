package importer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mercadodasophia-design/mercadodasophia/internal/model"
	"github.com/mercadodasophia-design/mercadodasophia/internal/scraper"
	"github.com/mercadodasophia-design/mercadodasophia/prometheus"
)

// MaxBulkItems caps the batch size of a bulk import.
const MaxBulkItems = 10

// Fetcher loads a single marketplace product page.
type Fetcher interface {
	FetchProductPage(ctx context.Context, url string) (*scraper.ImportSource, error)
}

// CatalogStore is the persistence surface the orchestrator depends on.
type CatalogStore interface {
	// FindByExternalID returns the non-deleted product with the given
	// marketplace id, or gorm.ErrRecordNotFound.
	FindByExternalID(ctx context.Context, externalID string) (*model.Product, error)
	CreateProduct(ctx context.Context, product *model.Product) error
}

// ImportRequest describes one product to import. Overrides always win over
// values derived from the scraped page.
type ImportRequest struct {
	URL           string     `json:"aliexpress_url"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	PriceOverride *float64   `json:"price_override,omitempty"`
	StockQuantity *int       `json:"stock_quantity,omitempty"`
	CreatedBy     *uuid.UUID `json:"-"`
}

// BulkSuccess identifies one product created by a bulk import.
type BulkSuccess struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	ExternalID string    `json:"external_id"`
}

// BulkFailure reports one item that could not be imported.
type BulkFailure struct {
	URL       string     `json:"url"`
	Error     string     `json:"error"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
}

// BulkResult aggregates per-item outcomes of a bulk import. Every input item
// lands in exactly one of the two lists.
type BulkResult struct {
	Success []BulkSuccess `json:"success"`
	Errors  []BulkFailure `json:"errors"`
}

// Service orchestrates the import pipeline: fetch, normalize, apply
// overrides, duplicate check, persist.
type Service struct {
	fetcher    Fetcher
	normalizer *Normalizer
	store      CatalogStore
	log        *zap.Logger
}

// NewService builds an import orchestrator.
func NewService(fetcher Fetcher, normalizer *Normalizer, store CatalogStore, log *zap.Logger) *Service {
	return &Service{fetcher: fetcher, normalizer: normalizer, store: store, log: log}
}

// ImportProduct runs the pipeline for a single product. Any stage error
// aborts the import and is returned as a single structured error.
func (s *Service) ImportProduct(ctx context.Context, req ImportRequest) (*model.Product, error) {
	product, err := s.importOne(ctx, req)
	if err != nil {
		prometheus.RecordImportOperation("single", "error")
		return nil, err
	}
	prometheus.RecordImportOperation("single", "success")
	return product, nil
}

// ImportBulk runs the pipeline for each item strictly sequentially, keeping
// load on the shared browser bounded. A failing item is recorded and the
// batch continues; the batch itself never fails here. Input size is
// validated at the HTTP layer before any fetch happens.
func (s *Service) ImportBulk(ctx context.Context, reqs []ImportRequest) *BulkResult {
	prometheus.BulkImportSizeHistogram.Observe(float64(len(reqs)))
	s.log.Info("Starting bulk import", zap.Int("items", len(reqs)))

	result := &BulkResult{
		Success: []BulkSuccess{},
		Errors:  []BulkFailure{},
	}

	for _, req := range reqs {
		product, err := s.importOne(ctx, req)
		if err != nil {
			prometheus.RecordImportOperation("bulk", "error")
			failure := BulkFailure{URL: req.URL, Error: err.Error()}
			var dup *AlreadyImportedError
			if errors.As(err, &dup) {
				failure.Error = "product already imported"
				failure.ProductID = &dup.ProductID
			}
			result.Errors = append(result.Errors, failure)
			continue
		}

		prometheus.RecordImportOperation("bulk", "success")
		result.Success = append(result.Success, BulkSuccess{
			ID:         product.ID,
			Name:       product.Name,
			Price:      product.Price,
			ExternalID: *product.ExternalID,
		})
	}

	s.log.Info("Bulk import finished",
		zap.Int("success_count", len(result.Success)),
		zap.Int("error_count", len(result.Errors)))
	return result
}

// importOne runs fetch → normalize → overrides → duplicate check → persist.
func (s *Service) importOne(ctx context.Context, req ImportRequest) (*model.Product, error) {
	source, err := s.fetcher.FetchProductPage(ctx, req.URL)
	if err != nil {
		s.log.Warn("Product fetch failed", zap.String("url", req.URL), zap.Error(err))
		return nil, err
	}

	record, err := s.normalizer.Normalize(source)
	if err != nil {
		s.log.Warn("Product normalization failed", zap.String("url", req.URL), zap.Error(err))
		return nil, err
	}

	applyOverrides(record, req)

	existing, err := s.store.FindByExternalID(ctx, record.ExternalID)
	switch {
	case err == nil:
		s.log.Warn("Product already imported",
			zap.String("external_id", record.ExternalID),
			zap.String("product_id", existing.ID.String()))
		return nil, &AlreadyImportedError{ProductID: existing.ID}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, &StoreError{Op: "lookup", Err: err}
	}

	product, err := record.toProduct(req.CreatedBy)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		s.log.Error("Product persistence failed",
			zap.String("external_id", record.ExternalID),
			zap.Error(err))
		return nil, &StoreError{Op: "create", Err: err}
	}

	s.log.Info("Product imported",
		zap.String("product_id", product.ID.String()),
		zap.String("external_id", record.ExternalID),
		zap.Float64("price", product.Price))
	return product, nil
}

// applyOverrides lets caller-supplied values win over derived ones, in the
// order category_id, price, stock_quantity.
func applyOverrides(record *ImportRecord, req ImportRequest) {
	if req.CategoryID != nil {
		record.CategoryID = req.CategoryID
	}
	if req.PriceOverride != nil {
		record.Price = *req.PriceOverride
	}
	if req.StockQuantity != nil {
		record.StockQuantity = *req.StockQuantity
	}
}

// toProduct converts the normalized record into a store entity.
func (r *ImportRecord) toProduct(createdBy *uuid.UUID) (*model.Product, error) {
	images, err := json.Marshal(r.Images)
	if err != nil {
		return nil, &StoreError{Op: "encode images", Err: err}
	}
	specs, err := json.Marshal(r.Specifications)
	if err != nil {
		return nil, &StoreError{Op: "encode specifications", Err: err}
	}

	externalID := r.ExternalID
	externalURL := r.ExternalURL
	product := &model.Product{
		Name:            r.Name,
		Description:     r.Description,
		DescriptionHTML: r.DescriptionHTML,
		Price:           r.Price,
		OriginalPrice:   r.OriginalPrice,
		CostPrice:       &r.CostPrice,
		StockQuantity:   r.StockQuantity,
		Images:          datatypes.JSON(images),
		Specifications:  datatypes.JSON(specs),
		CategoryID:      r.CategoryID,
		ExternalID:      &externalID,
		ExternalURL:     &externalURL,
		Rating:          r.Rating,
		ReviewsCount:    r.ReviewsCount,
		SalesCount:      r.SalesCount,
		Status:          r.Status,
		CreatedBy:       createdBy,
	}
	if len(r.Images) > 0 {
		main := r.Images[0]
		product.MainImage = &main
	}
	return product, nil
}
