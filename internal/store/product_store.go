package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mercadodasophia-design/mercadodasophia/internal/model"
	"github.com/mercadodasophia-design/mercadodasophia/prometheus"
)

// ProductStore is the gorm-backed catalog store. Soft-deleted rows are
// excluded from every query by gorm's deleted_at scope, which is what makes
// external_id lookups see only non-deleted products.
type ProductStore struct {
	db *gorm.DB
}

// NewProductStore wraps a gorm handle.
func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

// FindByExternalID returns the non-deleted product with the given
// marketplace id, or gorm.ErrRecordNotFound.
func (s *ProductStore) FindByExternalID(ctx context.Context, externalID string) (*model.Product, error) {
	defer prometheus.TrackDBOperation("find_by_external_id")(time.Now())

	var product model.Product
	result := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&product)
	if result.Error != nil {
		return nil, result.Error
	}
	return &product, nil
}

// CreateProduct persists a new product. The unique index on external_id is
// the last line of defense against duplicate inserts under concurrent
// requests.
func (s *ProductStore) CreateProduct(ctx context.Context, product *model.Product) error {
	defer prometheus.TrackDBOperation("create_product")(time.Now())

	return s.db.WithContext(ctx).Create(product).Error
}

// ImportedPage is one page of imported products.
type ImportedPage struct {
	Products []model.Product
	Total    int64
}

// ListImported returns imported products (external_id present), newest
// first, with their category preloaded.
func (s *ProductStore) ListImported(ctx context.Context, page, limit int, status string) (*ImportedPage, error) {
	defer prometheus.TrackDBOperation("list_imported")(time.Now())

	query := s.db.WithContext(ctx).Model(&model.Product{}).Where("external_id IS NOT NULL")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var products []model.Product
	err := query.
		Preload("Category").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	return &ImportedPage{Products: products, Total: total}, nil
}

// StatusCount is one row of the per-status import breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// RecentImport is a compact view of a recently imported product.
type RecentImport struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportStats aggregates import statistics.
type ImportStats struct {
	TotalImported int64          `json:"total_imported"`
	ByStatus      []StatusCount  `json:"by_status"`
	RecentImports []RecentImport `json:"recent_imports"`
}

// GetImportStats returns the total, per-status breakdown, and the last
// week's imports, capped at 10.
func (s *ProductStore) GetImportStats(ctx context.Context) (*ImportStats, error) {
	defer prometheus.TrackDBOperation("import_stats")(time.Now())

	imported := s.db.WithContext(ctx).Model(&model.Product{}).Where("external_id IS NOT NULL")

	stats := &ImportStats{
		ByStatus:      []StatusCount{},
		RecentImports: []RecentImport{},
	}
	if err := imported.Count(&stats.TotalImported).Error; err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("external_id IS NOT NULL").
		Select("status, count(id) as count").
		Group("status").
		Scan(&stats.ByStatus).Error
	if err != nil {
		return nil, err
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	err = s.db.WithContext(ctx).Model(&model.Product{}).
		Where("external_id IS NOT NULL AND created_at >= ?", weekAgo).
		Select("id, name, status, created_at").
		Order("created_at DESC").
		Limit(10).
		Scan(&stats.RecentImports).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
