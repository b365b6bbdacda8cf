package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product lifecycle states. Imported products enter the catalog as pending
// and are promoted to active after review.
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDeleted  = "deleted"
)

// ProductStatuses lists every valid product status value.
var ProductStatuses = []string{StatusDraft, StatusPending, StatusActive, StatusInactive, StatusDeleted}

// Product represents a catalog product. Products imported from the
// marketplace carry an external_id, which uniquely identifies at most one
// non-deleted product.
type Product struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string         `json:"name" gorm:"type:varchar(255);not null"`
	Description     string         `json:"description" gorm:"type:text"`
	DescriptionHTML string         `json:"description_html" gorm:"column:description_html;type:text"`
	Price           float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	OriginalPrice   *float64       `json:"original_price,omitempty" gorm:"type:decimal(10,2)"`
	CostPrice       *float64       `json:"cost_price,omitempty" gorm:"type:decimal(10,2)"`
	StockQuantity   int            `json:"stock_quantity" gorm:"not null;default:0"`
	SKU             *string        `json:"sku,omitempty" gorm:"type:varchar(100);uniqueIndex"`
	Brand           *string        `json:"brand,omitempty" gorm:"type:varchar(255)"`
	Images          datatypes.JSON `json:"images" gorm:"type:jsonb"`
	MainImage       *string        `json:"main_image,omitempty" gorm:"type:varchar(512)"`
	Tags            datatypes.JSON `json:"tags,omitempty" gorm:"type:jsonb"`
	Specifications  datatypes.JSON `json:"specifications,omitempty" gorm:"type:jsonb"`
	CategoryID      *uuid.UUID     `json:"category_id,omitempty" gorm:"type:uuid;index"`
	Category        *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	// Marketplace import fields
	ExternalID   *string  `json:"external_id,omitempty" gorm:"column:external_id;type:varchar(64);uniqueIndex"`
	ExternalURL  *string  `json:"external_url,omitempty" gorm:"column:external_url;type:text"`
	Rating       *float64 `json:"rating,omitempty" gorm:"type:decimal(3,2)"`
	ReviewsCount *int     `json:"reviews_count,omitempty"`
	SalesCount   *int     `json:"sales_count,omitempty"`

	Status         string `json:"status" gorm:"type:varchar(16);not null;default:'draft';index"`
	IsFeatured     bool   `json:"is_featured" gorm:"not null;default:false"`
	IsOnSale       bool   `json:"is_on_sale" gorm:"not null;default:false"`
	SalePercentage *int   `json:"sale_percentage,omitempty"`

	CreatedBy  *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	ApprovedBy *uuid.UUID `json:"approved_by,omitempty" gorm:"type:uuid"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when one is not already set.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsValidStatus reports whether s is a known product status.
func IsValidStatus(s string) bool {
	for _, v := range ProductStatuses {
		if v == s {
			return true
		}
	}
	return false
}
