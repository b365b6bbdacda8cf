package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxCategoryDepth bounds the category tree. A root category has level 0.
const MaxCategoryDepth = 5

// Category represents a product category. Categories form a tree through
// parent_id, at most MaxCategoryDepth levels deep.
type Category struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string     `json:"name" gorm:"type:varchar(100);not null"`
	Slug        string     `json:"slug" gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string     `json:"description" gorm:"type:text"`
	Image       *string    `json:"image,omitempty" gorm:"type:varchar(512)"`
	Icon        *string    `json:"icon,omitempty" gorm:"type:varchar(100)"`
	Color       string     `json:"color" gorm:"type:varchar(16);default:'#007bff'"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	Level       int        `json:"level" gorm:"not null;default:0"`
	SortOrder   int        `json:"sort_order" gorm:"not null;default:0"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true;index"`
	IsFeatured  bool       `json:"is_featured" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when one is not already set.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
