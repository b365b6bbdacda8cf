package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mercadodasophia-design/mercadodasophia/internal/model"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/database"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/logger"
	"github.com/mercadodasophia-design/mercadodasophia/prometheus"
)

// CategoryRequest defines the structure for category creation/update requests
type CategoryRequest struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	SortOrder   int        `json:"sort_order"`
	IsActive    *bool      `json:"is_active,omitempty"`
	IsFeatured  *bool      `json:"is_featured,omitempty"`
}

// ListCategories retrieves all categories, ordered by name
func ListCategories(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing categories")

	var categories []model.Category
	result := database.GetDB().Order("name ASC").Find(&categories)
	if result.Error != nil {
		log.Error("Failed to retrieve categories", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve categories",
		})
	}

	log.Info("Categories retrieved successfully", zap.Int("count", len(categories)))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": categories})
}

// GetCategory retrieves a specific category by ID
func GetCategory(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting category by ID", zap.String("category_id", id))

	var category model.Category
	result := database.GetDB().Where("id = ?", id).First(&category)
	if result.Error != nil {
		log.Error("Category not found",
			zap.String("category_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "category not found",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": category})
}

// CreateCategory handles creating a new category
func CreateCategory(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new category")

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid request data",
		})
	}
	if req.Name == "" || req.Slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid request data",
			"details": []string{"name and slug are required"},
		})
	}

	// Check slug uniqueness
	var count int64
	database.GetDB().Model(&model.Category{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		log.Warn("Category with this slug already exists", zap.String("slug", req.Slug))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "category with this slug already exists",
		})
	}

	level, err := resolveCategoryLevel(req.ParentID)
	if err != nil {
		log.Warn("Invalid parent category", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	category := model.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ParentID:    req.ParentID,
		Level:       level,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		category.IsFeatured = *req.IsFeatured
	}

	result := database.GetDB().Create(&category)
	if result.Error != nil {
		log.Error("Failed to create category",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to create category",
		})
	}

	prometheus.RecordCategoryOperation("create")
	log.Info("Category created successfully",
		zap.String("category_id", category.ID.String()),
		zap.String("slug", category.Slug),
		zap.Int("level", category.Level))
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": category})
}

// UpdateCategory handles updating an existing category
func UpdateCategory(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating category", zap.String("category_id", id))

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("category_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid request data",
		})
	}

	var category model.Category
	result := database.GetDB().Where("id = ?", id).First(&category)
	if result.Error != nil {
		log.Error("Category not found for update",
			zap.String("category_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "category not found",
		})
	}

	// Check slug uniqueness when it changes
	if req.Slug != "" && req.Slug != category.Slug {
		var count int64
		database.GetDB().Model(&model.Category{}).Where("slug = ? AND id != ?", req.Slug, id).Count(&count)
		if count > 0 {
			log.Warn("Category with this slug already exists", zap.String("slug", req.Slug))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "category with this slug already exists",
			})
		}
		category.Slug = req.Slug
	}

	if req.ParentID != nil {
		level, err := resolveCategoryLevel(req.ParentID)
		if err != nil {
			log.Warn("Invalid parent category", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		category.ParentID = req.ParentID
		category.Level = level
	}

	if req.Name != "" {
		category.Name = req.Name
	}
	category.Description = req.Description
	category.SortOrder = req.SortOrder
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		category.IsFeatured = *req.IsFeatured
	}

	result = database.GetDB().Save(&category)
	if result.Error != nil {
		log.Error("Failed to update category",
			zap.String("category_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to update category",
		})
	}

	prometheus.RecordCategoryOperation("update")
	log.Info("Category updated successfully",
		zap.String("category_id", id),
		zap.String("slug", category.Slug))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": category})
}

// DeleteCategory handles deleting a category (soft delete)
func DeleteCategory(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Deleting category", zap.String("category_id", id))

	result := database.GetDB().Where("id = ?", id).Delete(&model.Category{})
	if result.Error != nil {
		log.Error("Failed to delete category",
			zap.String("category_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to delete category",
		})
	}

	if result.RowsAffected == 0 {
		log.Warn("Category not found for deletion", zap.String("category_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "category not found",
		})
	}

	prometheus.RecordCategoryOperation("delete")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "category deleted successfully",
	})
}

// resolveCategoryLevel computes the level for a category with the given
// parent, enforcing the maximum tree depth.
func resolveCategoryLevel(parentID *uuid.UUID) (int, error) {
	if parentID == nil {
		return 0, nil
	}

	var parent model.Category
	result := database.GetDB().Where("id = ?", *parentID).First(&parent)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, errParentNotFound
		}
		return 0, result.Error
	}

	if parent.Level+1 > model.MaxCategoryDepth {
		return 0, errMaxCategoryDepth
	}
	return parent.Level + 1, nil
}

var (
	errParentNotFound   = errors.New("parent category not found")
	errMaxCategoryDepth = errors.New("category tree depth limit reached")
)
