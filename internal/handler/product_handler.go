package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mercadodasophia-design/mercadodasophia/internal/model"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/config"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/database"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/logger"
	"github.com/mercadodasophia-design/mercadodasophia/prometheus"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	SKU           *string    `json:"sku,omitempty"`
	Price         float64    `json:"price"`
	StockQuantity int        `json:"stock_quantity"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	Status        string     `json:"status,omitempty"`
}

// ListProducts handles retrieving all products with optional filtering
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing products with filters")

	db := database.GetDB()
	var products []model.Product

	query := db

	// Filter by status if specified
	status := c.QueryParam("status")
	if status != "" {
		if !model.IsValidStatus(status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		query = query.Where("status = ?", status)
		log.Info("Filtering products by status", zap.String("status", status))
	}

	// Filter by category if specified
	categoryID := c.QueryParam("category_id")
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
		log.Info("Filtering products by category", zap.String("category_id", categoryID))
	}

	result := query.Preload("Category").Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve products",
		})
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": products})
}

// GetProduct handles retrieving a single product by ID
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Getting product by ID", zap.String("product_id", id))

	var product model.Product
	result := database.GetDB().Preload("Category").Where("id = ?", id).First(&product)
	if result.Error != nil {
		log.Error("Product not found",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "product not found",
		})
	}

	prometheus.RecordProductOperation("get")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": product})
}

// CreateProduct handles creating a new product
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new product")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid request data",
		})
	}
	if req.Name == "" || req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid request data",
			"details": []string{"name is required, price must not be negative"},
		})
	}

	status := req.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !model.IsValidStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	// Check if product with SKU already exists
	if req.SKU != nil {
		var count int64
		database.GetDB().Model(&model.Product{}).Where("sku = ?", *req.SKU).Count(&count)
		if count > 0 {
			log.Warn("Product with this SKU already exists", zap.String("sku", *req.SKU))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "product with this SKU already exists",
			})
		}
	}

	product := model.Product{
		Name:          req.Name,
		Description:   req.Description,
		SKU:           req.SKU,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
		Status:        status,
	}

	result := database.GetDB().Create(&product)
	if result.Error != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to create product",
		})
	}

	prometheus.RecordProductOperation("create")
	log.Info("Product created successfully",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": product})
}

// UpdateProduct handles updating an existing product
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Updating product", zap.String("product_id", id))

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid request data",
		})
	}

	// Find existing product
	var product model.Product
	result := database.GetDB().Where("id = ?", id).First(&product)
	if result.Error != nil {
		log.Error("Product not found for update",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "product not found",
		})
	}

	oldPrice := product.Price

	// Check if SKU is changed and if new SKU already exists
	if req.SKU != nil && (product.SKU == nil || *req.SKU != *product.SKU) {
		var count int64
		database.GetDB().Model(&model.Product{}).Where("sku = ? AND id != ?", *req.SKU, id).Count(&count)
		if count > 0 {
			log.Warn("Product with this SKU already exists", zap.String("sku", *req.SKU))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "product with this SKU already exists",
			})
		}
	}

	// Update fields
	product.Name = req.Name
	product.Description = req.Description
	if req.SKU != nil {
		product.SKU = req.SKU
	}
	product.Price = req.Price
	product.StockQuantity = req.StockQuantity
	product.CategoryID = req.CategoryID
	if req.Status != "" {
		if !model.IsValidStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		product.Status = req.Status
	}

	result = database.GetDB().Save(&product)
	if result.Error != nil {
		log.Error("Failed to update product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to update product",
		})
	}

	prometheus.RecordProductOperation("update")
	log.Info("Product updated successfully",
		zap.String("product_id", id),
		zap.String("name", product.Name),
		zap.Float64("old_price", oldPrice),
		zap.Float64("new_price", product.Price))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": product})
}

// DeleteProduct handles deleting a product (soft delete)
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Deleting product", zap.String("product_id", id))

	result := database.GetDB().Where("id = ?", id).Delete(&model.Product{})
	if result.Error != nil {
		log.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to delete product",
		})
	}

	if result.RowsAffected == 0 {
		log.Warn("Product not found for deletion", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "product not found",
		})
	}

	prometheus.RecordProductOperation("delete")
	log.Info("Product deleted successfully",
		zap.String("product_id", id),
		zap.Int64("rows_affected", result.RowsAffected))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "product deleted successfully",
	})
}

// ShippingQuoteRequest is the POST /products/shipping/quote body.
type ShippingQuoteRequest struct {
	DestinationCEP string             `json:"destination_cep"`
	Items          []ShippingQuoteRow `json:"items"`
}

// ShippingQuoteRow is one cart line in a shipping quote.
type ShippingQuoteRow struct {
	Price    float64  `json:"price"`
	Quantity int      `json:"quantity"`
	Weight   *float64 `json:"weight,omitempty"`
}

type shippingService struct {
	Code        string
	Name        string
	Base        float64
	PerKg       float64
	Carrier     string
	TransitDays int
}

// Own-warehouse tariff table. ETA includes the inbound lead time because
// imported stock ships from the supplier before it can leave the store.
var shippingServices = []shippingService{
	{Code: "OWN_ECONOMY", Name: "Entrega Padrão (Loja)", Base: 19.9, PerKg: 6.5, Carrier: "Correios/Parceiro", TransitDays: 5},
	{Code: "OWN_EXPRESS", Name: "Entrega Expressa (Loja)", Base: 29.9, PerKg: 9.9, Carrier: "Parceiro Expresso", TransitDays: 2},
}

// ShippingQuote estimates own-warehouse freight for a cart.
func ShippingQuote(cfg config.ShippingConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		var req ShippingQuoteRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
		}
		if req.DestinationCEP == "" || len(req.Items) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "invalid request data",
				"details": []string{"destination_cep and at least one item are required"},
			})
		}

		var totalWeight float64
		for _, item := range req.Items {
			quantity := item.Quantity
			if quantity == 0 {
				quantity = 1
			}
			weight := 0.5
			if item.Weight != nil {
				weight = *item.Weight
			}
			totalWeight += weight * float64(quantity)
		}

		quotes := make([]echo.Map, 0, len(shippingServices))
		for _, svc := range shippingServices {
			price := svc.Base + math.Max(0, totalWeight-1)*svc.PerKg
			etaDays := cfg.InboundLeadTimeDays + cfg.HandlingDays + svc.TransitDays
			etaDate := time.Now().AddDate(0, 0, etaDays)
			quotes = append(quotes, echo.Map{
				"service_code":            svc.Code,
				"service_name":            svc.Name,
				"carrier":                 svc.Carrier,
				"price":                   math.Round(price*100) / 100,
				"currency":                "BRL",
				"estimated_days":          etaDays,
				"estimated_delivery_date": etaDate.Format(time.RFC3339),
				"origin_cep":              cfg.OriginCEP,
				"destination_cep":         req.DestinationCEP,
			})
		}

		log.Info("Shipping quote computed",
			zap.String("destination_cep", req.DestinationCEP),
			zap.Float64("total_weight", totalWeight))
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": quotes})
	}
}
