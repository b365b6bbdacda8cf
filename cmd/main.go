package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mercadodasophia-design/mercadodasophia/internal/handler"
	"github.com/mercadodasophia-design/mercadodasophia/internal/importer"
	mid "github.com/mercadodasophia-design/mercadodasophia/internal/middleware"
	"github.com/mercadodasophia-design/mercadodasophia/internal/scraper"
	"github.com/mercadodasophia-design/mercadodasophia/internal/store"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/config"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/database"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/jwtutil"
	"github.com/mercadodasophia-design/mercadodasophia/pkg/logger"
	"github.com/mercadodasophia-design/mercadodasophia/prometheus"
)

func main() {
	// Load .env file if present; production environments set real env vars.
	_ = godotenv.Load()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting sophia-admin-api",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Shared headless browser, started lazily on first fetch
	browser := scraper.NewBrowser(appConfig.Scraper)
	defer browser.Close()

	scrapeService := scraper.NewService(browser, appConfig.Scraper, log)
	productStore := store.NewProductStore(database.GetDB())
	normalizer := importer.NewNormalizer(appConfig.Pricing)
	importService := importer.NewService(scrapeService, normalizer, productStore, log)

	devMode := appConfig.Server.Env == "development"
	importHandler := handler.NewImportHandler(scrapeService, importService, productStore, devMode)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth routes
	authAPI := e.Group("/api/auth")
	authAPI.POST("/login", handler.Login)
	authAPI.POST("/register", handler.Register)
	authAPI.GET("/verify", handler.Verify)

	// Marketplace import routes
	importAPI := e.Group("/api/aliexpress", mid.AuthMiddleware)
	importAPI.GET("/search", importHandler.Search)
	importAPI.GET("/product/:id", importHandler.ProductDetails)
	importAPI.POST("/import", importHandler.Import)
	importAPI.POST("/import-bulk", importHandler.ImportBulk)
	importAPI.GET("/imported", importHandler.ListImported)
	importAPI.GET("/stats", importHandler.Stats)

	// Product API routes
	productAPI := e.Group("/api/products")
	productAPI.POST("/shipping/quote", handler.ShippingQuote(appConfig.Shipping))
	productAPI.GET("", handler.ListProducts, mid.AuthMiddleware)
	productAPI.GET("/:id", handler.GetProduct, mid.AuthMiddleware)
	productAPI.POST("", handler.CreateProduct, mid.AuthMiddleware)
	productAPI.PUT("/:id", handler.UpdateProduct, mid.AuthMiddleware)
	productAPI.DELETE("/:id", handler.DeleteProduct, mid.AuthMiddleware)

	// Category API routes
	categoryAPI := e.Group("/api/categories")
	categoryAPI.GET("", handler.ListCategories)
	categoryAPI.GET("/:id", handler.GetCategory, mid.AuthMiddleware)
	categoryAPI.POST("", handler.CreateCategory, mid.AuthMiddleware)
	categoryAPI.PUT("/:id", handler.UpdateCategory, mid.AuthMiddleware)
	categoryAPI.DELETE("/:id", handler.DeleteCategory, mid.AuthMiddleware)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
