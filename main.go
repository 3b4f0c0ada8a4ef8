// @title Modeva Catalog Filters API
// @version 1.0
// @description Dynamic product filters and faceted search for the Modeva storefront
// @host localhost:8081
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/app"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/config"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers/filter_controller"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers/product_controller"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/middleware"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/routes/cms_routes"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/routes/ecommerce_routes"
)

func init() {
	_ = godotenv.Load()
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logger.WithComponent("server")

	a, err := app.New(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer a.Close()

	// Admin routes verify tokens minted by the CMS login flow
	if err := a.RequireJWT(); err != nil {
		log.Fatal().Err(err).Msg("admin auth unavailable")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newRouter(a *app.App) *gin.Engine {
	cfg := a.Config

	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-CSRF-Token", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(cors.New(corsCfg))

	router.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		if err := a.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.KindErrorResponse(c, "store_unavailable", "Database unreachable"))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(c, "ok", nil))
	})

	filters := filter_controller.NewHandler(a.Metadata, a.Sync, a.Admin)
	products := product_controller.NewHandler(a.Search, a.Products)

	api := router.Group("/api/v1")

	// Public storefront (no rate limiter)
	ecommerce_routes.SetupStorefrontRoutes(api, filters, products)

	protected := []gin.HandlerFunc{
		middleware.AdminAuth(a.JWT),
		middleware.RateLimiter(a.Redis, cfg.RateLimit.Max, cfg.RateLimit.Window),
		middleware.AuditLog(a.Activity),
	}
	cms_routes.SetupFilterRoutes(api, filters, protected...)
	cms_routes.SetupProductRoutes(api, products, protected...)

	return router
}
