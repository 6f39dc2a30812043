package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusdash/canvas-dashboard-api/api/swagger"
	"github.com/campusdash/canvas-dashboard-api/internal/canvas"
	"github.com/campusdash/canvas-dashboard-api/internal/handler"
	"github.com/campusdash/canvas-dashboard-api/internal/middleware"
	"github.com/campusdash/canvas-dashboard-api/internal/repository"
	"github.com/campusdash/canvas-dashboard-api/internal/service"
	"github.com/campusdash/canvas-dashboard-api/pkg/cache"
	"github.com/campusdash/canvas-dashboard-api/pkg/config"
	"github.com/campusdash/canvas-dashboard-api/pkg/database"
	"github.com/campusdash/canvas-dashboard-api/pkg/logger"
	corsmiddleware "github.com/campusdash/canvas-dashboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusdash/canvas-dashboard-api/pkg/middleware/requestid"
	"github.com/campusdash/canvas-dashboard-api/pkg/pool"
	"github.com/campusdash/canvas-dashboard-api/pkg/storage"
)

// @title Canvas Dashboard API
// @version 0.1.0
// @description Aggregated student dashboard and grade prediction over Canvas LMS
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	canvasClient := canvas.NewClient(cfg.Canvas, logr)

	var records service.RecordProvider
	switch cfg.Provider {
	case config.ProviderSnapshot:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect snapshot database", "error", err)
		}
		defer db.Close() //nolint:errcheck
		records = repository.NewSnapshotRepository(db)
	default:
		records = repository.NewCanvasRepository(canvasClient)
	}

	metrics := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, true)
	}

	fetchPool := pool.New(pool.Config{
		Workers: cfg.Dashboard.WorkerPoolSize,
		Logger:  logr,
	})
	fetchPool.Start(context.Background())
	defer fetchPool.Stop()

	grades := service.NewGradeService(cfg.Dashboard.RecentGradesMax, logr)
	categories := service.NewCategoryService()
	courses := service.NewCourseService(grades, categories, service.CourseServiceConfig{
		UpcomingWindow: cfg.Dashboard.UpcomingWindow,
	}, logr)
	dashboards := service.NewDashboardService(service.DashboardServiceParams{
		Records: records,
		Courses: courses,
		Grades:  grades,
		Cache:   cacheService,
		Metrics: metrics,
		Pool:    fetchPool,
		Logger:  logr,
		Config: service.DashboardServiceConfig{
			UpcomingLimit: cfg.Dashboard.UpcomingLimit,
			CacheTTL:      cfg.Dashboard.CacheTTL,
		},
	})
	predictions := service.NewPredictionService(cfg.Prediction.MinSamples, logr)
	auth := service.NewAuthService(service.AuthServiceParams{
		Verifier:   canvasClient,
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Logger:     logr,
	})

	var exports *service.ExportService
	if cfg.Reports.Enabled {
		archive, err := storage.NewLocalStorage(cfg.Reports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare report archive", "error", err)
		}
		exports = service.NewExportService(service.ExportServiceParams{
			Dashboards: dashboards,
			Archive:    archive,
			Signer:     storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Reports.DownloadTTL),
			Logger:     logr,
		})
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				exports.CleanupArchive(cfg.Reports.DownloadTTL)
			}
		}()
	}

	authHandler := handler.NewAuthHandler(auth)
	dashboardHandler := handler.NewDashboardHandler(dashboards, predictions)
	courseHandler := handler.NewCourseHandler(dashboards)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/session", authHandler.CreateSession)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))
	protected.Use(middleware.WithResponseMeta())
	protected.GET("/dashboard", dashboardHandler.Dashboard)
	protected.GET("/dashboard/prediction", dashboardHandler.Prediction)
	protected.GET("/courses/:id/card", courseHandler.Card)

	if exports != nil {
		reportHandler := handler.NewReportHandler(exports)
		protected.GET("/reports/semester", reportHandler.Semester)
		api.GET("/reports/download", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "provider", cfg.Provider)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
