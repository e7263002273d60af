package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sunrise-academy/portal-api/api/swagger"
	"github.com/sunrise-academy/portal-api/internal/handler"
	"github.com/sunrise-academy/portal-api/internal/middleware"
	"github.com/sunrise-academy/portal-api/internal/repository"
	"github.com/sunrise-academy/portal-api/internal/service"
	"github.com/sunrise-academy/portal-api/pkg/cache"
	"github.com/sunrise-academy/portal-api/pkg/config"
	"github.com/sunrise-academy/portal-api/pkg/database"
	"github.com/sunrise-academy/portal-api/pkg/logger"
	"github.com/sunrise-academy/portal-api/pkg/mailer"
	corsmiddleware "github.com/sunrise-academy/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sunrise-academy/portal-api/pkg/middleware/requestid"
)

// @title Sunrise Academy Portal API
// @version 0.1.0
// @description School site and admissions/records portal
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()
	mail := mailer.NewFromConfig(cfg.Mail, logr)

	userRepo := repository.NewUserRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	contentRepo := repository.NewContentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	auditSvc := service.NewAuditService(auditRepo, logr)
	linkingSvc := service.NewLinkingService(linkRepo, studentRepo, userRepo, auditSvc, logr)
	admissionSvc := service.NewAdmissionService(admissionRepo, linkingSvc, auditSvc, mail, userRepo, validate, logr, cfg.SchoolName)
	authSvc := service.NewAuthService(userRepo, admissionSvc, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, logr)
	contentSvc := service.NewContentService(contentRepo, cacheRepo, auditSvc, validate, logr, cfg.Content.CacheTTL)
	metricsSvc := service.NewMetricsService()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Admission: handler.NewAdmissionHandler(admissionSvc),
		Student:   handler.NewStudentHandler(studentSvc, authSvc),
		Linking:   handler.NewLinkingHandler(linkingSvc),
		Audit:     handler.NewAuditHandler(auditSvc),
		Content:   handler.NewContentHandler(contentSvc),
		Metrics:   metricsHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
