package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/madrasah-labs/class-review-api/api/swagger"
	"github.com/madrasah-labs/class-review-api/internal/handler"
	"github.com/madrasah-labs/class-review-api/internal/middleware"
	"github.com/madrasah-labs/class-review-api/internal/models"
	"github.com/madrasah-labs/class-review-api/internal/repository"
	"github.com/madrasah-labs/class-review-api/internal/service"
	"github.com/madrasah-labs/class-review-api/pkg/cache"
	"github.com/madrasah-labs/class-review-api/pkg/config"
	"github.com/madrasah-labs/class-review-api/pkg/database"
	"github.com/madrasah-labs/class-review-api/pkg/logger"
	"github.com/madrasah-labs/class-review-api/pkg/mail"
	corsmiddleware "github.com/madrasah-labs/class-review-api/pkg/middleware/cors"
	reqidmiddleware "github.com/madrasah-labs/class-review-api/pkg/middleware/requestid"
)

// @title Class Review API
// @version 1.0.0
// @description Classroom video review workflow and reporting
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Reports.CacheTTL, logr, true)
		defer cacheRepo.Close() //nolint:errcheck
	} else {
		cacheService = service.NewCacheService(nil, metricsService, cfg.Reports.CacheTTL, logr, false)
	}

	var mailer mail.Mailer
	if cfg.Mail.SendGridKey != "" {
		mailer = mail.NewSendGridMailer(cfg.Mail.SendGridKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	} else {
		mailer = mail.NewConsoleMailer(logr)
		logr.Info("sendgrid key not set, using console mailer")
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authService := service.NewAuthService(userRepo, mailer, validate, logr, service.AuthServiceConfig{
		TokenSecret:   cfg.JWT.Secret,
		TokenExpiry:   cfg.JWT.Expiration,
		BcryptCost:    cfg.Auth.BcryptCost,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		FrontendURL:   cfg.Mail.FrontendURL,
		Issuer:        "class-review-api",
	})
	userService := service.NewUserService(userRepo, mailer, validate, logr, service.UserServiceConfig{
		BcryptCost:  cfg.Auth.BcryptCost,
		FrontendURL: cfg.Mail.FrontendURL,
	})
	classService := service.NewRefEntityService(classRepo, "class", validate, logr)
	sectionService := service.NewRefEntityService(sectionRepo, "section", validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, validate, logr)
	videoService := service.NewVideoService(videoRepo, userRepo, cacheService, metricsService, validate, logr)
	reportService := service.NewReportService(reportRepo, cacheService, metricsService, logr, service.ReportServiceConfig{
		CacheTTL:       cfg.Reports.CacheTTL,
		ReviewSLADays:  cfg.Reports.ReviewSLADays,
		PublishSLADays: cfg.Reports.PublishSLADays,
	})
	exportService := service.NewExportService(reportService, logr)

	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userService.EnsureBootstrapAdmin(bootstrapCtx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		logr.Sugar().Fatalw("failed to seed bootstrap admin", "error", err)
	}
	cancel()

	authHandler := handler.NewAuthHandler(authService, cfg.JWT.CookieName)
	userHandler := handler.NewUserHandler(userService)
	classHandler := handler.NewRefEntityHandler(classService, "classes")
	sectionHandler := handler.NewRefEntityHandler(sectionService, "sections")
	subjectHandler := handler.NewSubjectHandler(subjectService)
	videoHandler := handler.NewVideoHandler(videoService)
	reportHandler := handler.NewReportHandler(reportService, exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)

	admin := api.Group("/admin", middleware.JWT(authService))

	adminOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleSeniorAdmin)
	reportRoles := middleware.RequireRoles(models.RoleAdmin, models.RoleSeniorAdmin, models.RoleManagement)

	users := admin.Group("/users")
	users.POST("", adminOnly, userHandler.CreateTeacher)
	users.GET("", adminOnly, userHandler.List)
	users.GET("/:id", adminOnly, userHandler.Get)
	users.PATCH("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleSeniorAdmin), "SELF"), userHandler.UpdateProfile)
	users.PATCH("/:id/active", adminOnly, userHandler.SetActive)

	for _, group := range []struct {
		path    string
		handler *handler.RefEntityHandler
	}{
		{"/classes", classHandler},
		{"/sections", sectionHandler},
	} {
		g := admin.Group(group.path)
		g.GET("", group.handler.List)
		g.GET("/:id", group.handler.Get)
		g.POST("", adminOnly, group.handler.Create)
		g.PUT("/:id", adminOnly, group.handler.Update)
		g.DELETE("/:id", adminOnly, group.handler.Delete)
	}

	subjects := admin.Group("/subjects")
	subjects.GET("", subjectHandler.List)
	subjects.GET("/:id", subjectHandler.Get)
	subjects.POST("", adminOnly, subjectHandler.Create)
	subjects.PUT("/:id", adminOnly, subjectHandler.Update)
	subjects.DELETE("/:id", adminOnly, subjectHandler.Delete)

	videos := admin.Group("/videos")
	videos.GET("/my-assigned", videoHandler.MyAssigned)
	videos.GET("/me/feedback", videoHandler.MyFeedback)
	videos.POST("", adminOnly, videoHandler.Create)
	videos.GET("", adminOnly, videoHandler.List)
	videos.GET("/:id", videoHandler.Get)
	videos.POST("/:id/assign", adminOnly, videoHandler.Assign)
	videos.POST("/:id/review", adminOnly, videoHandler.SubmitReview)
	videos.POST("/:id/publish", adminOnly, videoHandler.Publish)
	videos.POST("/:id/teacher-comment", videoHandler.TeacherComment)

	reports := admin.Group("/reports", reportRoles)
	reports.GET("/status-distribution", reportHandler.StatusDistribution)
	reports.GET("/turnaround-time", reportHandler.TurnaroundTime)
	reports.GET("/teacher-performance", reportHandler.TeacherPerformance)
	reports.GET("/reviewer-productivity", reportHandler.ReviewerProductivity)
	reports.GET("/subject-analytics", reportHandler.SubjectAnalytics)
	reports.GET("/class-analytics", reportHandler.ClassAnalytics)
	reports.GET("/language-review-compliance", reportHandler.LanguageCompliance)
	reports.GET("/time-trends", reportHandler.TimeTrends)
	reports.GET("/operational-efficiency", reportHandler.OperationalEfficiency)
	reports.GET("/quality-metrics", reportHandler.QualityMetrics)
	reports.GET("/dashboard", reportHandler.Dashboard)
	reports.GET("/:report/export", reportHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
