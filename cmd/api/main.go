package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/globlecampus/campus-api/api/swagger"
	"github.com/globlecampus/campus-api/internal/handler"
	"github.com/globlecampus/campus-api/internal/middleware"
	"github.com/globlecampus/campus-api/internal/repository"
	"github.com/globlecampus/campus-api/internal/service"
	"github.com/globlecampus/campus-api/pkg/cache"
	"github.com/globlecampus/campus-api/pkg/chat"
	"github.com/globlecampus/campus-api/pkg/config"
	"github.com/globlecampus/campus-api/pkg/database"
	"github.com/globlecampus/campus-api/pkg/logger"
	"github.com/globlecampus/campus-api/pkg/mailer"
	corsmiddleware "github.com/globlecampus/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/globlecampus/campus-api/pkg/middleware/requestid"
	"github.com/globlecampus/campus-api/pkg/storage"
)

// @title GlobleCampus API
// @version 1.0.0
// @description Student content platform: study materials, blogs, videos, marketplace and the GC-Token ledger
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Redis is optional: dashboards and reports degrade to uncached reads.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("uploads directory unavailable", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	metricsSvc := service.NewMetricsService()

	sender := mailer.NewSMTPSender(cfg.SMTP)
	mailSvc := service.NewMailService(service.MailDeps{
		Sender:     sender,
		Queue:      cfg.Mail,
		AdminInbox: cfg.SMTP.AdminInbox,
		SiteURL:    cfg.SiteURL,
		Configured: sender.Configured(),
		Metrics:    metricsSvc,
		Logger:     logr,
	})
	mailSvc.Start(ctx)
	defer mailSvc.Stop()

	var assistant chat.Assistant
	if cfg.Chat.APIKey != "" {
		gemini, err := chat.NewGeminiAssistant(ctx, cfg.Chat)
		if err != nil {
			logr.Sugar().Warnw("chat assistant unavailable", "error", err)
		} else {
			defer gemini.Close() //nolint:errcheck
			assistant = gemini
		}
	}

	profileRepo := repository.NewProfileRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	blogRepo := repository.NewBlogRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	marketRepo := repository.NewMarketplaceRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	supportRepo := repository.NewSupportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()

	ledgerSvc := service.NewLedgerService(ledgerRepo, metricsSvc, logr)
	authSvc := service.NewAuthService(profileRepo, ledgerSvc, mailSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "campus-api",
		WelcomeBonus:       cfg.Tokens.WelcomeBonus,
	})
	profileSvc := service.NewProfileService(profileRepo, validate, logr)
	materialSvc := service.NewMaterialService(materialRepo, ledgerSvc, store, signer, cfg.Uploads, cfg.Tokens, validate, logr)
	blogSvc := service.NewBlogService(blogRepo, validate, logr)
	videoSvc := service.NewVideoService(videoRepo, validate, logr)
	marketSvc := service.NewMarketplaceService(marketRepo, validate, logr)
	moderationSvc := service.NewModerationService(materialRepo, blogRepo, videoRepo, marketRepo, profileRepo, ledgerSvc, cfg.Tokens, logr)
	bulkImportSvc := service.NewBulkImportService(materialRepo, logr)
	dashboardSvc := service.NewDashboardService(statsRepo, ledgerSvc, cacheRepo, cfg.Dashboard, logr)
	reportSvc := service.NewReportService(statsRepo, cacheRepo, cfg.Dashboard, logr)
	supportSvc := service.NewSupportService(supportRepo, ledgerSvc, mailSvc, cfg.Tokens.PremiumThreshold, validate, logr)
	chatSvc := service.NewChatService(assistant, cfg.Chat.Timeout, validate, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Profile:     handler.NewProfileHandler(profileSvc),
		Ledger:      handler.NewLedgerHandler(ledgerSvc),
		Material:    handler.NewMaterialHandler(materialSvc),
		Blog:        handler.NewBlogHandler(blogSvc),
		Video:       handler.NewVideoHandler(videoSvc),
		Marketplace: handler.NewMarketplaceHandler(marketSvc),
		Moderation:  handler.NewModerationHandler(moderationSvc, bulkImportSvc, dashboardSvc, metricsSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Report:      handler.NewReportHandler(reportSvc),
		Support:     handler.NewSupportHandler(supportSvc),
		Chat:        handler.NewChatHandler(chatSvc),
		Files:       handler.NewFileHandler(store, signer),
		Metrics:     handler.NewMetricsHandler(metricsSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
