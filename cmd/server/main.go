// Package main runs the bootcamp HTTP server with the search socket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fjord-bootcamp/backend/config"
	"github.com/fjord-bootcamp/backend/internal/auth"
	"github.com/fjord-bootcamp/backend/internal/dashboard"
	"github.com/fjord-bootcamp/backend/internal/middleware"
	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/policy"
	"github.com/fjord-bootcamp/backend/internal/products"
	"github.com/fjord-bootcamp/backend/internal/realtime"
	"github.com/fjord-bootcamp/backend/internal/talks"
	"github.com/fjord-bootcamp/backend/internal/users"
	"github.com/fjord-bootcamp/backend/pkg/database"
	"github.com/fjord-bootcamp/backend/pkg/queue"
	"github.com/fjord-bootcamp/backend/pkg/redis"
	"github.com/fjord-bootcamp/backend/pkg/response"
	"github.com/fjord-bootcamp/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolConfig{
		MaxConns:        int32(cfg.Database.MaxConns),
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		SearchPath:      cfg.Database.Schema,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Without a bucket every avatar resolves to the default image.
	var presigner storage.Presigner
	if cfg.AWS.AvatarsBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AvatarsBucket:        cfg.AWS.AvatarsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			presigner = s3Client
		}
	}
	avatars := storage.NewAvatarURLs(presigner, cfg.AWS.DefaultAvatarURL, logger)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Users
	userRepo := users.NewRepository(pool)
	adminIDs := users.NewAdminIDCache(rdb.Client, userRepo, cfg.Redis.AdminIDsTTL, logger)
	userHandler := users.NewHandler(userRepo, avatars, jobQueue, cfg.Listing.UsersPerPage, logger)

	authHandler := auth.NewHandler(userRepo, jwtService, auth.CookieSettings{
		Name:   cfg.JWT.CookieName,
		Secure: cfg.Server.SecureCookies,
	}, logger)

	productHandler := products.NewHandler(products.NewRepository(pool), avatars, cfg.Listing.ProductsPerPage, logger)
	talkHandler := talks.NewHandler(talks.NewRepository(pool), adminIDs, userRepo, avatars, cfg.Listing.TalksPerPage, logger)
	dashboardHandler := dashboard.NewHandler(dashboard.NewRepository(pool), logger)

	authenticate := func(ctx context.Context, token string) (*models.User, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return nil, err
		}
		id, err := claims.UserID()
		if err != nil {
			return nil, err
		}
		u, err := userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u.IsRetired() {
			return nil, auth.ErrInvalidToken
		}
		return u, nil
	}
	searchSocket := realtime.NewSearchSocket(userHandler.Search(), authenticate, cfg.Server.AllowedOrigins, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Session(jwtService, userRepo, cfg.JWT.CookieName, logger))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.POST("/login", authHandler.Login)
	router.POST("/logout", authHandler.Logout)
	router.GET("/", dashboardHandler.Show)

	page := router.Group("", middleware.RequireLogin(middleware.Page))
	{
		page.GET("/users", userHandler.Index)
		page.GET("/users/tags", userHandler.Tags)
		page.GET("/users/tags/:tag", userHandler.Tag)
		page.GET("/users/companies", userHandler.Companies)
		page.GET("/users/:id", userHandler.Show)
		page.POST("/users/:id/graduation", middleware.Authorize(policy.KindUserAdmin, middleware.Page), userHandler.Graduate)
		page.GET("/generations/:id", userHandler.Generation)

		page.GET("/talks", middleware.Authorize(policy.KindTalkList, middleware.Page), talkHandler.Index)
		page.GET("/talks/:id", talkHandler.Show)
	}

	api := router.Group("/api", middleware.RequireLogin(middleware.API))
	{
		api.GET("/users", userHandler.List)
		api.GET("/users/search", userHandler.SearchUsers)
		api.GET("/users/:id/reports.csv", middleware.Authorize(policy.KindStaffArea, middleware.API), userHandler.ReportsCSV)
		api.PATCH("/users/:id/job_seeking", middleware.Authorize(policy.KindUserAdmin, middleware.API), userHandler.ToggleJobSeeking)
		api.PUT("/users/:id/avatar_url", userHandler.UpdateAvatarURL)

		api.GET("/products/unchecked", middleware.Authorize(policy.KindProductQueue, middleware.API), productHandler.Unchecked)
		api.GET("/talks", middleware.Authorize(policy.KindTalkList, middleware.API), talkHandler.List)
	}

	// Cookie session or token query; the socket answers 401 itself.
	router.GET("/ws/users/search", searchSocket.Serve)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
