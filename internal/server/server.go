package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/omnipost/omnipost/internal/config"
	"github.com/omnipost/omnipost/internal/service"
	"github.com/omnipost/omnipost/internal/service/publisher"
	"github.com/omnipost/omnipost/internal/service/publisher/telegram"
	"github.com/omnipost/omnipost/internal/service/publisher/vk"
)

type Server struct {
	Config   *config.Config
	DB       *gorm.DB
	Router   *gin.Engine
	Logger   *zap.Logger
	Server   *http.Server
	Registry *publisher.Registry

	// Services
	Credentials    *service.CredentialService
	ScheduledPosts *service.ScheduledPostService
	Deliveries     *service.DeliveryHistory
	Publish        *service.PublishService
	Stager         *service.Stager
	Scheduler      *service.Scheduler
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Register platform adapters
	registry := publisher.NewRegistry(logger)
	if err := registry.Register(vk.NewPublisher(logger, cfg.VK.BaseURL, cfg.VK.APIVersion)); err != nil {
		return nil, fmt.Errorf("failed to register vk adapter: %w", err)
	}
	if err := registry.Register(telegram.NewPublisher(logger, telegram.NewBotDialer(cfg.Telegram.APIURL))); err != nil {
		return nil, fmt.Errorf("failed to register telegram adapter: %w", err)
	}

	// Initialize services
	credentials := service.NewCredentialService(db)
	scheduledPosts := service.NewScheduledPostService(db)
	deliveries := service.NewDeliveryHistory(db, logger)
	publish := service.NewPublishService(logger, registry, credentials, deliveries)

	stager, err := service.NewStager(logger, cfg.Staging.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stager: %w", err)
	}

	scheduler := service.NewScheduler(&cfg.Scheduler, logger, scheduledPosts, publish, stager)

	// Create router
	router := gin.New()

	// Create server
	srv := &Server{
		Config:         cfg,
		DB:             db,
		Router:         router,
		Logger:         logger,
		Registry:       registry,
		Credentials:    credentials,
		ScheduledPosts: scheduledPosts,
		Deliveries:     deliveries,
		Publish:        publish,
		Stager:         stager,
		Scheduler:      scheduler,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"time":      time.Now().Unix(),
			"platforms": s.Registry.Platforms(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			posts.POST("", s.handlePublishPost)
			posts.GET("/scheduled", s.handleListScheduledPosts)
		}

		api.GET("/deliveries", s.handleListDeliveries)

		credentials := api.Group("/credentials")
		{
			credentials.PUT("", s.handleSetCredential)
			credentials.DELETE("", s.handleRemoveCredential)
		}
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Start scheduler
	if err := s.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop scheduler first
	s.Scheduler.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
