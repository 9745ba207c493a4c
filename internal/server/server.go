package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mythos-labs/mythos-api/internal/config"
	"github.com/mythos-labs/mythos-api/internal/content"
	"github.com/mythos-labs/mythos-api/internal/envelope"
	"github.com/mythos-labs/mythos-api/internal/gateway"
	"github.com/mythos-labs/mythos-api/internal/handler"
	"github.com/mythos-labs/mythos-api/internal/healthcheck"
	"github.com/mythos-labs/mythos-api/internal/loadbalancer"
	"github.com/mythos-labs/mythos-api/internal/middleware"
	"github.com/mythos-labs/mythos-api/internal/ratelimit"
	"github.com/mythos-labs/mythos-api/internal/repository"
	apirouter "github.com/mythos-labs/mythos-api/internal/router"
	"github.com/mythos-labs/mythos-api/internal/service"
	"github.com/mythos-labs/mythos-api/internal/storage"
	"github.com/mythos-labs/mythos-api/internal/tier"
	"go.uber.org/zap"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	redis    *storage.RedisClient
	postgres *storage.Postgres
	logger   *zap.Logger

	apiKeyService    *service.APIKeyService
	authService      *service.AuthService
	chatService      *service.ChatService
	analyticsService *service.AnalyticsService
	limiter          ratelimit.Limiter
	checker          *healthcheck.Checker

	apiKeyHandler    *handler.APIKeyHandler
	authHandler      *handler.AuthHandler
	analyticsHandler *handler.AnalyticsHandler
	dataHandler      *handler.DataHandler
	chatHandler      *handler.ChatHandler

	admission     gin.HandlerFunc
	httpServer    *http.Server
	stopRetention chan struct{}
}

// Request logs feed the admin analytics; anything older than this only costs
// table space.
const logRetention = 30 * 24 * time.Hour

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres, index *content.Index, logger *zap.Logger) (*Server, error) {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	apiKeyRepo := repository.NewAPIKeyRepository(postgres)
	userRepo := repository.NewUserRepository(postgres)
	requestLogRepo := repository.NewRequestLogRepository(postgres)

	apiKeyService := service.NewAPIKeyService(apiKeyRepo, redis, logger)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	analyticsService := service.NewAnalyticsService(requestLogRepo)

	strategy, err := loadbalancer.NewStrategy(cfg.Chat.Strategy)
	if err != nil {
		return nil, err
	}
	chatService := service.NewChatService(cfg.Chat.Upstreams, cfg.Chat.Model, cfg.Chat.APIKey, strategy, logger)

	limiter := ratelimit.NewFixedWindow(time.Minute)
	gate := gateway.New(apiKeyService, apiKeyService, limiter, logger)

	checker := healthcheck.NewChecker(healthcheck.Config{}, logger)
	checker.Register("postgres", postgres.Ping)
	checker.Register("redis", redis.Ping)

	middleware.InitRequestLogger(requestLogRepo, 1000, logger)

	s := &Server{
		router:           engine,
		config:           cfg,
		redis:            redis,
		postgres:         postgres,
		logger:           logger,
		apiKeyService:    apiKeyService,
		authService:      authService,
		chatService:      chatService,
		analyticsService: analyticsService,
		limiter:          limiter,
		checker:          checker,
		stopRetention:    make(chan struct{}),
		apiKeyHandler:    handler.NewAPIKeyHandler(apiKeyService),
		authHandler:      handler.NewAuthHandler(authService),
		analyticsHandler: handler.NewAnalyticsHandler(analyticsService),
		dataHandler:      handler.NewDataHandler(apirouter.New(index)),
		chatHandler:      handler.NewChatHandler(chatService),
	}

	s.setupMiddleware(gate)
	s.setupRoutes()

	checker.Start()
	go s.retentionLoop()

	return s, nil
}

// retentionLoop prunes old request logs on an interval until shutdown.
func (s *Server) retentionLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			removed, err := s.analyticsService.PruneLogs(ctx, time.Now().UTC().Add(-logRetention))
			cancel()

			if err != nil {
				s.logger.Warn("request log pruning failed", zap.Error(err))
			} else if removed > 0 {
				s.logger.Info("pruned old request logs", zap.Int64("removed", removed))
			}
		case <-s.stopRetention:
			return
		}
	}
}

func (s *Server) setupMiddleware(gate *gateway.Gate) {
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogger(s.logger))

	s.admission = middleware.Admission(gate, s.limiter)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	auth := s.router.Group("/auth")
	{
		auth.POST("/register", s.authHandler.Register)
		auth.POST("/login", s.authHandler.Login)
	}

	admin := s.router.Group("/admin")
	admin.Use(middleware.RequireAuth(s.authService))
	{
		admin.GET("/status", s.adminStatus)
		admin.GET("/tiers", s.apiKeyHandler.Tiers)
		admin.POST("/keys", s.apiKeyHandler.Create)
		admin.GET("/keys", s.apiKeyHandler.List)
		admin.GET("/keys/:id", s.apiKeyHandler.Get)
		admin.PATCH("/keys/:id", s.apiKeyHandler.Update)
		admin.DELETE("/keys/:id", s.apiKeyHandler.Delete)
		admin.GET("/analytics", s.analyticsHandler.GetSummary)
		admin.GET("/analytics/timeseries", s.analyticsHandler.GetTimeSeries)
		admin.GET("/analytics/keys/:id", s.analyticsHandler.GetAPIKeyStats)
		admin.POST("/chat/reset-breaker", s.resetChatBreaker)
	}

	v1 := s.router.Group("/v1")
	v1.Use(s.admission)
	{
		v1.POST("/chat", s.chatHandler.Complete)
		v1.GET("/*resourcePath", s.dataHandler.Serve)
	}

	s.router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed,
			envelope.Err(c.Request.URL.Path, "method "+c.Request.Method+" is not allowed here"))
	})

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound,
			envelope.Err(c.Request.URL.Path, "not found"))
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	overall := s.checker.Overall()

	statusCode := http.StatusOK
	if overall != healthcheck.Healthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    overall.String(),
		"service":   "mythos-api",
		"version":   envelope.Version,
		"timestamp": time.Now().Unix(),
		"checks":    s.checker.Snapshot(),
	})
}

func (s *Server) adminStatus(c *gin.Context) {
	ctx := c.Request.Context()
	keys, _ := s.apiKeyService.List(ctx)

	keysByTier := make(map[string]int64, 4)
	for _, tr := range tier.All() {
		if n, err := s.apiKeyService.CountByTier(ctx, tr.Name); err == nil {
			keysByTier[tr.Name] = n
		}
	}

	breaker := s.chatService.BreakerMetrics()

	c.JSON(http.StatusOK, gin.H{
		"gateway":      "running",
		"api_keys":     len(keys),
		"keys_by_tier": keysByTier,
		"uptime":       time.Since(startTime).Seconds(),
		"timestamp":    time.Now().Unix(),
		"chat_breaker": gin.H{
			"state":             breaker.State.String(),
			"failure_count":     breaker.FailureCount,
			"last_failure_time": breaker.LastFailureTime,
			"last_state_change": breaker.LastStateChange,
		},
	})
}

func (s *Server) resetChatBreaker(c *gin.Context) {
	s.chatService.ResetBreaker()
	c.JSON(http.StatusOK, gin.H{"message": "Chat circuit breaker reset"})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	s.logger.Info("starting mythos-api",
		zap.String("addr", addr),
		zap.String("environment", s.config.Server.Environment),
	)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.checker.Stop()
	close(s.stopRetention)

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

var startTime = time.Now()
