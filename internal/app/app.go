package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taskhive/server/internal/module/analytics"
	"github.com/taskhive/server/internal/module/auth"
	"github.com/taskhive/server/internal/module/export"
	"github.com/taskhive/server/internal/module/notification"
	"github.com/taskhive/server/internal/module/task"
	"github.com/taskhive/server/internal/module/team"
	"github.com/taskhive/server/internal/module/user"
	"github.com/taskhive/server/internal/shared/cache"
	"github.com/taskhive/server/internal/shared/config"
	"github.com/taskhive/server/internal/shared/database"
	"github.com/taskhive/server/internal/shared/logger"
	"github.com/taskhive/server/internal/utils/metrics"
	"github.com/taskhive/server/internal/utils/middleware"
)

// App wires configuration, storage and modules into a runnable server.
type App struct {
	cfg    *config.Config
	router *gin.Engine
	db     *gorm.DB
	redis  redis.UniversalClient
	zapLog *zap.Logger
}

// New builds the application from configuration.
func New(cfg *config.Config) (*App, error) {
	slogLog := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	zapLog, err := newZapLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db,
		&user.User{},
		&task.Task{},
		&task.Attachment{},
		&team.Team{},
		&team.Member{},
		&notification.Notification{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	m := metrics.New("taskhive")

	jwtCfg := auth.DefaultJWTConfig()
	jwtCfg.Secret = cfg.Auth.JWTSecret
	if cfg.Auth.AccessTokenExpiry > 0 {
		jwtCfg.AccessTokenExpiry = cfg.Auth.AccessTokenExpiry
	}
	if cfg.Auth.RefreshTokenExpiry > 0 {
		jwtCfg.RefreshTokenExpiry = cfg.Auth.RefreshTokenExpiry
	}
	jwtManager := auth.NewJWTManager(jwtCfg)

	blobs, err := task.NewBlobStore(&cfg.Upload)
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	// Repositories
	userRepo := user.NewRepository(db)
	taskRepo := task.NewRepository(db)
	teamRepo := team.NewRepository(db)
	notificationRepo := notification.NewRepository(db)

	// Notification infrastructure
	unreadCache := notification.NewUnreadCache(redisClient)
	hub := notification.NewHub(m, zapLog)
	notificationService := notification.NewService(notificationRepo, unreadCache, hub, m, zapLog)

	// Domain services
	userService := user.NewService(userRepo, jwtManager, m, zapLog)
	teamService := team.NewService(teamRepo, notificationService, zapLog)
	taskService := task.NewService(taskRepo, blobs, notificationService, teamService, &cfg.Upload, m, zapLog)
	analyticsService := analytics.NewService(db, zapLog)
	exportService := export.NewService(taskService, zapLog)

	// Handlers
	userHandler := user.NewHandler(userService)
	taskHandler := task.NewHandler(taskService)
	teamHandler := team.NewHandler(teamService)
	notificationHandler := notification.NewHandler(
		notificationService, hub, wsOriginChecker(cfg.Server.AllowedOrigins), zapLog)
	analyticsHandler := analytics.NewHandler(analyticsService, teamService)
	exportHandler := export.NewHandler(exportService)

	router := buildRouter(cfg, slogLog, m, jwtManager,
		userHandler, taskHandler, teamHandler, notificationHandler, analyticsHandler, exportHandler)

	return &App{
		cfg:    cfg,
		router: router,
		db:     db,
		redis:  redisClient,
		zapLog: zapLog,
	}, nil
}

func buildRouter(
	cfg *config.Config,
	slogLog *logger.Logger,
	m *metrics.Metrics,
	jwtManager *auth.JWTManager,
	userHandler *user.Handler,
	taskHandler *task.Handler,
	teamHandler *team.Handler,
	notificationHandler *notification.Handler,
	analyticsHandler *analytics.Handler,
	exportHandler *export.Handler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
		corsCfg.AllowCredentials = true
	}

	router.Use(
		middleware.Recovery(slogLog),
		middleware.RequestID(),
		middleware.Logging(slogLog),
		middleware.Metrics(m),
		middleware.CORS(corsCfg),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	userHandler.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(jwtManager))

	userHandler.RegisterProtectedRoutes(protected)
	taskHandler.RegisterRoutes(protected)
	teamHandler.RegisterRoutes(protected)
	notificationHandler.RegisterRoutes(protected)
	analyticsHandler.RegisterRoutes(protected)
	exportHandler.RegisterRoutes(protected)

	return router
}

// wsOriginChecker allows websocket upgrades only from configured
// origins. An empty allowlist accepts everything.
func wsOriginChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	for _, origin := range allowed {
		if origin == "*" {
			return nil
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, candidate := range allowed {
			if strings.EqualFold(candidate, origin) {
				return true
			}
		}
		return false
	}
}

func newZapLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if strings.EqualFold(cfg.Format, "text") {
		devCfg := zap.NewDevelopmentConfig()
		return devCfg.Build()
	}
	prodCfg := zap.NewProductionConfig()
	if level, err := zap.ParseAtomicLevel(cfg.Level); err == nil {
		prodCfg.Level = level
	}
	return prodCfg.Build()
}

// Router returns the HTTP handler.
func (a *App) Router() http.Handler {
	return a.router
}

// Stop releases database and cache connections.
func (a *App) Stop() {
	if err := database.Close(a.db); err != nil {
		a.zapLog.Warn("failed to close database", zap.Error(err))
	}
	if err := cache.Close(a.redis); err != nil {
		a.zapLog.Warn("failed to close redis", zap.Error(err))
	}
	_ = a.zapLog.Sync()
}
