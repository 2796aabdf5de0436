package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farellandr/runnershive/config"
	"github.com/farellandr/runnershive/internal/cache"
	"github.com/farellandr/runnershive/internal/clock"
	"github.com/farellandr/runnershive/internal/flash"
	"github.com/farellandr/runnershive/internal/handlers"
	"github.com/farellandr/runnershive/internal/helpers"
	"github.com/farellandr/runnershive/internal/logger"
	"github.com/farellandr/runnershive/internal/metrics"
	"github.com/farellandr/runnershive/internal/middleware"
	"github.com/farellandr/runnershive/internal/repository"
	"github.com/farellandr/runnershive/internal/services"
	"github.com/farellandr/runnershive/internal/storage"
	"github.com/farellandr/runnershive/internal/web"
)

// Dependencies is everything the router needs. UploadDir is only set when
// images are kept on the local disk.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Renderer   *web.Renderer
	Flash      *flash.Store
	Auth       *services.AuthService
	Events     *services.EventService
	Categories *services.CategoryService
	Contacts   *services.ContactService
	UploadDir  string
	Health     func(ctx context.Context) error
}

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer log.Sync() //nolint:errcheck

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	deps, err := wire(cfg, db, log)
	if err != nil {
		return err
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := NewRouter(deps)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	return r.Run(addr)
}

func wire(cfg *config.Config, db *gorm.DB, log *zap.Logger) (Dependencies, error) {
	clk := clock.New(cfg.Location())
	m := metrics.New()

	images, uploadDir, err := imageStore(cfg, log)
	if err != nil {
		return Dependencies{}, fmt.Errorf("failed to initialize image store: %v", err)
	}

	renderer, err := web.NewRenderer(images)
	if err != nil {
		return Dependencies{}, fmt.Errorf("failed to load templates: %v", err)
	}

	categoryRepo := repository.NewCategoryRepository(db)
	categories := services.NewCategoryService(categoryRepo, nil, cfg.CategoryCacheTTL, m, log)
	if categoryCache := newCategoryCache(cfg, log); categoryCache != nil {
		categories = services.NewCategoryService(categoryRepo, categoryCache, cfg.CategoryCacheTTL, m, log)
		// the seed file may have changed the categories since the last run
		if err := categories.Invalidate(context.Background()); err != nil {
			log.Warn("failed to invalidate category cache", zap.Error(err))
		}
	}

	return Dependencies{
		Config:     cfg,
		Logger:     log,
		Metrics:    m,
		Renderer:   renderer,
		Flash:      flash.NewStore(cfg.Auth.JWTSecret, cfg.Auth.CookieSecure),
		Auth:       services.NewAuthService(repository.NewUserRepository(db), cfg.Auth.JWTSecret, cfg.Auth.JWTExpiration, clk, log),
		Events:     services.NewEventService(repository.NewEventRepository(db), categories, images, clk, m, log),
		Categories: categories,
		Contacts:   services.NewContactService(repository.NewContactRepository(db), m, log),
		UploadDir:  uploadDir,
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}, nil
}

func imageStore(cfg *config.Config, log *zap.Logger) (storage.ImageStore, string, error) {
	switch cfg.Images.Store {
	case "cloudinary":
		store, err := storage.NewCloudinaryStore(cfg.Images.CloudinaryURL, log)
		return store, "", err
	case "minio":
		store, err := storage.NewMinIOStore(context.Background(), cfg.Images.MinIO)
		return store, "", err
	default:
		store := storage.NewLocalStore(cfg.Images.UploadDir, "/uploads")
		return store, store.Dir(), nil
	}
}

// newCategoryCache returns nil when redis is disabled or unreachable, in
// which case categories are always read from the database.
func newCategoryCache(cfg *config.Config, log *zap.Logger) *cache.Cache {
	if !cfg.Redis.Enabled {
		return nil
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, category cache disabled", zap.Error(err))
		return nil
	}
	return cache.New(client, log)
}

func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.HTMLRender = deps.Renderer
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(deps.Metrics),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			log.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
			helpers.RespondWithError(c, http.StatusInternalServerError, "")
		}),
	)

	r.NoRoute(func(c *gin.Context) {
		helpers.RespondWithError(c, http.StatusNotFound, "")
	})

	setupRoutes(r, deps)

	return r
}

func setupRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.UploadDir != "" {
		r.Static("/uploads", deps.UploadDir)
	}

	eventHandler := handlers.NewEventHandler(deps.Events, deps.Categories, deps.Flash, cfg.Location(), deps.Logger)
	profileHandler := handlers.NewProfileHandler(deps.Events, deps.Flash, deps.Logger)
	contactHandler := handlers.NewContactHandler(deps.Contacts, deps.Flash, deps.Logger)
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Flash, cfg.Auth.CookieSecure, deps.Logger)

	public := r.Group("/")
	public.Use(middleware.Authenticate(deps.Auth))
	{
		public.GET("/events/:slug/calendar.ics", calendarCORS(cfg.CORS.AllowedOrigins), eventHandler.Calendar)
		public.GET("/events/:slug/qr.png", eventHandler.ShareCode)
	}

	pages := public.Group("/")
	pages.Use(middleware.CSRF([]byte(cfg.Auth.CSRFKey), cfg.Auth.CookieSecure))
	{
		pages.GET("/", eventHandler.Home)
		pages.GET("/events/", eventHandler.ListEvents)
		pages.GET("/events/:slug/", eventHandler.GetEvent)

		pages.GET("/contact/", contactHandler.ContactForm)
		pages.POST("/contact/", contactHandler.SubmitContact)

		pages.GET("/accounts/login/", authHandler.LoginForm)
		pages.POST("/accounts/login/", authHandler.Login)
		pages.GET("/accounts/signup/", authHandler.SignupForm)
		pages.POST("/accounts/signup/", authHandler.Signup)
		pages.POST("/accounts/logout/", authHandler.Logout)
	}

	protected := pages.Group("/events")
	protected.Use(middleware.RequireLogin())
	{
		protected.GET("/create/", eventHandler.NewEvent)
		protected.POST("/create/", eventHandler.CreateEvent)
		protected.GET("/profile/", profileHandler.GetProfile)
		protected.GET("/:slug/edit/", eventHandler.EditEvent)
		protected.POST("/:slug/edit/", eventHandler.UpdateEvent)
		protected.GET("/:slug/delete/", eventHandler.DeleteEvent)
		protected.POST("/:slug/delete/", eventHandler.DeleteEvent)
		protected.GET("/:slug/toggle_cancel/", eventHandler.ToggleCancel)
		protected.POST("/:slug/toggle_cancel/", eventHandler.ToggleCancel)
	}
}

// calendarCORS lets other sites fetch the calendar feed. With no configured
// origins every origin is allowed.
func calendarCORS(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{http.MethodGet}
	if len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	return cors.New(corsConfig)
}
