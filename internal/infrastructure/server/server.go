package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/desktop/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/automation"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/directory"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/manager"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/storage"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// shutdownTimeout bounds the final session write and page teardown
const shutdownTimeout = 15 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	http      *http.Server
	config    *config.Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	store     *session.Store
	directory *directory.Directory
	manager   *manager.Manager
	pool      *automation.Pool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Service:     "desktop",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing AgentOS desktop core",
		zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("apps_dir", cfg.Directory.AppsDir),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("desktop", logger.Component("tracing"))

	backend, err := storage.Open(storage.Config{
		Backend: cfg.Storage.Backend,
		Root:    cfg.Storage.Root,
		URL:     cfg.Storage.URL,
		Timeout: cfg.Storage.Timeout,
		Guard: storage.GuardSettings{
			OnStateChange: func(state string) {
				metrics.RecordBreakerTransition(state)
				logger.Warn("Storage circuit changed state", zap.String("state", state))
			},
		},
	})
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	store := session.NewStore(backend, session.Options{
		Key:          cfg.Session.Key,
		Debounce:     cfg.Session.Debounce,
		WriteTimeout: cfg.Storage.Timeout,
		Compress:     cfg.Session.Compress,
		Defaults: session.Defaults{
			ThemeName:      cfg.Session.Theme,
			WallpaperImage: cfg.Session.Wallpaper,
			WallpaperFit:   types.WallpaperFit(cfg.Session.WallpaperFit),
		},
	}, logger.Component("session")).WithMetrics(metrics)

	dir := directory.Default(logger.Component("directory")).WithMetrics(metrics)

	viewport := types.Viewport{
		Width:         cfg.Viewport.Width,
		Height:        cfg.Viewport.Height,
		TaskbarHeight: cfg.Viewport.TaskbarHeight,
	}
	mgr := manager.New(dir, store, viewport, logger.Component("manager")).WithMetrics(metrics)

	automationCfg := automation.DefaultConfig()
	automationCfg.IdleTimeout = cfg.Automation.IdleTimeout
	automationCfg.SweepInterval = cfg.Automation.SweepInterval
	automationCfg.ScriptTimeout = cfg.Automation.ScriptTimeout
	fetcher := resty.New().
		SetTimeout(30*time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", automationCfg.UserAgent)
	pool := automation.NewPool(automation.NewScriptLauncher(fetcher), automationCfg, logger.Component("automation")).
		WithMetrics(metrics)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Register routes
	apihttp.NewHandlers(mgr, store, dir, pool, logger.Component("http")).Register(router)
	router.GET("/stream", ws.NewHandler(mgr, logger.Component("stream")).WithMetrics(metrics).HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	ctx, cancel := context.WithCancel(context.Background())
	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		store:     store,
		directory: dir,
		manager:   mgr,
		pool:      pool,
		ctx:       ctx,
		cancel:    cancel,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start loads application manifests, begins session hydration and starts
// the background workers. Run calls it; tests may call it directly.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		if root := s.config.Directory.AppsDir; root != "" {
			count, err := s.directory.LoadDir(s.ctx, root)
			if err != nil {
				s.logger.Warn("Failed to load application manifests", zap.String("root", root), zap.Error(err))
			} else {
				s.logger.Info("Loaded application manifests", zap.String("root", root), zap.Int("count", count))
			}
			if s.config.Directory.Watch {
				s.goBackground(func(ctx context.Context) {
					if err := s.directory.Watch(ctx, root); err != nil {
						s.logger.Warn("Manifest watcher stopped", zap.Error(err))
					}
				})
			}
		}

		s.manager.Start(s.ctx)
		s.goBackground(s.pool.Run)
	})
}

func (s *Server) goBackground(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.Start()
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server: stop accepting requests, stop
// background workers, write the final session snapshot, close pages
func (s *Server) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		s.logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		s.cancel()
		s.wg.Wait()

		if err := s.store.Close(ctx); err != nil {
			s.logger.Error("Failed to persist session", zap.Error(err))
			errs = append(errs, fmt.Errorf("session close: %w", err))
		}
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("automation shutdown: %w", err))
		}
		s.tracer.Close()

		s.logger.Info("Shutdown complete")
		s.logger.Close()
	})
	return errors.Join(errs...)
}
