package bootstrap

import (
	"GreenSnapAPI/internal/adapter"
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/controller"
	"GreenSnapAPI/internal/metrics"
	"GreenSnapAPI/internal/middleware"
	"GreenSnapAPI/internal/repository"
	"GreenSnapAPI/internal/service"
	"GreenSnapAPI/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config    *config.AppConfig
	Store     repository.ReportStore
	DB        *gorm.DB
	Redis     *adapter.RedisAdapter
	S3        adapter.S3API
	Validator *validator.Validate
	Registry  *prometheus.Registry
	Hub       *websocket.Hub
}

type App struct {
	Router      *chi.Mux
	Metrics     *metrics.Metrics
	RateLimiter *config.RateLimiter
}

// Init wires repositories, services and controllers onto a new router. Redis is
// optional: without it rate limiting is process-local and failed asset cleanups
// are only logged.
func Init(deps Dependencies) *App {
	cfg := deps.Config

	m := metrics.NewMetrics(deps.Registry)
	chiMux := config.NewChi(cfg, m)

	repo := repository.NewRepository(deps.Store, deps.DB, deps.Redis)
	storageAdapter := adapter.NewStorageAdapter(cfg, deps.S3)

	var orphans service.OrphanQueue
	var counter middleware.WindowCounter
	if repo.OrphanAsset != nil {
		orphans = repo.OrphanAsset
	}
	if repo.RateLimit != nil {
		counter = repo.RateLimit
	}

	authService := service.NewAuthService(cfg, repo.User)
	lifecycleService := service.NewLifecycleService(repo.Report, authService)
	reportService := service.NewReportService(cfg, deps.Validator, repo.Report, storageAdapter, orphans, deps.Hub, m)
	triageService := service.NewTriageService(repo.Report, authService, repo.User, m)
	resolutionService := service.NewResolutionService(cfg, deps.Validator, repo.Report, authService, lifecycleService, storageAdapter, orphans, deps.Hub, m)

	rateLimiter := config.NewRateLimiter(cfg)

	route := NewRoute(
		cfg,
		chiMux,
		deps.Registry,
		middleware.NewAuthMiddleware(authService),
		middleware.NewRateLimitMiddleware(counter, rateLimiter, cfg),
		controller.NewReportController(cfg, reportService),
		controller.NewSupervisorController(cfg, triageService, resolutionService),
		controller.NewWebSocketController(deps.Hub, authService),
	)
	route.Register()

	return &App{
		Router:      chiMux,
		Metrics:     m,
		RateLimiter: rateLimiter,
	}
}
