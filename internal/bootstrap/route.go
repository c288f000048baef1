package bootstrap

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/controller"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/middleware"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Route struct {
	cfg                  *config.AppConfig
	chi                  *chi.Mux
	gatherer             prometheus.Gatherer
	authMiddleware       *middleware.AuthMiddleware
	rateLimitMiddleware  *middleware.RateLimitMiddleware
	reportController     *controller.ReportController
	supervisorController *controller.SupervisorController
	wsController         *controller.WebSocketController
}

func NewRoute(
	cfg *config.AppConfig,
	chi *chi.Mux,
	gatherer prometheus.Gatherer,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	reportController *controller.ReportController,
	supervisorController *controller.SupervisorController,
	wsController *controller.WebSocketController,
) *Route {
	return &Route{
		cfg:                  cfg,
		chi:                  chi,
		gatherer:             gatherer,
		authMiddleware:       authMiddleware,
		rateLimitMiddleware:  rateLimitMiddleware,
		reportController:     reportController,
		supervisorController: supervisorController,
		wsController:         wsController,
	}
}

func (route *Route) Register() {
	route.chi.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to GreenSnapAPI"))
	})

	route.chi.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		helper.WriteSuccess(w, "ok")
	})

	route.chi.Handle("/metrics", promhttp.HandlerFor(route.gatherer, promhttp.HandlerOpts{}))

	route.chi.With(route.authMiddleware.VerifyWSToken).Get("/ws", route.wsController.ServeWS)

	createLimit := route.rateLimitMiddleware.Limit("create_report", route.cfg.ResolveRateLimit, route.cfg.ResolveRateWindow)
	resolveLimit := route.rateLimitMiddleware.Limit("resolve_report", route.cfg.ResolveRateLimit, route.cfg.ResolveRateWindow)

	route.chi.Route("/api", func(r chi.Router) {
		r.Use(route.authMiddleware.VerifyToken)

		r.Route("/reports", func(r chi.Router) {
			r.With(createLimit).Post("/", route.reportController.CreateReport)
			r.Get("/near", route.reportController.ListNear)
			r.Get("/{reportID}", route.reportController.GetReport)
		})

		r.Route("/supervisor/reports", func(r chi.Router) {
			r.Get("/", route.supervisorController.ListReports)
			r.Get("/{reportID}", route.supervisorController.GetReport)
			r.With(resolveLimit).Put("/{reportID}/resolve", route.supervisorController.ResolveReport)
		})
	})
}
