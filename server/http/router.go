package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"pricebook-recon/internal/config"
	"pricebook-recon/internal/middleware"
	recHnd "pricebook-recon/internal/reconcile/handler"
	"pricebook-recon/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.Server.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.Server.MaxUploadMB) << 20))

	// health-check
	r.Get("/health", handlers.Health)

	// сравнение двух снимков прайс-листа
	r.Post("/diff", recHnd.Diff(cfg, logger))

	return r
}
