package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kartlane/storefront-backend/api/controllers"
	"github.com/kartlane/storefront-backend/api/middleware"
	designersvc "github.com/kartlane/storefront-backend/internal/designer"
	discountsvc "github.com/kartlane/storefront-backend/internal/discounts"
	paymentsvc "github.com/kartlane/storefront-backend/internal/payments"
	tokensvc "github.com/kartlane/storefront-backend/internal/tokens"
	"github.com/kartlane/storefront-backend/pkg/config"
	"github.com/kartlane/storefront-backend/pkg/db"
	"github.com/kartlane/storefront-backend/pkg/logger"
	"github.com/kartlane/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	discountsService discountsvc.Service,
	tokensService tokensvc.Service,
	paymentsService paymentsvc.Service,
	designerService designersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.StoreContext(logg))

			r.Route("/v1/discounts", func(r chi.Router) {
				r.Get("/", controllers.DiscountRuleList(discountsService, logg))
				r.Post("/", controllers.DiscountRuleCreate(discountsService, logg))
				r.Patch("/{ruleId}/status", controllers.DiscountRuleUpdateStatus(discountsService, logg))
				r.Delete("/{ruleId}", controllers.DiscountRuleDelete(discountsService, logg))
				r.Post("/evaluate", controllers.DiscountEvaluate(discountsService, logg))
			})

			r.Route("/v1/tokens", func(r chi.Router) {
				r.Get("/balance", controllers.TokenBalance(tokensService, logg))
				r.Post("/purchases", controllers.TokenPurchaseInitiate(paymentsService, logg))
				r.Post("/purchases/confirm", controllers.TokenPurchaseConfirm(paymentsService, logg))
			})

			r.Route("/v1/designer", func(r chi.Router) {
				r.Post("/generate", controllers.DesignerGenerate(designerService, logg))
				r.Get("/design", controllers.DesignFetch(designerService, logg))
				r.Delete("/design", controllers.DesignReset(designerService, logg))
				r.Get("/history", controllers.DesignerHistory(designerService, logg))
				r.Post("/history/{historyId}/apply", controllers.DesignApply(designerService, logg))
			})
		})
	})

	return r
}
