package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aymenjlassi/darna-backend/api/controllers"
	"github.com/aymenjlassi/darna-backend/api/middleware"
	"github.com/aymenjlassi/darna-backend/internal/loans"
	"github.com/aymenjlassi/darna-backend/internal/profiles"
	"github.com/aymenjlassi/darna-backend/internal/properties"
	"github.com/aymenjlassi/darna-backend/internal/registrations"
	"github.com/aymenjlassi/darna-backend/pkg/config"
	"github.com/aymenjlassi/darna-backend/pkg/db"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
	"github.com/aymenjlassi/darna-backend/pkg/redis"
	"github.com/aymenjlassi/darna-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	gcsClient *gcs.Client,
	profileService profiles.Service,
	propertyService properties.Service,
	registrationService registrations.Service,
	loanService loans.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, controllers.ReadinessDeps(dbClient, redisClient, gcsClient)))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, profileService, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(redisClient, logg))

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/me", controllers.GetMyProfile(profileService, logg))
			r.Patch("/me", controllers.UpdateMyProfile(profileService, logg))
		})

		r.Route("/properties", func(r chi.Router) {
			r.Post("/", controllers.CreateProperty(propertyService, logg))
			r.Get("/mine", controllers.ListMyProperties(propertyService, logg))
			r.Get("/{propertyId}", controllers.GetProperty(propertyService, logg))
			r.Patch("/{propertyId}", controllers.UpdateProperty(propertyService, logg))
			r.Delete("/{propertyId}", controllers.DeactivateProperty(propertyService, logg))
		})

		r.Route("/registrations", func(r chi.Router) {
			r.Post("/", controllers.SubmitRegistration(registrationService, logg))
			r.Get("/{registrationId}", controllers.GetRegistration(registrationService, logg))
		})

		r.Get("/agents", controllers.ListApprovedAgents(registrationService, logg))

		r.Route("/applications", func(r chi.Router) {
			r.Post("/", controllers.CreateApplication(loanService, logg))
			r.Post("/quote", controllers.QuoteMonthlyPayment(logg))
			r.Get("/", controllers.ListApplications(loanService, logg))
			r.Get("/{applicationId}", controllers.GetApplication(loanService, logg))
			r.Patch("/{applicationId}", controllers.UpdateApplication(loanService, logg))
			r.Delete("/{applicationId}", controllers.DeleteApplication(loanService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ProfileRoleAdmin, logg))
			r.Post("/registrations/{registrationId}/review", controllers.ReviewRegistration(registrationService, logg))
		})
	})

	return r
}
