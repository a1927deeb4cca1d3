package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/mecsentinel/internal/auth"
	"github.com/ukydev/mecsentinel/internal/db"
	"github.com/ukydev/mecsentinel/internal/middleware"
)

// aiRateWindowSeconds is the window of the per-user assistant rate limit.
const aiRateWindowSeconds = 60

// RouterConfig holds the dependencies of the HTTP API.
type RouterConfig struct {
	Auth        *auth.Service
	Users       db.UserCollection
	Vehicles    VehicleService
	CORSOrigins []string
	// AIRateLimit caps assistant calls per user per minute. Zero disables it.
	AIRateLimit int
	Logger      log.FieldLogger
}

// NewRouter builds the chi router serving the API.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	authHandler := NewAuthHandler(cfg.Auth, cfg.Users)
	vehicleHandler := NewVehicleHandler(cfg.Vehicles)
	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth)
	limiter := middleware.NewRateLimitMiddleware()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: len(origins) > 0 && origins[0] != "*",
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/signin", authHandler.SignIn)
		r.Post("/auth/signout", authHandler.SignOut)
		r.Post("/auth/set", authHandler.SetSession)
		r.Get("/auth/session", authHandler.Session)

		r.Get("/profile", authHandler.GetProfile)
		r.Put("/profile", authHandler.UpdateProfile)
		r.Post("/profile/password", authHandler.ChangePassword)

		r.Get("/dashboard", vehicleHandler.Dashboard)
		r.Post("/vehicles", vehicleHandler.Intake)
		r.Get("/vehicles/latest", vehicleHandler.Latest)
		r.Get("/vehicles/{id}/dashboard", vehicleHandler.VehicleDashboard)
		r.Post("/vehicles/{id}/odometer", vehicleHandler.UpdateOdometer)
		r.Get("/vehicles/{id}/rules", vehicleHandler.Rules)
		r.Put("/vehicles/{id}/rules/{category}", vehicleHandler.AdjustRule)
		r.Get("/vehicles/{id}/alerts", vehicleHandler.Alerts)
		r.Post("/alerts/{id}/seen", vehicleHandler.MarkAlertSeen)

		r.Group(func(r chi.Router) {
			if cfg.AIRateLimit > 0 {
				r.Use(limiter.RateLimit(cfg.AIRateLimit, aiRateWindowSeconds))
			}
			r.Post("/vehicles/{id}/rules/suggest", vehicleHandler.SuggestRules)
			r.Get("/vehicles/{id}/health", vehicleHandler.Health)
			r.Post("/vehicles/{id}/chat", vehicleHandler.Chat)
		})
	})

	return r
}
