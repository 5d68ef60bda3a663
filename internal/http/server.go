package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/dende197/g-connect-backend/internal/argo"
	"github.com/dende197/g-connect-backend/internal/config"
)

type Server struct {
	// DB may be nil: the profile store is optional and login must work
	// without it.
	DB       *sqlx.DB
	Config   config.Config
	Argo     *argo.Client
	Validate *validator.Validate
}

func NewServer(db *sqlx.DB, cfg config.Config) *Server {
	return &Server{
		DB:       db,
		Config:   cfg,
		Argo:     argo.New(argo.FromConfig(cfg)),
		Validate: validator.New(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Post("/login", s.Login)
	r.Post("/sync", s.Sync)
	r.Get("/health", s.Health)

	r.Route("/api", func(api chi.Router) {
		api.Post("/resolve-profile", s.ResolveProfile)
		api.Get("/profile/{userID}", s.GetProfile)
		api.Put("/profile", s.UpdateProfile)
	})

	return r
}
