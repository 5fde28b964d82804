package routes

import (
	"net/http"

	"github.com/Dosada05/tictactoe-arena/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	corsOrigin string,
	authenticate func(http.Handler) http.Handler,
	authHandler *handlers.AuthHandler,
	matchHandler *handlers.MatchHandler,
	healthHandler *handlers.HealthHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/profile", authHandler.Profile)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", matchHandler.Create)
			r.Get("/available", matchHandler.ListAvailable)
			r.Get("/user/matches", matchHandler.ListMine)

			r.Route("/{matchID}", func(r chi.Router) {
				r.Get("/", matchHandler.Get)
				r.Post("/join", matchHandler.Join)
				r.Post("/move", matchHandler.Move)
			})
		})
	})

	// Authenticated via token query parameter, see WebSocketHandler.
	router.Get("/ws", webSocketHandler.ServeWS)
}
