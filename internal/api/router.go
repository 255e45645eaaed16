package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inkwell/inkwell-be/internal/api/handlers"
	"github.com/inkwell/inkwell-be/internal/auth"
	"github.com/inkwell/inkwell-be/internal/services"
	"github.com/inkwell/inkwell-be/internal/uploads"
	"github.com/inkwell/inkwell-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	sessionService services.SessionServiceProvider,
	blogService services.BlogServiceProvider,
	eventService services.EventServiceProvider,
	profileImages *uploads.Store,
	blogImages *uploads.Store,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration; credentials stay on so the session cookie flows.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, sessionService, profileImages)
	blogHandler := handlers.NewBlogHandler(blogService, blogImages, hub)
	eventHandler := handlers.NewEventHandler(eventService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	requireSession := auth.Middleware(sessionService, handlers.RespondUnauthorized)
	optionalSession := auth.Optional(sessionService)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Live blog feed
		r.Get("/ws", wsHandler.Serve)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(optionalSession).Get("/check", authHandler.Check)
			r.With(optionalSession).Post("/logout", authHandler.Logout)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(requireSession)
			r.Put("/", authHandler.UpdateProfile)
			r.Post("/image", authHandler.UploadImage)
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", blogHandler.GetAll)
			r.With(requireSession).Post("/", blogHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", blogHandler.Get)
				r.With(requireSession).Put("/", blogHandler.Update)
				r.With(requireSession).Delete("/", blogHandler.Delete)
			})
		})

		r.With(requireSession).Get("/events/recent", eventHandler.GetRecent)
	})

	return r
}
