// Main entry point of the mealvault application. It initializes the
// configuration, database pool, services and handlers, sets up the HTTP
// router and middleware, and starts the server with graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/user/mealvault-go/auth"
	"github.com/user/mealvault-go/config"
	"github.com/user/mealvault-go/db"
	"github.com/user/mealvault-go/httpx"
	"github.com/user/mealvault-go/recipes"
	"github.com/user/mealvault-go/storage"
	"github.com/user/mealvault-go/taxonomy"
	"github.com/user/mealvault-go/users"
)

func main() {
	// .env support is a development convenience; production sets variables
	// directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := db.EnableExtensions(pool); err != nil {
		log.Fatalf("Failed to enable extensions: %v", err)
	}
	if err := db.RunMigrations(cfg.DB, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	imageStore, err := newImageStore(cfg.Media)
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}

	// Manual dependency injection: services get their dependencies through
	// constructors, handlers get their services.
	authService := auth.NewService(pool, *cfg.Auth)
	authHandlers := auth.NewHandlers(authService)

	userService := users.NewService(pool, *cfg.Auth)
	userHandlers := users.NewHandlers(userService)

	tagHandlers := taxonomy.NewHandlers(taxonomy.NewService(pool, taxonomy.Tags))
	ingredientHandlers := taxonomy.NewHandlers(taxonomy.NewService(pool, taxonomy.Ingredients))

	recipeHandlers := recipes.NewHandlers(recipes.NewService(pool, imageStore), cfg.Media.MaxUploadBytes)

	r := newRouter(routerDeps{
		auth:        authHandlers,
		users:       userHandlers,
		tags:        tagHandlers,
		ingredients: ingredientHandlers,
		recipes:     recipeHandlers,
		resolver:    authService,
		media:       cfg.Media,
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// newImageStore selects the image backend from configuration.
func newImageStore(cfg *config.MediaConfig) (storage.ImageStore, error) {
	switch cfg.Backend {
	case config.MediaBackendS3:
		return storage.NewS3Store(context.Background(), cfg.S3)
	default:
		return storage.NewFSStore(cfg.Dir)
	}
}

// routerDeps bundles everything newRouter needs, so tests can assemble a
// router around fakes.
type routerDeps struct {
	auth        *auth.Handlers
	users       *users.Handlers
	tags        *taxonomy.Handlers
	ingredients *taxonomy.Handlers
	recipes     *recipes.Handlers
	resolver    auth.TokenResolver
	media       *config.MediaConfig
}

// newRouter builds the full route table. Account creation and token
// exchange are the only endpoints outside the token middleware.
func newRouter(deps routerDeps) chi.Router {
	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Unsupported methods and unknown paths answer in the same JSON error
	// shape as every other failure.
	r.MethodNotAllowed(httpx.MethodNotAllowed())
	r.NotFound(httpx.NotFound())

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/create", deps.auth.HandleCreateUser())
		r.Post("/token", deps.auth.HandleCreateToken())

		r.Route("/me", func(r chi.Router) {
			r.Use(auth.TokenMiddleware(deps.resolver))
			r.Get("/", deps.users.HandleGetProfile())
			r.Put("/", deps.users.HandleUpdateProfile())
			r.Patch("/", deps.users.HandleUpdateProfile())
		})
	})

	r.Route("/api/recipe", func(r chi.Router) {
		r.Use(auth.TokenMiddleware(deps.resolver))

		r.Route("/tags", deps.tags.RegisterRoutes)
		r.Route("/ingredients", deps.ingredients.RegisterRoutes)
		r.Route("/recipes", deps.recipes.RegisterRoutes)
	})

	// Uploaded images are served as static files when the file backend is
	// active; the S3 backend returns absolute object URLs instead.
	if deps.media != nil && deps.media.Backend == config.MediaBackendFile {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(deps.media.Dir)))
		r.Get("/media/*", func(w http.ResponseWriter, req *http.Request) {
			fileServer.ServeHTTP(w, req)
		})
	}

	return r
}
