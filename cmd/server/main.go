package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"tripsplit/internal/handlers"
	appMiddleware "tripsplit/internal/middleware"
	"tripsplit/internal/services"
	"tripsplit/internal/store"
)

// buildPersistence picks the storage backend. STORAGE_BACKEND forces one of
// postgres|redis|memory; otherwise the first configured backend wins, with an
// in-memory fallback so the server always comes up.
func buildPersistence() services.Persistence {
	backend := os.Getenv("STORAGE_BACKEND")
	if backend == "" {
		switch {
		case os.Getenv("DATABASE_URL") != "":
			backend = "postgres"
		case os.Getenv("REDIS_URL") != "":
			backend = "redis"
		default:
			backend = "memory"
		}
	}

	switch backend {
	case "postgres":
		db, err := services.InitDB(os.Getenv("DATABASE_URL"))
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := services.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		return services.NewDBPersistence(db)
	case "redis":
		cache, err := services.NewRedisCache(os.Getenv("REDIS_URL"))
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		return services.NewBlobPersistence(cache)
	case "memory":
		log.Println("Warning: no storage backend configured, state will not survive restarts")
		return services.NewMemoryPersistence()
	default:
		log.Fatalf("Unknown STORAGE_BACKEND %q (want postgres, redis or memory)", backend)
		return nil
	}
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	persistence := buildPersistence()

	paymentStore := store.New(persistence)
	if err := paymentStore.Hydrate(context.Background()); err != nil {
		log.Printf("Warning: failed to load persisted state: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = appMiddleware.JSONErrorHandler

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentStore)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.GET("/payments", paymentHandler.GetState)
	api.POST("/payments", paymentHandler.ReplaceState)
	api.GET("/payments/summary", paymentHandler.Summary)
	api.GET("/payments/export", paymentHandler.Export)
	api.POST("/payments/import", paymentHandler.Import)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
