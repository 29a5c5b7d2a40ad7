package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zaqqye/questionnaire_backend/internal/config"
	"github.com/zaqqye/questionnaire_backend/internal/database"
	"github.com/zaqqye/questionnaire_backend/internal/repository"
	"github.com/zaqqye/questionnaire_backend/internal/routes"
	"github.com/zaqqye/questionnaire_backend/internal/token"
	"github.com/zaqqye/questionnaire_backend/internal/ws"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var store *repository.Store
	switch cfg.Store {
	case "memory":
		store, _ = repository.NewMemoryStore()
		log.Println("Using in-memory store; data is lost on exit")
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		store = repository.NewGormStore(db)
		log.Println("Connected to PostgreSQL:", cfg.DBName)
	}

	ctx := context.Background()
	if err := database.SeedQuestions(ctx, store.Questions, cfg); err != nil {
		log.Fatalf("question seed failed: %v", err)
	}
	if err := database.SeedAdmin(ctx, store.Students, cfg); err != nil {
		log.Fatalf("admin seed failed: %v", err)
	}

	hubs := ws.NewHubs()
	hubs.Run()

	r := routes.New(routes.Deps{
		Store:  store,
		Tokens: token.NewService(cfg.JWTSecret, cfg.JWTExpires),
		Cfg:    cfg,
		Hubs:   hubs,
	})

	log.Printf("Server running on port %s (%s)", cfg.Port, cfg.Env)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Println("server exited with error:", err)
		os.Exit(1)
	}
}
