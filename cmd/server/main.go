package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zytronium/star-trek-battle-sim/internal/config"
	"github.com/Zytronium/star-trek-battle-sim/internal/database"
	"github.com/Zytronium/star-trek-battle-sim/internal/handler"
	"github.com/Zytronium/star-trek-battle-sim/internal/middleware"
	"github.com/Zytronium/star-trek-battle-sim/internal/repository"
	"github.com/Zytronium/star-trek-battle-sim/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	catalogRepo := repository.NewCatalogRepository(db)

	// Services
	tuning := service.DefaultTuning()
	catalogSvc := service.NewCatalogService(catalogRepo)
	resolver := service.NewCombatResolver(tuning)
	aiEngine := service.NewAIDecisionEngine(tuning, rand.New(rand.NewSource(time.Now().UnixNano())))
	webhookSvc := service.NewWebhookService(cfg.DiscordWebhookBattles)
	authSvc := service.NewGuestAuthService(cfg.JWTSecret)
	wsHub := service.NewWSHub()
	gameSvc := service.NewGameService(catalogSvc, resolver, aiEngine, wsHub, webhookSvc, cfg.AIPacing, cfg.SessionGCGrace)
	roomSvc := service.NewRoomService(gameSvc, wsHub)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// Health
	healthH := handler.NewHealthHandler(db)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// API v1
	v1 := app.Group("/api/v1")

	// Auth (public)
	authH := handler.NewAuthHandler(authSvc)
	v1.Post("/auth/guest", middleware.RateLimit(10, time.Minute), authH.Guest)

	// Catalog (public, read-only)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	catalog := v1.Group("/catalog")
	catalog.Get("/ships", catalogH.ListShips)
	catalog.Get("/ships/full", catalogH.ListShipsFull)
	catalog.Get("/ships/:id", catalogH.GetShip)
	catalog.Get("/ships/:id/full", catalogH.GetShipFull)
	catalog.Get("/bosses", catalogH.ListBosses)
	catalog.Get("/weapons/:id", catalogH.GetWeapon)
	catalog.Get("/defenses/:id", catalogH.GetDefense)

	// Admin
	admin := v1.Group("/admin", middleware.AdminKey(cfg.AdminKey))
	adminH := handler.NewAdminHandler(gameSvc, roomSvc, wsHub)
	admin.Get("/stats", adminH.Stats)

	// WebSocket
	wsH := handler.NewWSHandler(wsHub, authSvc, gameSvc, roomSvc)
	app.Get("/ws", wsH.Upgrade)

	// Start hub
	go wsHub.Run()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("Battle sim backend running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	wsHub.Shutdown()
	log.Println("Server stopped")
}
