package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"drawio-server/internal/common/config"
	"drawio-server/internal/common/middleware"
	"drawio-server/internal/diagram/handlers"
	"drawio-server/internal/diagram/history"
	"drawio-server/internal/diagram/repository"
	"drawio-server/internal/diagram/service"
	"drawio-server/internal/mcpserver"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// MCP Draw.io Server
// ============================================================

func main() {
	cfg := config.Load()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	archive := repository.New(db)
	if err := archive.Init(context.Background(), cfg.MigrationsPath); err != nil {
		log.Fatalf("init db: %v", err)
	}

	sessions := service.NewSessionManager()
	hist := history.NewStore()
	storage := service.NewFileStorage(cfg.ExportDir)
	preview := handlers.NewPreviewHandler(sessions)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Draw.io Preview",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Preview Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	app.Get("/", preview.Page)
	app.Get("/api/state", preview.GetState)
	app.Post("/api/state", preview.SetState)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf("localhost:%s", cfg.Port)
	go func() {
		log.Printf("Starting preview server on %s (env: %s)", addr, cfg.Environment)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Failed to start preview server: %v", err)
		}
	}()

	// MCP runs on stdin/stdout in the foreground; the preview server stays
	// up for as long as the protocol loop does.
	srv := mcpserver.New(sessions, hist, storage, archive, cfg.Port)
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("mcp server: %v", err)
	}
}
