package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger логирует запросы предпросмотра. Stdout carries the MCP stream, so
// request logs go through the standard logger (stderr) instead of the fiber
// logger middleware.
func Logger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Printf("[PREVIEW] %d - %s %s %s", c.Response().StatusCode(), time.Since(start), c.Method(), c.Path())
		return err
	}
}
