package handlers

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"

	"drawio-server/internal/diagram/service"
)

// ============================================================
// Preview Handlers
// ============================================================

// PreviewHandler serves the browser preview page and the polling state API
// that shuttles the current diagram XML to and from the browser.
type PreviewHandler struct {
	sessions *service.SessionManager
}

func NewPreviewHandler(sessions *service.SessionManager) *PreviewHandler {
	return &PreviewHandler{sessions: sessions}
}

// Page отдает страницу предпросмотра с встроенным draw.io.
func (h *PreviewHandler) Page(c fiber.Ctx) error {
	sessionID := c.Query("mcp")
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}

	page := strings.NewReplacer(
		"__SESSION__", sessionID,
		"__SESSION_SHORT__", short,
	).Replace(previewPage)

	c.Type("html", "utf-8")
	return c.SendString(page)
}

// GetState returns the latest state for a session (polled by the browser).
func (h *PreviewHandler) GetState(c fiber.Ctx) error {
	sessionID := c.Query("session")

	state, ok := h.sessions.Get(sessionID)
	if !ok {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(fiber.Map{
		"xml": state.XML,
		"svg": state.SVG,
	})
}

type setStateRequest struct {
	Session string `json:"session"`
	XML     string `json:"xml"`
	SVG     string `json:"svg"`
}

// SetState stores state pushed from the browser after an edit there.
func (h *PreviewHandler) SetState(c fiber.Ctx) error {
	var req setStateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Session == "" || req.XML == "" {
		return c.Status(400).JSON(fiber.Map{"error": "session and xml required"})
	}

	h.sessions.Set(req.Session, req.XML, req.SVG)
	log.Printf("[PREVIEW] State updated for session %s (%d bytes)", req.Session, len(req.XML))

	return c.JSON(fiber.Map{"status": "ok"})
}
