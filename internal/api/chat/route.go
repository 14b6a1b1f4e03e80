package chat

import (
	"ai-derm-assistant/internal/api/auth"
	"ai-derm-assistant/internal/core/pipeline"

	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers chat routes on the provided router.
func RegisterRoutes(r fiber.Router, p *pipeline.Pipeline) {
	h := NewHandler(p)
	grp := r.Group("/chats", auth.RequireAuth())

	grp.Post("/", h.HandleCreateChat)
	grp.Get("/", h.HandleListChats)
	grp.Get("/:id", h.HandleGetChat)
	grp.Get("/:id/messages", h.HandleListMessages)
	grp.Post("/:id/messages", h.HandleSendMessage)
}
