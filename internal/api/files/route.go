package files

import (
	"ai-derm-assistant/internal/api/auth"

	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers the file-serving route.
func RegisterRoutes(r fiber.Router) {
	r.Get("/files/:name", HandleGetFile, auth.RequireAuth())
}
