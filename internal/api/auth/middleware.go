package auth

import (
	"strings"
	"time"

	"ai-derm-assistant/config"
	"ai-derm-assistant/internal/database"
	"ai-derm-assistant/internal/database/model"
	"ai-derm-assistant/pkg/apperror"

	"github.com/gofiber/fiber/v3"
)

const localsUserID = "user_id"

// RequireAuth resolves the bearer token to a live session and stores the
// owning user ID in the request locals.
func RequireAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return apperror.Unauthorized(config.ModuleAuth, c, "missing bearer token")
		}
		db, err := database.GetDB()
		if err != nil {
			return apperror.InternalError(config.ModuleAuth, c, err)
		}
		var session model.Session
		if err := db.Where("token = ?", token).First(&session).Error; err != nil {
			return apperror.Unauthorized(config.ModuleAuth, c, "invalid session")
		}
		if session.ExpiresAt != nil && session.ExpiresAt.Before(time.Now()) {
			_ = db.Delete(&session).Error
			return apperror.Unauthorized(config.ModuleAuth, c, "session expired")
		}
		c.Locals(localsUserID, session.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated user ID stored by RequireAuth.
func UserID(c fiber.Ctx) int64 {
	id, _ := c.Locals(localsUserID).(int64)
	return id
}

func bearerToken(c fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
