package healthcheck

import (
	"context"
	"time"

	"ai-derm-assistant/config"
	"ai-derm-assistant/internal/core/knowledge"
	"ai-derm-assistant/internal/core/vocab"
	"ai-derm-assistant/internal/database"
	"ai-derm-assistant/pkg/apperror"

	"github.com/gofiber/fiber/v3"
)

// Models reports readiness of the inference components loaded at startup.
type Models struct {
	Vocabulary vocab.Vocabulary
	Knowledge  *knowledge.Base
	Classifier bool
}

func ApiHealthCheck(c fiber.Ctx) error {
	return c.SendString("ok")
}

func DatabaseHealthCheck(c fiber.Ctx) error {
	db, err := database.GetDB()
	if err != nil {
		return apperror.InternalError(config.ModuleDatabase, c, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return apperror.InternalError(config.ModuleDatabase, c, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperror.InternalError(config.ModuleDatabase, c, err)
	}
	return c.SendString("ok")
}

func ModelsHealthCheck(m Models) fiber.Handler {
	return func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"classifier_loaded": m.Classifier,
			"labels":            len(m.Vocabulary),
			"diseases":          m.Knowledge.Len(),
		})
	}
}
