package healthcheck

import (
	"github.com/gofiber/fiber/v3"
)

func RegisterRoutes(r fiber.Router, m Models) {
	grp := r.Group("/health")

	grp.Get("/api", ApiHealthCheck)
	grp.Get("/database", DatabaseHealthCheck)
	grp.Get("/models", ModelsHealthCheck(m))
}
