package auth

import "github.com/gofiber/fiber/v3"

// RegisterRoutes registers auth routes on the provided router.
func RegisterRoutes(r fiber.Router) {
	grp := r.Group("/auth")

	grp.Post("/register", HandleRegister)
	grp.Post("/login", HandleLogin)
	grp.Post("/logout", HandleLogout)
}
