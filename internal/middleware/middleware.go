package middleware

import (
	"runtime/debug"

	"ai-derm-assistant/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ConnectionLimiter limits the number of concurrent connections
type ConnectionLimiter struct {
	limit    int
	waitlist chan struct{}
}

func NewConnectionLimiter(limit int) *ConnectionLimiter {
	return &ConnectionLimiter{
		limit:    limit,
		waitlist: make(chan struct{}, limit),
	}
}

func (cl *ConnectionLimiter) Acquire() bool {
	select {
	case cl.waitlist <- struct{}{}:
		return true
	default:
		return false
	}
}

func (cl *ConnectionLimiter) Release() {
	select {
	case <-cl.waitlist:
	default:
	}
}

// ConnectionLimit rejects requests beyond the concurrency cap.
func ConnectionLimit(limiter *ConnectionLimiter) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !limiter.Acquire() {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Server is at maximum capacity")
		}
		defer limiter.Release()
		return c.Next()
	}
}

// RequestID ensures every request carries an X-Request-ID for tracking.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Get("X-Request-ID") == "" {
			c.Request().Header.Set("X-Request-ID", uuid.NewString())
		}
		c.Set("X-Request-ID", c.Get("X-Request-ID"))
		return c.Next()
	}
}

// PanicRecovery converts handler panics into a 500 response.
func PanicRecovery() fiber.Handler {
	return func(c fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.WithFields(map[string]interface{}{
					"panic":  r,
					"method": c.Method(),
					"path":   c.Path(),
					"ip":     c.IP(),
					"stack":  string(stack),
				}).Errorf("Panic recovered")

				err := c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Internal Server Error",
					"message": "An unexpected error occurred",
				})
				if err != nil {
					logger.WithField("error", err).Errorf("Failed to send error response")
				}
			}
		}()
		return c.Next()
	}
}
