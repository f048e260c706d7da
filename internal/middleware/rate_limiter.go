package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ============================================================================
// RATE LIMITING MIDDLEWARE
// ============================================================================
// Protege el backend contra abuso y ataques DDoS
// Implementa diferentes niveles según criticidad del endpoint

// GlobalRateLimiter - Limitador general para todos los endpoints
// 1000 requests por minuto por IP (producción moderada)
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
				"message":     "Too many requests. Please try again in 1 minute.",
			})
		},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
		LimiterMiddleware:      limiter.SlidingWindow{},
	})
}

// AggregateRateLimiter - Limitador para los endpoints agregados multi-ruta
// Cada request abre varias llamadas al API MBTA y escrituras a disco,
// por eso el límite es más estricto: 60 requests por minuto por IP
func AggregateRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Rate limit por IP + endpoint para mejor granularidad
			return c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Aggregate rate limit exceeded",
				"retry_after": 60,
				"message":     "Multi-route requests are limited to 60 per minute.",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// AdminRateLimiter - Limitador para operaciones administrativas del caché
// 10 requests por minuto (una limpieza completa borra todos los snapshots)
func AdminRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Admin rate limit exceeded",
				"retry_after": 60,
				"limit":       10,
				"window":      "1 minute",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
