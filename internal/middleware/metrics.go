package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/subwaymap/internal/metrics"
)

// MetricsMiddleware captura métricas de cada request
func MetricsMiddleware(collector *metrics.Collector) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if collector == nil {
			return c.Next()
		}

		start := time.Now()

		// Procesar request
		err := c.Next()

		// Calcular duración
		duration := time.Since(start)

		// c.Route().Path es la plantilla de la ruta (/api/stops/:routeId),
		// no el path literal, para mantener baja la cardinalidad
		status := strconv.Itoa(c.Response().StatusCode())
		collector.HTTPRequests.WithLabelValues(c.Method(), c.Route().Path, status).Inc()
		collector.HTTPDuration.Observe(duration.Seconds())

		return err
	}
}
