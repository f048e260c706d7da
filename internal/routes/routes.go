package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/yourorg/subwaymap/internal/cache"
	"github.com/yourorg/subwaymap/internal/handlers"
	"github.com/yourorg/subwaymap/internal/mbta"
	"github.com/yourorg/subwaymap/internal/metrics"
	"github.com/yourorg/subwaymap/internal/middleware"
	"github.com/yourorg/subwaymap/internal/models"
	"github.com/yourorg/subwaymap/internal/transit"
)

// Register monta todos los endpoints del API.
// Todas las dependencias llegan por parámetro; no hay estado global.
func Register(app *fiber.App, svc *transit.Service, client *mbta.Client, store *cache.SnapshotStore, collector *metrics.Collector) {
	// ============================================================================
	// ENDPOINTS RAÍZ
	// ============================================================================
	app.Get("/", func(c *fiber.Ctx) error {
		version := os.Getenv("APP_VERSION")
		if version == "" {
			version = "1.0.0"
		}
		return c.JSON(models.ServiceInfo{
			Message: "MBTA Subway Map API",
			Version: version,
		})
	})

	// Métricas Prometheus (registry propio del collector, no el global)
	if collector != nil {
		app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))
	}

	// ============================================================================
	// API PÚBLICA (Endpoints para el frontend)
	// ============================================================================
	api := app.Group("/api")

	// Initialize handlers
	transitHandler := handlers.NewTransitHandler(svc)
	healthHandler := handlers.NewHealthHandler(client, store)
	cacheAdminHandler := handlers.NewCacheAdminHandler(store)

	// Health check (sin rate limiting)
	api.Get("/health", healthHandler.Health)

	// ============================================================================
	// LÍNEAS Y RUTAS
	// ============================================================================
	api.Get("/lines", transitHandler.GetLines)
	// GET /api/lines
	// Las cuatro líneas de metro (Red, Orange, Blue, Green)

	api.Get("/routes", transitHandler.GetAllRoutes)
	// GET /api/routes
	// Todas las rutas de metro; Mattapan aparece bajo la línea Red

	api.Get("/routes/:lineId", transitHandler.GetRoutesForLine)
	// GET /api/routes/line-Green
	// Rutas de una línea (las ramas del Green Line, por ejemplo)

	// ============================================================================
	// PARADAS
	// ============================================================================
	api.Get("/stops", middleware.AggregateRateLimiter(), transitHandler.GetAllStops)
	// GET /api/stops?route_ids=Red,Orange,Blue
	// Paradas de varias rutas en un solo request (agregado, cacheado en disco)

	api.Get("/stops/:routeId", transitHandler.GetStopsForRoute)
	// GET /api/stops/Red

	// ============================================================================
	// SHAPES (GEOMETRÍA DE RUTAS)
	// ============================================================================
	api.Get("/shapes", middleware.AggregateRateLimiter(), transitHandler.GetAllShapes)
	// GET /api/shapes?route_ids=Red,Orange,Blue
	// Shapes de varias rutas: fan-out concurrente + selección de variantes

	api.Get("/shapes/:routeId", transitHandler.GetShapes)
	// GET /api/shapes/Green-B

	// ============================================================================
	// PREDICCIONES (TIEMPO REAL, SIN CACHÉ)
	// ============================================================================
	api.Get("/predictions/stop/:stopId", transitHandler.GetPredictionsForStop)
	// GET /api/predictions/stop/place-pktrm

	api.Get("/predictions/:routeId", transitHandler.GetPredictionsForRoute)
	// GET /api/predictions/Red

	// ============================================================================
	// ALERTAS E INSTALACIONES
	// ============================================================================
	api.Get("/alerts/:lineId", transitHandler.GetAlertsForLine)
	// GET /api/alerts/line-Red
	// Alertas de servicio de la línea, ordenadas por severidad

	api.Get("/facilities/:stopId", transitHandler.GetFacilitiesForStop)
	// GET /api/facilities/place-pktrm
	// Ascensores y escaleras mecánicas de la parada

	// ============================================================================
	// CACHE ADMIN (operaciones administrativas, rate limiting estricto)
	// ============================================================================
	api.Get("/cache/stats", cacheAdminHandler.GetStats)
	// GET /api/cache/stats

	api.Delete("/cache", middleware.AdminRateLimiter(), cacheAdminHandler.Clear)
	// DELETE /api/cache?key=subway_lines
	// DELETE /api/cache?key=all
}
