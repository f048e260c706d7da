package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/subwaymap/internal/transit"
	"github.com/yourorg/subwaymap/internal/validation"
)

// ============================================================================
// TRANSIT HANDLERS - LÍNEAS, RUTAS Y PARADAS
// ============================================================================
// Endpoints de infraestructura estática del metro. Todos delegan al servicio,
// que decide qué viene del caché en disco y qué se pide al API MBTA.

// TransitHandler atiende los endpoints de datos del metro
type TransitHandler struct {
	service *transit.Service
}

// NewTransitHandler crea una nueva instancia del handler
func NewTransitHandler(service *transit.Service) *TransitHandler {
	return &TransitHandler{service: service}
}

// GetLines retorna las líneas de metro (Red, Orange, Blue, Green)
// GET /api/lines
func (h *TransitHandler) GetLines(c *fiber.Ctx) error {
	lines, err := h.service.GetSubwayLines(c.UserContext())
	if err != nil {
		return respondError(c, "Failed to fetch subway lines", err)
	}

	return c.JSON(fiber.Map{"data": lines})
}

// GetAllRoutes retorna todas las rutas de metro con sus líneas incluidas.
// Las rutas de Mattapan vienen reasignadas a la línea Red.
// GET /api/routes
func (h *TransitHandler) GetAllRoutes(c *fiber.Ctx) error {
	routes, err := h.service.GetAllSubwayRoutes(c.UserContext())
	if err != nil {
		return respondError(c, "Failed to fetch subway routes", err)
	}

	return c.JSON(routes)
}

// GetRoutesForLine retorna las rutas que pertenecen a una línea
// GET /api/routes/:lineId
func (h *TransitHandler) GetRoutesForLine(c *fiber.Ctx) error {
	lineID := c.Params("lineId")
	log.Printf("🚇 Rutas solicitadas para la línea %s", lineID)

	routes, err := h.service.GetRoutesForLine(c.UserContext(), lineID)
	if err != nil {
		return respondError(c, "Failed to fetch routes for line", err)
	}

	return c.JSON(routes)
}

// GetStopsForRoute retorna las paradas de una ruta
// GET /api/stops/:routeId
func (h *TransitHandler) GetStopsForRoute(c *fiber.Ctx) error {
	routeID := c.Params("routeId")

	stops, err := h.service.GetStopsForRoute(c.UserContext(), routeID)
	if err != nil {
		return respondError(c, "Failed to fetch stops", err)
	}

	return c.JSON(fiber.Map{"data": stops})
}

// GetAllStops retorna las paradas de varias rutas en una sola respuesta
// GET /api/stops?route_ids=Red,Orange,Blue
func (h *TransitHandler) GetAllStops(c *fiber.Ctx) error {
	routeIDs, err := validation.ParseRouteIDs("route_ids", c.Query("route_ids"))
	if err != nil {
		return respondError(c, "Invalid route_ids parameter", err)
	}

	stops, err := h.service.GetAllStopsForRoutes(c.UserContext(), routeIDs)
	if err != nil {
		return respondError(c, "Failed to fetch stops", err)
	}

	return c.JSON(fiber.Map{"data": stops})
}
