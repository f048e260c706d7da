package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/subwaymap/internal/mbta"
	"github.com/yourorg/subwaymap/internal/validation"
)

// ============================================================================
// SHAPE HANDLERS - GEOMETRÍA DE RUTAS
// ============================================================================
// Los shapes que salen por estos endpoints ya pasaron por la selección de
// variantes del servicio: solo trazados canónicos o el mejor fallback, cada
// uno anotado con su _route_id.

// GetShapes retorna los shapes representativos de una ruta
// GET /api/shapes/:routeId
func (h *TransitHandler) GetShapes(c *fiber.Ctx) error {
	routeID := c.Params("routeId")

	shapes, err := h.service.GetShapesForRoute(c.UserContext(), routeID)
	if err != nil {
		return respondError(c, "Failed to fetch shapes", err)
	}

	return c.JSON(fiber.Map{"data": shapes})
}

// GetAllShapes retorna los shapes de varias rutas en una sola respuesta.
// Las rutas que fallen upstream se omiten en lugar de tumbar la respuesta.
// GET /api/shapes?route_ids=Red,Orange,Blue
func (h *TransitHandler) GetAllShapes(c *fiber.Ctx) error {
	routeIDs, err := validation.ParseRouteIDs("route_ids", c.Query("route_ids"))
	if err != nil {
		return respondError(c, "Invalid route_ids parameter", err)
	}

	log.Printf("🗺️ Shapes solicitados para %d rutas", len(routeIDs))

	collection, err := h.service.GetAllShapesForRoutes(c.UserContext(), routeIDs)
	if err != nil {
		return respondError(c, "Failed to fetch shapes", err)
	}

	// El mapeo shape->ruta es interno del caché; el frontend solo
	// consume data e included
	return c.JSON(fiber.Map{
		"data":     collection.Data,
		"included": []mbta.Resource{},
	})
}
