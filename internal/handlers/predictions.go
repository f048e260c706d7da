package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// ============================================================================
// PREDICTION HANDLERS - LLEGADAS EN TIEMPO REAL
// ============================================================================
// Las predicciones son datos vivos: cada request va directo al API MBTA,
// nunca al caché en disco.

// GetPredictionsForRoute retorna las predicciones de llegada de una ruta
// GET /api/predictions/:routeId
func (h *TransitHandler) GetPredictionsForRoute(c *fiber.Ctx) error {
	routeID := c.Params("routeId")

	predictions, err := h.service.GetPredictionsForRoute(c.UserContext(), routeID)
	if err != nil {
		return respondError(c, "Failed to fetch predictions", err)
	}

	return c.JSON(predictions)
}

// GetPredictionsForStop retorna las predicciones de llegada de una parada
// GET /api/predictions/stop/:stopId
func (h *TransitHandler) GetPredictionsForStop(c *fiber.Ctx) error {
	stopID := c.Params("stopId")

	predictions, err := h.service.GetPredictionsForStop(c.UserContext(), stopID)
	if err != nil {
		return respondError(c, "Failed to fetch predictions", err)
	}

	return c.JSON(predictions)
}
