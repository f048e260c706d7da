package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// ============================================================================
// ALERT & FACILITY HANDLERS
// ============================================================================

// GetAlertsForLine retorna las alertas de servicio vigentes de una línea,
// ordenadas por severidad descendente
// GET /api/alerts/:lineId
func (h *TransitHandler) GetAlertsForLine(c *fiber.Ctx) error {
	lineID := c.Params("lineId")
	log.Printf("⚠️ Alertas solicitadas para la línea %s", lineID)

	alerts, err := h.service.GetAlertsForLine(c.UserContext(), lineID)
	if err != nil {
		return respondError(c, "Failed to fetch alerts", err)
	}

	return c.JSON(fiber.Map{"data": alerts})
}

// GetFacilitiesForStop retorna las instalaciones de accesibilidad de una
// parada (ascensores, escaleras mecánicas)
// GET /api/facilities/:stopId
func (h *TransitHandler) GetFacilitiesForStop(c *fiber.Ctx) error {
	stopID := c.Params("stopId")

	facilities, err := h.service.GetFacilitiesForStop(c.UserContext(), stopID)
	if err != nil {
		return respondError(c, "Failed to fetch facilities", err)
	}

	return c.JSON(fiber.Map{"data": facilities})
}
