package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/subwaymap/internal/mbta"
	"github.com/yourorg/subwaymap/internal/models"
	"github.com/yourorg/subwaymap/internal/validation"
)

// respondError traduce un error de servicio a su respuesta HTTP:
// input inválido -> 400, falla del API MBTA -> 502, cualquier otro -> 500
func respondError(c *fiber.Ctx, message string, err error) error {
	var inputErr *validation.RouteIDError
	if errors.As(err, &inputErr) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: inputErr.Error(),
		})
	}

	log.Printf("❌ %s: %v", message, err)

	var upstreamErr *mbta.UpstreamError
	if errors.As(err, &upstreamErr) {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   message,
			Details: err.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error:   message,
		Details: err.Error(),
	})
}
