package handlers

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/subwaymap/internal/cache"
	"github.com/yourorg/subwaymap/internal/mbta"
)

// HealthResponse representa el estado de salud del sistema
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version,omitempty"`
}

// HealthHandler verifica el servicio y sus dependencias
type HealthHandler struct {
	client *mbta.Client
	store  *cache.SnapshotStore
}

// NewHealthHandler crea una nueva instancia del handler
func NewHealthHandler(client *mbta.Client, store *cache.SnapshotStore) *HealthHandler {
	return &HealthHandler{client: client, store: store}
}

// Health proporciona un health check completo del sistema
// GET /api/health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	services := make(map[string]string)
	overall := "healthy"

	// ============================================================================
	// CHECK: API MBTA
	// ============================================================================
	if h.client != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		if err := h.client.Ping(ctx); err != nil {
			services["mbta_api"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else {
			services["mbta_api"] = "healthy"
		}
	} else {
		services["mbta_api"] = "not_initialized"
		overall = "degraded"
	}

	// ============================================================================
	// CHECK: Snapshot cache
	// ============================================================================
	if h.store != nil {
		if err := h.store.Writable(); err != nil {
			services["snapshot_cache"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else {
			services["snapshot_cache"] = "healthy"
		}
	} else {
		services["snapshot_cache"] = "not_initialized"
		overall = "degraded"
	}

	// ============================================================================
	// Determinar código de estado HTTP
	// ============================================================================
	statusCode := fiber.StatusOK
	if overall == "degraded" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Version:   os.Getenv("APP_VERSION"),
	})
}
