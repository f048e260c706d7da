package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/subwaymap/internal/cache"
)

// ============================================================================
// CACHE ADMIN ENDPOINTS
// ============================================================================
// Endpoints para monitorear y limpiar el caché de snapshots en producción

// CacheAdminHandler expone el estado y la limpieza del snapshot store
type CacheAdminHandler struct {
	store *cache.SnapshotStore
}

// NewCacheAdminHandler crea una nueva instancia del handler
func NewCacheAdminHandler(store *cache.SnapshotStore) *CacheAdminHandler {
	return &CacheAdminHandler{store: store}
}

// GetStats retorna estadísticas del caché en disco
// GET /api/cache/stats
func (h *CacheAdminHandler) GetStats(c *fiber.Ctx) error {
	stats := h.store.Stats()

	return c.JSON(fiber.Map{
		"status": "ok",
		"dir":    h.store.Dir(),
		"cache":  stats,
	})
}

// Clear limpia un snapshot específico o todos
// DELETE /api/cache?key=subway_lines
// DELETE /api/cache?key=all
func (h *CacheAdminHandler) Clear(c *fiber.Ctx) error {
	key := c.Query("key", "all")

	if key == "all" {
		cleared := h.store.ClearAll()
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Cache cleared",
			"cleared": cleared,
		})
	}

	if !h.store.Clear(key) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Cache key not found",
			"key":   key,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Cache cleared",
		"key":     key,
		"cleared": 1,
	})
}
