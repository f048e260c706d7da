package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/yourorg/subwaymap/internal/cache"
	"github.com/yourorg/subwaymap/internal/mbta"
	"github.com/yourorg/subwaymap/internal/metrics"
	"github.com/yourorg/subwaymap/internal/middleware"
	"github.com/yourorg/subwaymap/internal/routes"
	"github.com/yourorg/subwaymap/internal/transit"
)

func main() {
	_ = godotenv.Load()

	// ============================================================================
	// CONFIGURACIÓN
	// ============================================================================
	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "Data"
	}

	ttl := cache.DefaultTTL
	if hours := os.Getenv("CACHE_TTL_HOURS"); hours != "" {
		if h, err := strconv.Atoi(hours); err == nil && h > 0 {
			ttl = time.Duration(h) * time.Hour
		} else {
			log.Printf("⚠️ CACHE_TTL_HOURS inválido (%q), usando %v", hours, ttl)
		}
	}

	// ============================================================================
	// DEPENDENCIAS (métricas -> caché -> cliente MBTA -> servicio)
	// ============================================================================
	collector := metrics.NewCollector(ttl)

	store, err := cache.NewSnapshotStore(cacheDir, ttl, collector)
	if err != nil {
		log.Fatalf("❌ No se pudo inicializar el caché en %s: %v", cacheDir, err)
	}
	log.Printf("💾 Snapshot cache en %s (TTL %.0fh)", store.Dir(), store.TTL().Hours())

	client := mbta.NewClient(collector)
	svc := transit.NewService(client, store)

	// ============================================================================
	// SERVIDOR HTTP
	// ============================================================================
	app := fiber.New()
	app.Use(logger.New())
	app.Use(middleware.GlobalRateLimiter())
	app.Use(middleware.MetricsMiddleware(collector))

	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
	}))

	routes.Register(app, svc, client, store, collector)

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	// Capturar señales de terminación (Ctrl+C, kill, etc.)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n🛑 Señal de terminación recibida, cerrando servidor...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error cerrando servidor: %v", err)
		}

		log.Println("✅ Servidor cerrado correctamente")
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Servidor escuchando en :%s", port)
	log.Println("📍 Endpoints disponibles:")
	log.Println("   ═══ INFRAESTRUCTURA DEL METRO (cacheada en disco) ═══")
	log.Println("   GET    /api/lines                  - Líneas de metro")
	log.Println("   GET    /api/routes                 - Todas las rutas de metro")
	log.Println("   GET    /api/routes/:lineId         - Rutas de una línea")
	log.Println("   GET    /api/stops?route_ids=...    - Paradas de varias rutas")
	log.Println("   GET    /api/shapes?route_ids=...   - Shapes de varias rutas")
	log.Println("")
	log.Println("   ═══ TIEMPO REAL (directo al API MBTA) ═══")
	log.Println("   GET    /api/predictions/:routeId   - Predicciones de llegada")
	log.Println("   GET    /api/alerts/:lineId         - Alertas de servicio")
	log.Println("")
	log.Println("   ═══ OPERACIÓN ═══")
	log.Println("   GET    /api/health                 - Health check")
	log.Println("   GET    /api/cache/stats            - Estado del caché")
	log.Println("   DELETE /api/cache?key=...          - Limpiar caché")
	log.Println("   GET    /metrics                    - Métricas Prometheus")
	log.Println("")
	log.Println("💡 Presiona Ctrl+C para detener")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
