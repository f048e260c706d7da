package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/subwaymap/internal/cache"
	"github.com/yourorg/subwaymap/internal/mbta"
	"github.com/yourorg/subwaymap/internal/transit"
)

func main() {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("==== SubwayMap CLI ====")
		fmt.Println("1) Health check API")
		fmt.Println("2) Warm cache (lines, routes, stops, shapes)")
		fmt.Println("3) Clear cache")
		fmt.Println("4) Cache stats")
		fmt.Println("5) Exit")
		fmt.Print("Select option: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)
		switch choice {
		case "1":
			doHealthCheck()
		case "2":
			doWarmCache()
		case "3":
			doClearCache(reader)
		case "4":
			doStats()
		case "5":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Invalid option")
		}
		fmt.Println()
	}
}

func doHealthCheck() {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	url := strings.TrimRight(base, "/") + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("Health: ERROR:", err)
		return
	}
	defer resp.Body.Close()
	fmt.Println("Health status:", resp.Status)
}

// doWarmCache llena el caché en disco con la infraestructura completa del
// metro, para que el primer request del frontend nunca espere al API MBTA
func doWarmCache() {
	store, svc, err := buildService()
	if err != nil {
		log.Println("Warm: cache error:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	lines, err := svc.GetSubwayLines(ctx)
	if err != nil {
		log.Println("Warm: lines error:", err)
		return
	}
	fmt.Printf("Warm: %d líneas\n", len(lines))

	routes, err := svc.GetAllSubwayRoutes(ctx)
	if err != nil {
		log.Println("Warm: routes error:", err)
		return
	}
	fmt.Printf("Warm: %d rutas\n", len(routes.Data))

	routeIDs := make([]string, 0, len(routes.Data))
	for _, r := range routes.Data {
		if r.ID != "" {
			routeIDs = append(routeIDs, r.ID)
		}
	}

	stops, err := svc.GetAllStopsForRoutes(ctx, routeIDs)
	if err != nil {
		log.Println("Warm: stops error:", err)
		return
	}

	shapes, err := svc.GetAllShapesForRoutes(ctx, routeIDs)
	if err != nil {
		log.Println("Warm: shapes error:", err)
		return
	}

	fmt.Printf("Warm OK: %d paradas, %d shapes -> %s\n", len(stops), len(shapes.Data), store.Dir())
}

func doClearCache(reader *bufio.Reader) {
	store, _, err := buildService()
	if err != nil {
		log.Println("Clear: cache error:", err)
		return
	}

	fmt.Print("Cache key (enter = all): ")
	key, _ := reader.ReadString('\n')
	key = strings.TrimSpace(key)

	if key == "" || key == "all" {
		n := store.ClearAll()
		fmt.Printf("Clear: %d snapshots eliminados\n", n)
		return
	}
	if store.Clear(key) {
		fmt.Println("Clear: eliminado", key)
	} else {
		fmt.Println("Clear: no existe", key)
	}
}

func doStats() {
	store, _, err := buildService()
	if err != nil {
		log.Println("Stats: cache error:", err)
		return
	}

	stats := store.Stats()
	fmt.Printf("Snapshots en %s: %d total, %d válidos, %d expirados, %.2f MB (TTL %.0fh)\n",
		store.Dir(), stats.TotalFiles, stats.ValidFiles, stats.ExpiredFiles, stats.SizeMB, stats.TTLHours)
}

// buildService arma las mismas dependencias que el servidor, sin métricas
func buildService() (*cache.SnapshotStore, *transit.Service, error) {
	dir := os.Getenv("CACHE_DIR")
	if dir == "" {
		dir = "Data"
	}

	ttl := cache.DefaultTTL
	if hours := strings.TrimSpace(os.Getenv("CACHE_TTL_HOURS")); hours != "" {
		if h, err := strconv.Atoi(hours); err == nil && h > 0 {
			ttl = time.Duration(h) * time.Hour
		}
	}

	store, err := cache.NewSnapshotStore(dir, ttl, nil)
	if err != nil {
		return nil, nil, err
	}
	return store, transit.NewService(mbta.NewClient(nil), store), nil
}
