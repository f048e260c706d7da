// ============================================================================
// TRANSIT SERVICE - SubwayMap
// ============================================================================
// Capa de servicio entre los handlers HTTP y el API de la MBTA.
// Integra: cliente MBTA + snapshot cache + resolución de shapes
// ============================================================================

package transit

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/yourorg/subwaymap/internal/cache"
	"github.com/yourorg/subwaymap/internal/mbta"
)

// Líneas de metro con nombre de color; excluye el Mattapan Trolley
var subwayLineIDs = []string{"line-Red", "line-Orange", "line-Blue", "line-Green"}

const (
	redLineFullID      = "line-Red"
	mattapanLineFullID = "line-Mattapan"

	linesCacheKey  = "subway_lines"
	routesCacheKey = "all_subway_routes"
)

// Service orquesta el cliente MBTA y el snapshot cache
type Service struct {
	mbta  *mbta.Client
	store *cache.SnapshotStore
}

// NewService crea una instancia del servicio de tránsito
func NewService(client *mbta.Client, store *cache.SnapshotStore) *Service {
	return &Service{
		mbta:  client,
		store: store,
	}
}

// ============================================================================
// LÍNEAS Y RUTAS
// ============================================================================

// GetSubwayLines retorna las líneas de metro (Red, Orange, Blue, Green).
// El endpoint /lines no permite filtrar por tipo de ruta, así que el
// filtrado ocurre aquí. Resultado cacheado bajo "subway_lines".
func (s *Service) GetSubwayLines(ctx context.Context) ([]mbta.Resource, error) {
	var cached []mbta.Resource
	if s.store.Load(linesCacheKey, &cached) {
		return cached, nil
	}

	log.Printf("🚇 Consultando líneas de metro al API MBTA")
	env, err := s.mbta.Lines(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]mbta.Resource, 0, len(subwayLineIDs))
	for _, line := range env.Data {
		if isSubwayLine(line.ID) {
			lines = append(lines, line)
		}
	}

	s.store.Save(linesCacheKey, lines)
	return lines, nil
}

func isSubwayLine(id string) bool {
	for _, lineID := range subwayLineIDs {
		if id == lineID {
			return true
		}
	}
	return false
}

// GetAllSubwayRoutes retorna todas las rutas de metro con sus líneas
// incluidas. Las rutas del Mattapan Trolley se presentan como parte de la
// Red Line (es la extensión del ramal Ashmont) y la línea Mattapan se
// omite del included. Resultado cacheado bajo "all_subway_routes".
func (s *Service) GetAllSubwayRoutes(ctx context.Context) (*mbta.Envelope, error) {
	var cached mbta.Envelope
	if s.store.Load(routesCacheKey, &cached) {
		return &cached, nil
	}

	log.Printf("🚇 Consultando rutas de metro al API MBTA")
	env, err := s.mbta.SubwayRoutes(ctx)
	if err != nil {
		return nil, err
	}

	routes := make([]mbta.Resource, 0, len(env.Data))
	mattapan := []mbta.Resource{}
	for _, route := range env.Data {
		if route.LineID() == mattapanLineFullID {
			mattapan = append(mattapan, route.WithLine(redLineFullID))
			continue
		}
		routes = append(routes, route)
	}
	routes = append(routes, mattapan...)

	included := make([]mbta.Resource, 0, len(env.Included))
	for _, line := range env.Included {
		if line.ID != mattapanLineFullID {
			included = append(included, line)
		}
	}

	result := &mbta.Envelope{Data: routes, Included: included}
	s.store.Save(routesCacheKey, result)
	return result, nil
}

// GetRoutesForLine retorna las rutas de una línea. /routes no soporta
// filter[line], así que se filtra por la relación line de cada ruta.
// Para line-Red se agregan además las rutas de Mattapan reapuntadas a la
// Red Line. No se cachea.
func (s *Service) GetRoutesForLine(ctx context.Context, lineID string) (*mbta.Envelope, error) {
	env, err := s.mbta.SubwayRoutes(ctx)
	if err != nil {
		return nil, err
	}

	routes := make([]mbta.Resource, 0, len(env.Data))
	for _, route := range env.Data {
		if route.LineID() == lineID {
			routes = append(routes, route)
		}
	}

	if lineID == redLineFullID {
		for _, route := range env.Data {
			if route.LineID() == mattapanLineFullID {
				routes = append(routes, route.WithLine(redLineFullID))
			}
		}
	}

	return &mbta.Envelope{Data: routes, Included: env.Included}, nil
}

// ============================================================================
// PARADAS
// ============================================================================

// GetStopsForRoute retorna las paradas de una ruta (sin caché)
func (s *Service) GetStopsForRoute(ctx context.Context, routeID string) ([]mbta.Resource, error) {
	env, err := s.mbta.StopsForRoutes(ctx, []string{routeID})
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetAllStopsForRoutes retorna las paradas de varias rutas con una sola
// consulta upstream. Resultado cacheado bajo la key canónica
// "stops_<ids ordenados>".
func (s *Service) GetAllStopsForRoutes(ctx context.Context, routeIDs []string) ([]mbta.Resource, error) {
	if len(routeIDs) == 0 {
		return []mbta.Resource{}, nil
	}

	key := stopsCacheKey(routeIDs)
	var cached []mbta.Resource
	if s.store.Load(key, &cached) {
		return cached, nil
	}

	env, err := s.mbta.StopsForRoutes(ctx, routeIDs)
	if err != nil {
		return nil, err
	}

	s.store.Save(key, env.Data)
	return env.Data, nil
}

// ============================================================================
// PREDICCIONES - NUNCA SE CACHEAN
// ============================================================================

// GetPredictionsForRoute retorna las predicciones de una ruta con sus
// paradas incluidas. Siempre frescas del API.
func (s *Service) GetPredictionsForRoute(ctx context.Context, routeID string) (*mbta.Envelope, error) {
	return s.mbta.PredictionsForRoute(ctx, routeID)
}

// GetPredictionsForStop retorna las predicciones de una parada con parada
// y ruta incluidas. Siempre frescas del API.
func (s *Service) GetPredictionsForStop(ctx context.Context, stopID string) (*mbta.Envelope, error) {
	return s.mbta.PredictionsForStop(ctx, stopID)
}

// ============================================================================
// ALERTAS E INSTALACIONES
// ============================================================================

// GetAlertsForLine retorna las alertas vigentes de una línea, ordenadas por
// severidad descendente. Resuelve primero las rutas de la línea y luego
// consulta las alertas de esas rutas.
func (s *Service) GetAlertsForLine(ctx context.Context, lineID string) ([]mbta.Resource, error) {
	routesEnv, err := s.GetRoutesForLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if len(routesEnv.Data) == 0 {
		return []mbta.Resource{}, nil
	}

	routeIDs := make([]string, 0, len(routesEnv.Data))
	for _, route := range routesEnv.Data {
		if route.ID != "" {
			routeIDs = append(routeIDs, route.ID)
		}
	}
	if len(routeIDs) == 0 {
		return []mbta.Resource{}, nil
	}

	env, err := s.mbta.Alerts(ctx, routeIDs)
	if err != nil {
		return nil, err
	}

	// El API ya ordena con sort=-severity; el backend reafirma el orden
	alerts := append([]mbta.Resource(nil), env.Data...)
	sort.SliceStable(alerts, func(i, j int) bool {
		return alertSeverity(alerts[i]) > alertSeverity(alerts[j])
	})
	return alerts, nil
}

// alertSeverity lee attributes.severity (0 si falta)
func alertSeverity(alert mbta.Resource) float64 {
	if alert.Attributes == nil {
		return 0
	}
	switch v := alert.Attributes["severity"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// GetFacilitiesForStop retorna las instalaciones (ascensores, escaleras
// mecánicas, etc.) de una parada
func (s *Service) GetFacilitiesForStop(ctx context.Context, stopID string) ([]mbta.Resource, error) {
	env, err := s.mbta.FacilitiesForStop(ctx, stopID)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ============================================================================
// KEYS DE CACHÉ
// ============================================================================

func stopsCacheKey(routeIDs []string) string {
	return aggregateKey("stops", routeIDs)
}

func shapesCacheKey(routeIDs []string) string {
	return aggregateKey("shapes", routeIDs)
}

// aggregateKey arma la key canónica <prefix>_<ids ordenados>: el mismo set
// de rutas produce la misma key sin importar el orden pedido
func aggregateKey(prefix string, routeIDs []string) string {
	ids := append([]string(nil), routeIDs...)
	sort.Strings(ids)
	return prefix + "_" + strings.Join(ids, "_")
}
