package transit

import (
	"context"
	"log"
	"sync"

	"github.com/yourorg/subwaymap/internal/mbta"
)

// ============================================================================
// ROUTE AGGREGATOR - SHAPES DE VARIAS RUTAS EN PARALELO
// ============================================================================

// ShapeCollection agrupa los shapes resueltos de varias rutas junto con el
// mapeo shape -> ruta que usa el frontend para colorear
type ShapeCollection struct {
	Data         []mbta.Resource   `json:"data"`
	ShapeToRoute map[string]string `json:"shape_to_route"`
}

// shapeTask es el resultado explícito de la tarea de una ruta:
// o shapes resueltos o un error, nunca ambos
type shapeTask struct {
	routeID string
	shapes  []mbta.Resource
	err     error
}

// GetShapesForRoute obtiene los shapes crudos de una ruta y los reduce a
// sus patrones representativos (sin caché individual)
func (s *Service) GetShapesForRoute(ctx context.Context, routeID string) ([]mbta.Resource, error) {
	env, err := s.mbta.ShapesForRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return resolveShapes(routeID, env.Data), nil
}

// GetAllShapesForRoutes obtiene y resuelve los shapes de varias rutas en
// paralelo, una goroutine por ruta. Una ruta que falla se registra y se
// omite: las demás se sirven igual. El resultado combinado se cachea bajo
// la key canónica "shapes_<ids ordenados>".
func (s *Service) GetAllShapesForRoutes(ctx context.Context, routeIDs []string) (*ShapeCollection, error) {
	if len(routeIDs) == 0 {
		return &ShapeCollection{
			Data:         []mbta.Resource{},
			ShapeToRoute: map[string]string{},
		}, nil
	}

	key := shapesCacheKey(routeIDs)
	var cached ShapeCollection
	if s.store.Load(key, &cached) {
		return &cached, nil
	}

	log.Printf("🚇 Consultando shapes de %d rutas al API MBTA", len(routeIDs))

	// Una tarea por ruta; cada resultado aterriza en su propio slot
	tasks := make([]shapeTask, len(routeIDs))
	var wg sync.WaitGroup
	for i, routeID := range routeIDs {
		wg.Add(1)
		go func(slot int, id string) {
			defer wg.Done()
			shapes, err := s.GetShapesForRoute(ctx, id)
			tasks[slot] = shapeTask{routeID: id, shapes: shapes, err: err}
		}(i, routeID)
	}
	wg.Wait()

	// Con el contexto cancelado todas las tareas fallan; no se cachea un
	// resultado vacío por un cliente que se desconectó
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge en el orden de entrada
	result := &ShapeCollection{
		Data:         []mbta.Resource{},
		ShapeToRoute: map[string]string{},
	}
	for _, task := range tasks {
		if task.err != nil {
			log.Printf("❌ Error obteniendo shapes de la ruta %s: %v", task.routeID, task.err)
			continue
		}
		for _, shape := range task.shapes {
			result.Data = append(result.Data, shape)
			result.ShapeToRoute[shape.ID] = task.routeID
		}
	}

	s.store.Save(key, result)
	return result, nil
}
