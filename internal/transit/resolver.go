package transit

import (
	"sort"
	"strings"

	"github.com/yourorg/subwaymap/internal/mbta"
)

// ============================================================================
// SHAPE RESOLVER - SELECCIÓN DE POLYLINES REPRESENTATIVOS
// ============================================================================
// El API de la MBTA retorna decenas de shapes por ruta (variantes de viaje,
// ramales, direcciones). Para dibujar el mapa solo interesan los patrones
// principales. Estrategia: preferir shapes "canonical-", conservar ramales
// distintos (Red Line: Ashmont y Braintree) y rankear por largo de polyline.

const (
	// canonicalPrefix marca los patrones principales publicados por la MBTA
	canonicalPrefix = "canonical-"

	// redLineID recibe trato especial: sus ramales tienen largos similares
	// pero trazados distintos, así que no se colapsan por largo
	redLineID = "Red"

	// routeIDAttr es el atributo reservado que anota la ruta dueña de cada
	// shape retornado
	routeIDAttr = "_route_id"

	// branchRatio es la diferencia relativa de largo a partir de la cual
	// dos shapes se consideran ramales distintos y no direcciones del mismo
	branchRatio = 0.15

	// Límites al rankear por largo
	redMaxShapes    = 5
	branchMaxShapes = 3
)

// resolveShapes reduce la lista cruda de shapes de una ruta a sus patrones
// representativos y anota cada uno con routeIDAttr.
// La entrada no se modifica: los shapes retornados son copias anotadas.
func resolveShapes(routeID string, all []mbta.Resource) []mbta.Resource {
	if len(all) == 0 {
		return []mbta.Resource{}
	}

	isRedLine := routeID == redLineID

	// Shapes canónicos sin duplicados exactos (gana el primero)
	canonical := make([]mbta.Resource, 0, len(all))
	seen := make(map[string]bool)
	for _, shape := range all {
		if !strings.HasPrefix(shape.ID, canonicalPrefix) {
			continue
		}
		if seen[shape.ID] {
			continue
		}
		seen[shape.ID] = true
		canonical = append(canonical, shape)
	}

	// Red Line: cada shape canónico es un ramal (Ashmont, Braintree) en una
	// dirección; se conservan todos en su orden de llegada
	if isRedLine && len(canonical) >= 2 {
		return annotate(canonical, routeID)
	}

	// Sin canónicos, o demasiados para una ruta sin ramales:
	// rankear todos los shapes por largo de polyline
	if (len(canonical) > 2 && !isRedLine) || len(canonical) == 0 {
		ranked := rankByPolyline(all, true)
		if len(ranked) > 0 {
			if len(canonical) > 0 {
				// Sumar el no-canónico más largo que no esté ya presente
				ids := make(map[string]bool, len(canonical))
				for _, s := range canonical {
					ids[s.ID] = true
				}
				for _, s := range ranked {
					if !ids[s.ID] {
						canonical = append(canonical, s)
						break
					}
				}
			} else {
				// Sin canónicos: los 2 más largos (uno por dirección)
				limit := 2
				if len(ranked) < limit {
					limit = len(ranked)
				}
				canonical = ranked[:limit]
			}
		}
	}

	// Dedup por ID base: "canonical-933_0010" y "933_0010" son el mismo
	// patrón; IDs base distintos son ramales distintos y se conservan
	deduped := make([]mbta.Resource, 0, len(canonical))
	seenBase := make(map[string]bool)
	for _, shape := range canonical {
		base := strings.TrimPrefix(shape.ID, canonicalPrefix)
		if seenBase[base] {
			continue
		}
		seenBase[base] = true
		deduped = append(deduped, shape)
	}
	if len(deduped) > 0 {
		canonical = deduped
	}

	// Con varios candidatos, decidir cuántos ramales mostrar
	if len(canonical) > 1 {
		ranked := rankByPolyline(canonical, false)
		maxLen := len(ranked[0].Polyline())
		minLen := len(ranked[len(ranked)-1].Polyline())

		if isRedLine {
			canonical = capped(ranked, redMaxShapes)
		} else {
			ratio := 0.0
			if maxLen > 0 {
				ratio = float64(maxLen-minLen) / float64(maxLen)
			}
			if ratio >= branchRatio {
				// Ramales distintos: hasta 3 shapes más largos
				canonical = capped(ranked, branchMaxShapes)
			} else {
				// Largos similares: direcciones del mismo ramal,
				// basta el más completo
				canonical = ranked[:1]
			}
		}
	}

	return annotate(canonical, routeID)
}

// rankByPolyline ordena shapes por largo de polyline descendente.
// Orden estable: los empates conservan su orden de llegada.
// Con skipEmpty descarta los shapes sin polyline.
func rankByPolyline(shapes []mbta.Resource, skipEmpty bool) []mbta.Resource {
	ranked := make([]mbta.Resource, 0, len(shapes))
	for _, s := range shapes {
		if skipEmpty && s.Polyline() == "" {
			continue
		}
		ranked = append(ranked, s)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ranked[i].Polyline()) > len(ranked[j].Polyline())
	})
	return ranked
}

func capped(shapes []mbta.Resource, limit int) []mbta.Resource {
	if len(shapes) > limit {
		return shapes[:limit]
	}
	return shapes
}

// annotate retorna copias de los shapes con routeIDAttr agregado;
// los recursos originales quedan intactos
func annotate(shapes []mbta.Resource, routeID string) []mbta.Resource {
	out := make([]mbta.Resource, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, s.WithAttribute(routeIDAttr, routeID))
	}
	return out
}
