package validation

import (
	"fmt"
	"strings"
)

// RouteIDError representa un error de validación de IDs de ruta
type RouteIDError struct {
	Param   string
	Value   string
	Message string
}

func (e *RouteIDError) Error() string {
	return fmt.Sprintf("%s: %s (valor: %q)", e.Param, e.Message, e.Value)
}

// ValidRouteID valida un ID de ruta de la MBTA.
// Los IDs reales usan letras, dígitos, guión y guión bajo ("Red", "Green-B",
// "CR-Fitchburg", "741"); cualquier otro carácter se rechaza, lo que además
// mantiene las keys de caché derivadas como nombres de archivo planos.
func ValidRouteID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// ParseRouteIDs parsea una lista de IDs de ruta separados por coma.
// Recorta espacios por elemento y descarta los elementos vacíos.
// Retorna error si algún ID es inválido o si la lista queda vacía.
func ParseRouteIDs(param, raw string) ([]string, error) {
	ids := []string{}
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if !ValidRouteID(id) {
			return nil, &RouteIDError{
				Param:   param,
				Value:   id,
				Message: "ID de ruta inválido",
			}
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, &RouteIDError{
			Param:   param,
			Value:   raw,
			Message: "se requiere al menos un ID de ruta",
		}
	}

	return ids, nil
}
