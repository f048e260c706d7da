package mbta

// ============================================================================
// MODELOS JSON:API - MBTA V3
// ============================================================================
// Recursos genéricos del API v3 de la MBTA (https://api-v3.mbta.com).
// Atributos y relaciones se mantienen como mapas para reenviar al frontend
// todos los campos que entrega el API sin perder ninguno.

// Envelope es la respuesta estándar JSON:API: data + included
type Envelope struct {
	Data     []Resource `json:"data"`
	Included []Resource `json:"included"`
}

// Resource representa un recurso JSON:API (line, route, stop, shape, alert...)
type Resource struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	Relationships map[string]interface{} `json:"relationships,omitempty"`
	Links         map[string]interface{} `json:"links,omitempty"`
	Meta          map[string]interface{} `json:"meta,omitempty"`
}

// Polyline retorna el polyline codificado del shape ("" si no existe)
func (r Resource) Polyline() string {
	if r.Attributes == nil {
		return ""
	}
	s, _ := r.Attributes["polyline"].(string)
	return s
}

// LineID retorna el id de la línea asociada vía relationships.line.data.id
// ("" si la relación no existe)
func (r Resource) LineID() string {
	rel, ok := r.Relationships["line"].(map[string]interface{})
	if !ok {
		return ""
	}
	data, ok := rel["data"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := data["id"].(string)
	return id
}

// WithAttribute retorna una copia del recurso con el atributo agregado.
// El mapa de atributos original nunca se modifica.
func (r Resource) WithAttribute(key string, value interface{}) Resource {
	attrs := make(map[string]interface{}, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	r.Attributes = attrs
	return r
}

// WithLine retorna una copia del recurso con su relación line apuntando a
// lineID. El mapa de relaciones original nunca se modifica.
func (r Resource) WithLine(lineID string) Resource {
	rels := make(map[string]interface{}, len(r.Relationships)+1)
	for k, v := range r.Relationships {
		rels[k] = v
	}
	rels["line"] = map[string]interface{}{
		"data": map[string]interface{}{
			"id":   lineID,
			"type": "line",
		},
	}
	r.Relationships = rels
	return r
}
