// ============================================================================
// MBTA API Client - SubwayMap
// ============================================================================
// Cliente HTTP para el API v3 de la MBTA (https://api-v3.mbta.com).
// Autentica con el header X-API-Key cuando hay key configurada y decodifica
// el envelope JSON:API de cada endpoint.
// ============================================================================

package mbta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/yourorg/subwaymap/internal/metrics"
)

const defaultBaseURL = "https://api-v3.mbta.com"

// Client es el cliente del API v3 de la MBTA
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Collector
}

// NewClient crea un nuevo cliente MBTA.
// La URL base se toma de MBTA_BASE_URL y la key de MBTA_API_KEY; sin key
// el API funciona igual con límites de tasa más bajos.
func NewClient(collector *metrics.Collector) *Client {
	baseURL := os.Getenv("MBTA_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  os.Getenv("MBTA_API_KEY"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		metrics: collector,
	}
}

// get ejecuta un GET contra el API y decodifica el envelope JSON:API.
// Cualquier falla (red, status no-2xx, body inválido) retorna *UpstreamError.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*Envelope, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	if c.metrics != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint).Inc()
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.fail(endpoint)
		return nil, &UpstreamError{Endpoint: endpoint, Err: fmt.Errorf("error making request: %w", err)}
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.fail(endpoint)
		return nil, &UpstreamError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.fail(endpoint)
		return nil, &UpstreamError{Endpoint: endpoint, Err: fmt.Errorf("error decoding response: %w", err)}
	}

	// El frontend espera arrays, nunca null
	if env.Data == nil {
		env.Data = []Resource{}
	}
	if env.Included == nil {
		env.Included = []Resource{}
	}

	return &env, nil
}

func (c *Client) fail(endpoint string) {
	if c.metrics != nil {
		c.metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
	}
}

// Ping verifica que el API MBTA responda.
// Pide una sola línea para que el health check sea barato.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("page[limit]", "1")
	_, err := c.get(ctx, "/lines", params)
	return err
}

// Lines obtiene todas las líneas.
// El endpoint /lines no soporta filtros por tipo de ruta.
func (c *Client) Lines(ctx context.Context) (*Envelope, error) {
	return c.get(ctx, "/lines", nil)
}

// SubwayRoutes obtiene todas las rutas de metro (route_type 0 y 1) con su
// línea incluida para los colores.
func (c *Client) SubwayRoutes(ctx context.Context) (*Envelope, error) {
	params := url.Values{}
	params.Set("filter[type]", "0,1")
	params.Set("include", "line")
	return c.get(ctx, "/routes", params)
}

// StopsForRoutes obtiene las paradas de una o más rutas
func (c *Client) StopsForRoutes(ctx context.Context, routeIDs []string) (*Envelope, error) {
	params := url.Values{}
	params.Set("filter[route]", strings.Join(routeIDs, ","))
	return c.get(ctx, "/stops", params)
}

// PredictionsForRoute obtiene las predicciones de una ruta con sus paradas
// incluidas para poder asociarlas
func (c *Client) PredictionsForRoute(ctx context.Context, routeID string) (*Envelope, error) {
	params := url.Values{}
	params.Set("filter[route]", routeID)
	params.Set("include", "stop")
	return c.get(ctx, "/predictions", params)
}

// PredictionsForStop obtiene las predicciones de una parada con parada y
// ruta incluidas
func (c *Client) PredictionsForStop(ctx context.Context, stopID string) (*Envelope, error) {
	params := url.Values{}
	params.Set("filter[stop]", stopID)
	params.Set("include", "stop,route")
	return c.get(ctx, "/predictions", params)
}

// ShapesForRoute obtiene los shapes (polylines) crudos de una ruta
func (c *Client) ShapesForRoute(ctx context.Context, routeID string) (*Envelope, error) {
	params := url.Values{}
	params.Set("filter[route]", routeID)
	return c.get(ctx, "/shapes", params)
}

// Alerts obtiene las alertas vigentes de un conjunto de rutas, ordenadas
// por severidad descendente por el propio API
func (c *Client) Alerts(ctx context.Context, routeIDs []string) (*Envelope, error) {
	params := url.Values{}
	params.Set("filter[route]", strings.Join(routeIDs, ","))
	params.Set("filter[datetime]", "NOW")
	params.Set("include", "routes")
	params.Set("sort", "-severity")
	return c.get(ctx, "/alerts", params)
}

// FacilitiesForStop obtiene las instalaciones (ascensores, escaleras
// mecánicas, etc.) de una parada
func (c *Client) FacilitiesForStop(ctx context.Context, stopID string) (*Envelope, error) {
	params := url.Values{}
	params.Set("filter[stop]", stopID)
	return c.get(ctx, "/facilities", params)
}
