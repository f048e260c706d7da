package mbta

import "fmt"

// UpstreamError representa una falla consultando el API de la MBTA:
// error de red, respuesta no-2xx o body que no se pudo decodificar.
type UpstreamError struct {
	Endpoint string
	Status   int    // 0 si nunca hubo respuesta HTTP
	Body     string // extracto del body para diagnóstico
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("MBTA API %s: status %d: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("MBTA API %s: %v", e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
