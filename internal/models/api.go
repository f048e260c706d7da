package models

// ErrorResponse is a simple error shape for API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ServiceInfo es la respuesta informativa del endpoint raíz
type ServiceInfo struct {
	Message string `json:"message"`
	Version string `json:"version"`
}
