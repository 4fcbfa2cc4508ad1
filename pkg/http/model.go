package http

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// Message is the bare {"message": ...} body used by the informational endpoints.
type Message struct {
	Message string `json:"message"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"report_id"`
	Message string                 `json:"message,omitempty" example:"report_id is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
