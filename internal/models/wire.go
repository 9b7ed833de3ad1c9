package models

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST /chat
type ChatResponse struct {
	Response string `json:"response"`
}

// HealthResponse is the body returned by GET /health and GET /ready
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
