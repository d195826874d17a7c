package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// ContextResponse is the response body for GET /api/v1/context.
type ContextResponse struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	TenantID    string   `json:"tenant_id"`
	Authorities []string `json:"authorities"`
	Credential  string   `json:"credential"`
	KeyID       string   `json:"key_id,omitempty"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
	Error   string `json:"error,omitempty"`
}

// Endpoint describes one route in GET /docs.
type Endpoint struct {
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	Summary     string   `json:"summary"`
	Headers     []string `json:"headers,omitempty"`
	Responses   []int    `json:"responses"`
	RateLimited bool     `json:"rate_limited"`
}
