// Package models defines the API response envelope for Hireloop.
package models

// APIResponse represents a standard API response with a success flag, status
// code, optional message and optional data.
type APIResponse struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithSuccess sets the success flag of the API response.
func (b *APIResponseBuilder) WithSuccess(success bool) *APIResponseBuilder {
	b.response.Success = success
	return b
}

// WithStatusCode sets the HTTP status code mirrored in the envelope.
func (b *APIResponseBuilder) WithStatusCode(code int) *APIResponseBuilder {
	b.response.StatusCode = code
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithData sets the data payload of the API response.
func (b *APIResponseBuilder) WithData(data interface{}) *APIResponseBuilder {
	b.response.Data = data
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Convenience functions for common response patterns

// Success creates a successful API response with optional data.
func Success(statusCode int, message string, data interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithSuccess(true).
		WithStatusCode(statusCode).
		WithMessage(message).
		WithData(data).
		Build()
}

// Error creates an error API response with a message.
func Error(statusCode int, message string) APIResponse {
	return NewAPIResponseBuilder().
		WithSuccess(false).
		WithStatusCode(statusCode).
		WithMessage(message).
		Build()
}
