// Package handlers provides HTTP API request handlers.
package handlers

import "github.com/gin-gonic/gin"

// Error codes returned in ErrorResponse.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeRateLimited   = "RATE_LIMITED"
	CodeJobNotFound   = "JOB_NOT_FOUND"
	CodeNotAccepting  = "NOT_ACCEPTING"
	CodeInternalError = "INTERNAL_ERROR"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
