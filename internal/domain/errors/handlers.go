package errors

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	StatusCode int          `json:"statusCode"`          // HTTP status code
	Message    string       `json:"message"`             // User-friendly error message
	Error      string       `json:"error"`               // Business error code, e.g., "INVALID_CREDENTIALS"
	Details    string       `json:"details,omitempty"`   // Detailed error information (optional)
	Fields     []FieldError `json:"fields,omitempty"`    // Per-field validation failures
	RequestID  string       `json:"requestId,omitempty"` // Request tracking ID
}
