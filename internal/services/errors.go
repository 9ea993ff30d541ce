// Package services provides the business logic layer between the HTTP
// handlers and the entity store.
package services

// Error codes surfaced to the handler layer
const (
	CodeNotFound = "NOT_FOUND"
	CodeInvalid  = "INVALID_REQUEST"
	CodeInternal = "INTERNAL"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}
