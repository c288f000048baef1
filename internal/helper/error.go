package helper

import "net/http"

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation_error"
	KindNotFound          ErrorKind = "not_found"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindUpload            ErrorKind = "upload_error"
	KindPersistence       ErrorKind = "persistence_error"
	KindRateLimited       ErrorKind = "rate_limited"
	KindMethodNotAllowed  ErrorKind = "method_not_allowed"
	KindUnavailable       ErrorKind = "unavailable"
)

const (
	MsgInternalServerError = "Internal Server Error"
	MsgBadRequest          = "Bad Request"
	MsgNotFound            = "Not Found"
	MsgUnauthorized        = "Unauthorized"
	MsgForbidden           = "Forbidden"
	MsgConflict            = "Conflict"
	MsgBadGateway          = "Bad Gateway"
	MsgMethodNotAllowed    = "Method Not Allowed"
	MsgTooManyRequests     = "Too Many Requests"
	MsgServiceUnavailable  = "Service Unavailable"
)

type AppError struct {
	Code    int
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, kind ErrorKind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	if message == "" {
		message = MsgBadRequest
	}
	return NewAppError(http.StatusBadRequest, KindValidation, message)
}

func NewNotFoundError(message string) *AppError {
	if message == "" {
		message = MsgNotFound
	}
	return NewAppError(http.StatusNotFound, KindNotFound, message)
}

func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = MsgUnauthorized
	}
	return NewAppError(http.StatusUnauthorized, KindUnauthorized, message)
}

// NewForbiddenError is the capability-check flavour of unauthorized: the caller
// is authenticated but lacks the role.
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = MsgForbidden
	}
	return NewAppError(http.StatusForbidden, KindUnauthorized, message)
}

func NewInvalidTransitionError(message string) *AppError {
	if message == "" {
		message = MsgConflict
	}
	return NewAppError(http.StatusConflict, KindInvalidTransition, message)
}

func NewUploadError(message string) *AppError {
	if message == "" {
		message = MsgBadGateway
	}
	return NewAppError(http.StatusBadGateway, KindUpload, message)
}

func NewPersistenceError(message string) *AppError {
	if message == "" {
		message = MsgInternalServerError
	}
	return NewAppError(http.StatusInternalServerError, KindPersistence, message)
}

func NewMethodNotAllowedError(message string) *AppError {
	if message == "" {
		message = MsgMethodNotAllowed
	}
	return NewAppError(http.StatusMethodNotAllowed, KindMethodNotAllowed, message)
}

func NewTooManyRequestsError(message string) *AppError {
	if message == "" {
		message = MsgTooManyRequests
	}
	return NewAppError(http.StatusTooManyRequests, KindRateLimited, message)
}

func NewServiceUnavailableError(message string) *AppError {
	if message == "" {
		message = MsgServiceUnavailable
	}
	return NewAppError(http.StatusServiceUnavailable, KindUnavailable, message)
}
