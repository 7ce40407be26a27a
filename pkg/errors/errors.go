package errors

import (
	"errors"
	"net/http"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidContent         = errors.New("invalid content")
	ErrPersistence            = errors.New("persistence failure")
	ErrNotFound               = errors.New("not found")
	ErrRateLimited            = errors.New("rate limited")
	ErrStorage                = errors.New("storage unavailable")
	ErrConflict               = errors.New("conflict")
	ErrInvalidCredentials     = errors.New("invalid credentials")
)

// Коды, которые уходят клиентам сокета в событиях error
const (
	CodeAuthenticationRequired = "AuthenticationRequired"
	CodeForbidden              = "Forbidden"
	CodeInvalidContent         = "InvalidContent"
	CodePersistenceFailure     = "PersistenceFailure"
	CodeNotFound               = "NotFound"
	CodeRateLimited            = "RateLimited"
	CodeStorageFailure         = "StorageFailure"
	CodeConflict               = "Conflict"
	CodeInvalidCredentials     = "InvalidCredentials"
	CodeInternal               = "Internal"
)

type APIError struct {
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(err error) *APIError {
	return &APIError{
		Message: err.Error(),
		Code:    Code(err),
	}
}

// HTTPStatusFromError переводит ошибку (в том числе обернутую) в HTTP статус
func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, ErrAuthenticationRequired), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidContent):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrStorage):
		return http.StatusBadGateway
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code код ошибки для клиента
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return CodeAuthenticationRequired
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrInvalidContent):
		return CodeInvalidContent
	case errors.Is(err, ErrPersistence):
		return CodePersistenceFailure
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrStorage):
		return CodeStorageFailure
	case errors.Is(err, ErrConflict):
		return CodeConflict
	default:
		return CodeInternal
	}
}
