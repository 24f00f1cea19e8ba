package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// The four failure classes every endpoint can surface. Storage failures
// abort the whole request; there is no retry anywhere.

func validationError(message string) *DomainError {
	return domainError(http.StatusBadRequest, "VALIDATION_FAILED", message, nil)
}

func notFoundError(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, nil)
}

func conflictError(message string) *DomainError {
	return domainError(http.StatusConflict, "CONFLICT", message, nil)
}

func storageError(err error) *DomainError {
	return domainError(http.StatusInternalServerError, "STORAGE_FAILED", err.Error(), nil)
}
