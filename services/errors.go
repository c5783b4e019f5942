package services

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "internal"
	}
}

// AppError is the tagged error returned by the service layer. The API layer maps
// Kind to a status code in one place.
type AppError struct {
	Kind     Kind
	Message  string
	Upstream string            // set for KindUpstreamUnavailable
	Details  map[string]string // field -> problem, set for KindValidation
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ValidationError(details map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: "Validation failed", Details: details}
}

func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func UpstreamUnavailable(upstream string, err error) *AppError {
	return &AppError{
		Kind:     KindUpstreamUnavailable,
		Message:  "External data source unavailable",
		Upstream: upstream,
		Err:      err,
	}
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf classifies err; anything that is not an AppError is internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
