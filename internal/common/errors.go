package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes carried by AppError.
const (
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	CodeExtractionIO       = "EXTRACTION_IO"
	CodeConfig             = "CONFIG_ERROR"
	CodeMerchantConflict   = "MERCHANT_CONFLICT"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")

	// Hard faults of the text extraction stage. Each aborts a parse.
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrExtractionIO       = errors.New("extraction failed")

	// ErrMerchantExists is returned by a registry when the normalized name is already taken.
	ErrMerchantExists = errors.New("merchant already exists")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func UnsupportedFormatError(ext string) error {
	return NewAppError(CodeUnsupportedFormat, fmt.Sprintf("unsupported file type: %q", ext), ErrUnsupportedFormat)
}

func BackendUnavailableError(backend string) error {
	return NewAppError(CodeBackendUnavailable, fmt.Sprintf("%s backend is not available", backend), ErrBackendUnavailable)
}

func ExtractionIOError(stage string, cause error) error {
	return NewAppError(CodeExtractionIO, fmt.Sprintf("%s failed: %v", stage, cause), fmt.Errorf("%w: %w", ErrExtractionIO, cause))
}

// Message returns the human readable part of err: AppError.Message when err
// wraps an AppError, err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// GRPCStatus maps application errors onto gRPC status errors.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := Message(err)
	switch {
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, ErrBackendUnavailable):
		return status.Error(codes.Unavailable, msg)
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, ErrMerchantExists):
		return status.Error(codes.AlreadyExists, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}
