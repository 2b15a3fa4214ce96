package domain

import (
	"errors"
	"strings"
)

// Sentinel errors for company profile operations.
var (
	// ErrProfileNotFound indicates the owner has no company profile yet.
	// HTTP Status: 404 Not Found
	ErrProfileNotFound = errors.New("company profile not found")

	// ErrValidation is matched by every *ValidationError.
	// HTTP Status: 400 Bad Request
	ErrValidation = errors.New("validation failed")

	// ErrInvalidImageKind indicates an image kind other than logo or banner.
	// HTTP Status: 400 Bad Request
	ErrInvalidImageKind = errors.New("invalid image kind")

	// ErrFileMissing indicates the multipart request carried no file.
	// HTTP Status: 400 Bad Request
	ErrFileMissing = errors.New("no file uploaded")

	// ErrFileTooLarge indicates the upload exceeded the configured limit.
	// HTTP Status: 400 Bad Request
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedFileType indicates the upload is not a supported image.
	// HTTP Status: 400 Bad Request
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// Is reports ErrValidation so callers can use errors.Is.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
