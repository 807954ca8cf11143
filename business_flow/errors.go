// Package businessflow contains the core business logic and use cases for the QR registration platform
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// QR code errors
	ErrQrNotFound            = errors.New("qr code not found")
	ErrQrInactive            = errors.New("qr code is inactive")
	ErrQrIDRequired          = errors.New("qr code id is required")
	ErrBatchCountOutOfRange  = errors.New("batch count must be between 1 and 100")
	ErrGenerationUnavailable = errors.New("could not determine generation number")

	// Ownership errors
	ErrObjectAlreadyAttached = errors.New("qr code already has an attached object")
	ErrObjectNotAttached     = errors.New("qr code has no attached object")
	ErrNotQrOwner            = errors.New("qr code belongs to another user")

	// Object errors
	ErrObjectNotFound     = errors.New("object not found")
	ErrObjectNameRequired = errors.New("object name is required")
	ErrImageTooLarge      = errors.New("image exceeds the maximum allowed size")
	ErrImageFormatInvalid = errors.New("image format is not supported")

	// Occasion errors
	ErrOccasionNotFound     = errors.New("occasion not found")
	ErrOccasionNameRequired = errors.New("occasion name is required")
	ErrOccasionNameTaken    = errors.New("occasion name already exists")

	// Account errors
	ErrUserNotFound  = errors.New("user not found")
	ErrAdminNotFound = errors.New("admin not found")
	ErrUserInactive  = errors.New("user account is inactive")

	// External service errors
	ErrRendererUnavailable  = errors.New("qr renderer is unavailable")
	ErrImageHostUnavailable = errors.New("image host is unavailable")
	ErrCacheNotAvailable    = errors.New("cache not available")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsQrNotFound(err error) bool {
	return errors.Is(err, ErrQrNotFound)
}

func IsQrInactive(err error) bool {
	return errors.Is(err, ErrQrInactive)
}

func IsQrIDRequired(err error) bool {
	return errors.Is(err, ErrQrIDRequired)
}

func IsBatchCountOutOfRange(err error) bool {
	return errors.Is(err, ErrBatchCountOutOfRange)
}

func IsGenerationUnavailable(err error) bool {
	return errors.Is(err, ErrGenerationUnavailable)
}

func IsObjectAlreadyAttached(err error) bool {
	return errors.Is(err, ErrObjectAlreadyAttached)
}

func IsObjectNotAttached(err error) bool {
	return errors.Is(err, ErrObjectNotAttached)
}

func IsNotQrOwner(err error) bool {
	return errors.Is(err, ErrNotQrOwner)
}

func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

func IsObjectNameRequired(err error) bool {
	return errors.Is(err, ErrObjectNameRequired)
}

func IsImageTooLarge(err error) bool {
	return errors.Is(err, ErrImageTooLarge)
}

func IsImageFormatInvalid(err error) bool {
	return errors.Is(err, ErrImageFormatInvalid)
}

func IsOccasionNotFound(err error) bool {
	return errors.Is(err, ErrOccasionNotFound)
}

func IsOccasionNameRequired(err error) bool {
	return errors.Is(err, ErrOccasionNameRequired)
}

func IsOccasionNameTaken(err error) bool {
	return errors.Is(err, ErrOccasionNameTaken)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsUserInactive(err error) bool {
	return errors.Is(err, ErrUserInactive)
}

func IsRendererUnavailable(err error) bool {
	return errors.Is(err, ErrRendererUnavailable)
}

func IsImageHostUnavailable(err error) bool {
	return errors.Is(err, ErrImageHostUnavailable)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
