package utils

import (
	"errors"
	"fmt"

	"ticket_engine/constants"

	"github.com/gofiber/fiber/v2"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindSystem
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "system"
	}
}

// AppError is the error type returned by the service layer.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func ValidationError(code, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message}
}

func NotFoundError(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func ForbiddenError(code, message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: code, Message: message}
}

func ConflictError(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

func SystemError(message string, err error) *AppError {
	return &AppError{Kind: KindSystem, Code: constants.SYSTEM_ERROR, Message: message, Err: err}
}

// AsAppError unwraps err into an *AppError. Unknown errors become system errors.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return SystemError("unexpected error", err)
}

// CodeOf returns the error code carried by err, or "" for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return AsAppError(err).Code
}

func KindOf(err error) ErrorKind {
	if err == nil {
		return 0
	}
	return AsAppError(err).Kind
}

// HandleError writes err as a JSON error response. System error details
// never leave the process.
func HandleError(c *fiber.Ctx, err error) error {
	appErr := AsAppError(err)
	if appErr.Kind == KindSystem {
		return ErrorResponse(c, appErr.Status(), "internal error", errors.New(constants.SYSTEM_ERROR))
	}
	return ErrorResponse(c, appErr.Status(), appErr.Message, errors.New(appErr.Code))
}
