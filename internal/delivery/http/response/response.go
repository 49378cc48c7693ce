// Package response writes the JSON bodies shared by every HTTP handler.
package response

import (
	"net/http"

	deliverycontext "gatehouse/internal/delivery/context"
	domainerrors "gatehouse/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// MessageResponse is the body of flows that only acknowledge success.
type MessageResponse struct {
	Message string `json:"message"`
}

// Success writes data as the JSON body.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, data)
}

// Message writes a {"message": ...} body.
func Message(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, MessageResponse{Message: message})
}

// Error writes the standard error body.
func Error(c echo.Context, statusCode int, errorCode string, message string, fields []domainerrors.FieldError) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	// Field details are only meaningful for client errors other than auth failures.
	if statusCode >= 500 || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		fields = nil
	}

	return c.JSON(statusCode, domainerrors.ErrorResponse{
		StatusCode: statusCode,
		Message:    message,
		Error:      errorCode,
		Fields:     fields,
		RequestID:  deliverycontext.GetRequestID(c),
	})
}

// BadRequest returns a 400 error
func BadRequest(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusBadRequest, errorCode, message, nil)
}

// ValidationFailed returns a 400 error listing the rejected fields.
func ValidationFailed(c echo.Context, fields []domainerrors.FieldError) error {
	return Error(c, http.StatusBadRequest, domainerrors.ErrValidationFailed.ErrorCode(), domainerrors.ErrValidationFailed.Message(), fields)
}

// Unauthorized returns a 401 error
func Unauthorized(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusUnauthorized, errorCode, message, nil)
}

// InternalServerError returns a 500 error
func InternalServerError(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusInternalServerError, errorCode, message, nil)
}

// HandleAppError writes err when it carries an AppError and returns it with a stack otherwise.
func HandleAppError(c echo.Context, err error) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), nil)
	}

	return errors.WithStack(err)
}
