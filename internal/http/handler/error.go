package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"sipeta/internal/auth"
	"sipeta/internal/category"
	"sipeta/internal/http/middleware"
	"sipeta/internal/service"
	"sipeta/internal/upload"
)

// errorPayload is the error body of every JSON endpoint.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Fields lists the labels of missing form fields on VALIDATION_FAILED.
	Fields []string `json:"fields,omitempty"`
}

// writeError writes the standard error envelope. message must be safe to show.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// writeServiceError maps a domain error to its status and code. Unknown errors
// become a generic 500 and their text is not exposed.
func writeServiceError(c *fiber.Ctx, err error) error {
	var verr *category.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(errorPayload{
			RequestID: middleware.GetRequestID(c),
			Error:     errorEnvelope{Code: "VALIDATION_FAILED", Message: verr.Error(), Fields: verr.Missing},
		})
	}

	switch {
	case errors.Is(err, service.ErrIDRequired), errors.Is(err, service.ErrIdentifierRequired):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, service.ErrFileRequired), errors.Is(err, upload.ErrEmptyFile):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", err.Error())
	case errors.Is(err, service.ErrForeignFile):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILE_PATH", err.Error())
	case errors.Is(err, upload.ErrFileTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.Is(err, upload.ErrUnsupportedType):
		return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE", err.Error())
	case errors.Is(err, category.ErrUnknownCategory):
		return writeError(c, fiber.StatusNotFound, "UNKNOWN_CATEGORY", err.Error())
	case errors.Is(err, category.ErrUnknownSection), errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrDuplicate):
		return writeError(c, fiber.StatusConflict, "DUPLICATE_RECORD", err.Error())
	case errors.Is(err, service.ErrNotDeletable):
		return writeError(c, fiber.StatusForbidden, "NOT_DELETABLE", err.Error())
	case errors.Is(err, service.ErrConfirmationRequired):
		return writeError(c, fiber.StatusBadRequest, "CONFIRMATION_REQUIRED", err.Error())
	case errors.Is(err, service.ErrDeletePending):
		return writeError(c, fiber.StatusAccepted, "DELETE_PENDING", service.ErrDeletePending.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, auth.ErrNIKNotFound):
		return writeError(c, fiber.StatusUnauthorized, "NIK_NOT_FOUND", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		return writeError(c, fiber.StatusConflict, "EMAIL_TAKEN", err.Error())
	case errors.Is(err, upload.ErrStorage):
		return writeError(c, fiber.StatusBadGateway, "STORAGE_ERROR", err.Error())
	case errors.Is(err, service.ErrDatabase):
		return writeError(c, fiber.StatusInternalServerError, "DATABASE_ERROR", err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// unauthorized is the 401 answer of gated API routes.
func unauthorized(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "sign in required")
}

// ErrorHandler is the Fiber global error handler.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
