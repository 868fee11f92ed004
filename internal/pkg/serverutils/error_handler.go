package serverutils

import (
	"errors"

	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const genericInternalMessage = "internal server error"

// ErrorHandlerMiddleware renders every error returned by a handler with the
// failure envelope. Internal errors are logged and answered generically.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var appErr *apperror.Error
		if errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal {
			code := appErr.Kind.HTTPStatus()
			return ctx.Status(code).JSON(ErrorResponse(code, appErr.Message))
		}

		if log != nil {
			log.Error("HTTP", "Unhandled error", map[string]interface{}{
				"error":  err.Error(),
				"method": ctx.Method(),
				"path":   ctx.Path(),
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, genericInternalMessage))
	}
}
