package serverutils

import (
	"errors"
	"fmt"

	"assembly-dashboard-be/pkg/datasource"

	"github.com/gofiber/fiber/v2"
)

// StatusError carries its own HTTP status.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string { return e.Err.Error() }
func (e *StatusError) Unwrap() error { return e.Err }

// WithStatus tags err with an HTTP status.
func WithStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	return &StatusError{Status: status, Err: err}
}

// ErrorHandlerMiddleware turns errors returned by handlers, and panics, into the error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = ctx.Status(fiber.StatusInternalServerError).
					JSON(ErrorResponse(fiber.StatusInternalServerError, fmt.Sprintf("internal error: %v", r)))
			}
		}()

		if err = ctx.Next(); err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

// WriteError renders err with the status it maps to.
func WriteError(ctx *fiber.Ctx, err error) error {
	var (
		verr *ValidationError
		serr *StatusError
		ferr *fiber.Error
		derr *datasource.FetchError
	)
	switch {
	case errors.As(err, &verr):
		resp := ErrorResponse(fiber.StatusBadRequest, "validation failed")
		resp.Errors = verr.Fields
		return ctx.Status(fiber.StatusBadRequest).JSON(resp)
	case errors.As(err, &serr):
		return ctx.Status(serr.Status).JSON(ErrorResponse(serr.Status, serr.Error()))
	case errors.As(err, &ferr):
		return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Code, ferr.Message))
	case errors.As(err, &derr):
		return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, derr.Error()))
	case errors.Is(err, datasource.ErrNotConfigured):
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse(fiber.StatusServiceUnavailable, err.Error()))
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
}
